package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/progresstracker/internal/constants"
)

// sideSuffixes are the companion files SQLite keeps next to a store in WAL mode.
var sideSuffixes = []string{constants.WALSuffix, constants.SHMSuffix}

// SideFiles returns the full store triplet for path: the primary file, its
// write-ahead log and its shared-memory index. The three always move and get
// deleted together.
func SideFiles(path string) []string {
	files := []string{path}
	for _, suffix := range sideSuffixes {
		files = append(files, path+suffix)
	}
	return files
}

// uriEscaper escapes the characters SQLite treats specially in a URI filename.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// ReadOnlyDSN returns a data source name opening the store at path read-only.
// A read-only connection never checkpoints the write-ahead log on close, so
// the triplet on disk is left as it was found.
func ReadOnlyDSN(path string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=ro"
}

// PendingWAL reports whether the store at path has a non-empty write-ahead
// log, whose frames are not yet part of the primary file.
func PendingWAL(path string) bool {
	info, err := os.Stat(path + constants.WALSuffix)
	return err == nil && info.Size() > 0
}

// Exists reports whether the primary store file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RemoveAll deletes every member of the store triplet that exists. It keeps
// going after a failure so that as much of the triplet as possible is gone,
// and reports every failure it hit.
func RemoveAll(path string) error {
	var errs []error
	for _, file := range SideFiles(path) {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}

// MoveAll renames the store triplet at src onto dst. Side files missing at
// src are removed at dst, so a stale log can never be replayed against the
// moved primary file.
func MoveAll(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	var errs []error
	for _, suffix := range sideSuffixes {
		from, to := src+suffix, dst+suffix
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, to); err != nil {
				errs = append(errs, fmt.Errorf("failed to move %s to %s: %w", from, to, err))
			}
			continue
		}
		if err := os.Remove(to); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove stale %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}
