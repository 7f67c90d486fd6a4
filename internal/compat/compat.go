// Package compat classifies a store file against the schema the application
// wants to run on. It reads the SQLite file header, and only opens the store
// read-only when the write-ahead log holds frames the header does not reflect.
package compat

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
)

// Status is the outcome of a compatibility probe.
type Status int

const (
	// Compatible stores can be opened directly.
	Compatible Status = iota
	// Migratable stores are on an older schema with a known upgrade path.
	Migratable
	// Incompatible stores have unreadable metadata or no upgrade path.
	Incompatible
)

func (s Status) String() string {
	switch s {
	case Compatible:
		return "compatible"
	case Migratable:
		return "migratable"
	case Incompatible:
		return "incompatible"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

const (
	headerSize          = 100
	userVersionOffset   = 60
	applicationIDOffset = 68
	headerMagic         = "SQLite format 3\x00"
)

var (
	// ErrMetadataUnreadable means the file exists but its header cannot be parsed.
	ErrMetadataUnreadable = errors.New("store metadata unreadable")
	// ErrForeignStore means the header belongs to another application.
	ErrForeignStore = errors.New("store belongs to another application")
	// ErrNoUpgradePath means the store's schema version cannot be stepped to the target.
	ErrNoUpgradePath = errors.New("no upgrade path for store schema")
)

// Header holds the fields of a SQLite file header the checker cares about.
type Header struct {
	ApplicationID int32
	UserVersion   int
}

// ReadHeader reads the SQLite header of the file at path without opening it
// as a database. A missing file returns an error satisfying os.IsNotExist.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Header{}, fmt.Errorf("%w: short header: %v", ErrMetadataUnreadable, err)
	}
	if string(buf[:len(headerMagic)]) != headerMagic {
		return Header{}, fmt.Errorf("%w: not a SQLite database", ErrMetadataUnreadable)
	}

	return Header{
		ApplicationID: int32(binary.BigEndian.Uint32(buf[applicationIDOffset : applicationIDOffset+4])),
		UserVersion:   int(int32(binary.BigEndian.Uint32(buf[userVersionOffset : userVersionOffset+4]))),
	}, nil
}

// ReadStamp reads application_id and user_version through a read-only
// connection, which sees frames still pending in the write-ahead log.
func ReadStamp(path string) (Header, error) {
	db, err := sql.Open("sqlite", storage.ReadOnlyDSN(path))
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)
	}
	defer db.Close()

	var h Header
	if err := db.QueryRow("PRAGMA application_id").Scan(&h.ApplicationID); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)
	}
	if err := db.QueryRow("PRAGMA user_version").Scan(&h.UserVersion); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)
	}
	return h, nil
}

// Probe returns the stamp the store at path carries once its write-ahead log
// is applied. The file header is stale while the log holds frames, so in
// that case the stamp is read through a read-only connection instead.
func Probe(path string) (Header, error) {
	if storage.PendingWAL(path) {
		return ReadStamp(path)
	}
	return ReadHeader(path)
}

// Result is the outcome of Check.
type Result struct {
	Status Status
	// Version is the schema version found in the header, 0 when none was read.
	Version int
	// Reason explains an Incompatible classification. It is informational:
	// Check never fails, an unreadable store is simply Incompatible.
	Reason error
}

// Check probes the store at path against target. It never writes the store.
//
// A missing or zero-length file with no pending log is Compatible: the store
// handle creates the target schema in it on open.
func Check(path string, target *schema.Model) Result {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Result{Status: Compatible}
	}
	if err != nil {
		return Result{Status: Incompatible, Reason: fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)}
	}
	if info.Size() == 0 && !storage.PendingWAL(path) {
		return Result{Status: Compatible}
	}

	header, err := Probe(path)
	if err != nil {
		if !errors.Is(err, ErrMetadataUnreadable) {
			err = fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)
		}
		return Result{Status: Incompatible, Reason: err}
	}

	fp := target.Fingerprint()
	if header.ApplicationID != fp.ApplicationID {
		return Result{
			Status:  Incompatible,
			Version: header.UserVersion,
			Reason:  fmt.Errorf("%w: application id %#x", ErrForeignStore, header.ApplicationID),
		}
	}

	switch {
	case header.UserVersion == fp.Version:
		return Result{Status: Compatible, Version: header.UserVersion}
	case schema.HasUpgradePath(header.UserVersion, fp.Version):
		return Result{Status: Migratable, Version: header.UserVersion}
	default:
		return Result{
			Status:  Incompatible,
			Version: header.UserVersion,
			Reason:  fmt.Errorf("%w: version %d to %d", ErrNoUpgradePath, header.UserVersion, fp.Version),
		}
	}
}
