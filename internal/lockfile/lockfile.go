// Package lockfile marks a store as owned by one running process.
//
// The lock is advisory. It exists to catch a second process starting on the
// same store while the first is bootstrapping or running, not to arbitrate
// between writers.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/logger"
)

var (
	// ErrStoreBusy is returned when another live process holds the lock.
	ErrStoreBusy = errors.New("store is in use by another process")

	findProcessFunc = ps.FindProcess
)

// Lock is a held store lock.
type Lock struct {
	path string
}

// Path returns the lock file location for a store.
func Path(storePath string) string {
	return storePath + constants.LockSuffix
}

// Acquire takes the lock for storePath. A lock left behind by a process that
// is no longer running is replaced.
func Acquire(storePath string) (*Lock, error) {
	path := Path(storePath)
	pid := os.Getpid()

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(pid) + "\n")
			cerr := f.Close()
			if err := errors.Join(werr, cerr); err != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lock file: %w", err)
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		owner, err := readOwner(path)
		if err == nil && owner != pid && isRunning(owner) {
			return nil, fmt.Errorf("%w (pid %d)", ErrStoreBusy, owner)
		}

		logger.Warn("Replacing stale store lock", "path", path, "owner", owner)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock file: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: lock file keeps reappearing", ErrStoreBusy)
}

// Release removes the lock file. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func readOwner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, errors.New("invalid process ID in lock file")
	}
	return pid, nil
}

func isRunning(pid int) bool {
	process, err := findProcessFunc(pid)
	if err != nil {
		logger.Debug("Process lookup failed", "pid", pid, "error", err)
		return false
	}
	return process != nil
}
