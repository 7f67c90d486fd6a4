// Package bootstrap decides, once per startup, whether the store on disk can
// be opened as is, has to be migrated first, or has to be dealt with by the
// incompatible-store policy.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/julianstephens/progresstracker/internal/backup"
	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/lockfile"
	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/migration"
	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
	"github.com/julianstephens/progresstracker/internal/storage/sqlite"
)

// ErrIncompatibleStore is returned under the fail policy when the store can
// neither be opened nor migrated.
var ErrIncompatibleStore = errors.New("store is incompatible with this version")

// Config controls how a store is bootstrapped.
type Config struct {
	// Policy applies when a store is incompatible or its migration fails.
	Policy constants.IncompatiblePolicy
	// Backup snapshots the store before it is migrated.
	Backup bool
	// Loader resolves schema definitions. Defaults to the bundled ones.
	Loader *schema.Loader
	// TempPath overrides where the migrated store is built.
	TempPath func(storePath string) string
}

// Bootstrapper brings a store file to the current schema.
type Bootstrapper struct {
	cfg      Config
	migrator *migration.Migrator
}

func New(cfg Config) *Bootstrapper {
	if !cfg.Policy.Valid() {
		cfg.Policy = constants.PolicyFail
	}
	m := migration.NewMigrator()
	if cfg.Loader != nil {
		m.Loader = cfg.Loader
	}
	if cfg.TempPath != nil {
		m.TempPath = cfg.TempPath
	}
	return &Bootstrapper{cfg: cfg, migrator: m}
}

// Store is an opened store that holds the ownership lock until closed.
type Store struct {
	*sqlite.Store
	// Report is set when the store was migrated during Open.
	Report *migration.Report
	// Reset is true when the incompatible-store policy replaced the store.
	Reset bool

	lock *lockfile.Lock
}

// Close closes the store and releases the lock.
func (s *Store) Close() error {
	return errors.Join(s.Store.Close(), s.lock.Release())
}

// CheckCompatibility classifies the store at path against the current schema.
func (b *Bootstrapper) CheckCompatibility(path string) compat.Result {
	target, err := b.migrator.Loader.LoadVersion(b.migrator.Target)
	if err != nil {
		return compat.Result{Status: compat.Incompatible, Reason: err}
	}
	return compat.Check(path, target)
}

// Migrate brings the store at path to the current schema. A compatible store
// is left untouched and yields an empty report.
func (b *Bootstrapper) Migrate(path string) (*migration.Report, error) {
	result := b.CheckCompatibility(path)
	switch result.Status {
	case compat.Compatible:
		logger.Debug("Store is compatible, nothing to migrate", "path", path, "version", result.Version)
		return &migration.Report{From: result.Version, To: result.Version}, nil
	case compat.Incompatible:
		return nil, fmt.Errorf("%w: %w", ErrIncompatibleStore, result.Reason)
	}

	if b.cfg.Backup {
		backupPath, err := backup.NewManager(path).CreateBackup()
		if err != nil {
			return nil, fmt.Errorf("failed to back up store before migration: %w", err)
		}
		logger.Info("Created pre-migration backup", "path", backupPath)
	}

	return b.migrator.Migrate(path, result.Version)
}

// Reset deletes the store at path together with its side files and any
// leftover temporary store.
func (b *Bootstrapper) Reset(path string) error {
	err := errors.Join(
		storage.RemoveAll(path),
		storage.RemoveAll(b.migrator.TempPath(path)),
	)
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	logger.Warn("Store reset", "path", path)
	return nil
}

// Open takes ownership of the store at path, migrates it if needed, and
// returns it opened on the current schema.
//
// A failed swap (ErrReplaceFailure) is returned as is under every policy:
// the store may be gone and only a backup can bring it back.
func (b *Bootstrapper) Open(path string) (*Store, error) {
	lock, err := lockfile.Acquire(path)
	if err != nil {
		return nil, err
	}

	store, err := b.open(path)
	if err != nil {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warn("Failed to release store lock", "path", path, "error", releaseErr)
		}
		return nil, err
	}
	store.lock = lock
	return store, nil
}

func (b *Bootstrapper) open(path string) (*Store, error) {
	result := &Store{}

	report, err := b.Migrate(path)
	switch {
	case err == nil:
		if report.From != report.To {
			result.Report = report
		}
	case errors.Is(err, migration.ErrReplaceFailure):
		return nil, err
	default:
		if b.cfg.Policy != constants.PolicyReset {
			logger.Error("Store cannot be opened", "path", path, "error", err)
			return nil, err
		}
		logger.Warn("Store cannot be opened, resetting", "path", path, "error", err)
		if b.cfg.Backup && storage.Exists(path) {
			// corrupt stores cannot be snapshotted; the reset goes ahead regardless
			if backupPath, err := backup.NewManager(path).CreateBackup(); err != nil {
				logger.Warn("Failed to back up store before reset", "error", err)
			} else {
				logger.Info("Created pre-reset backup", "path", backupPath)
			}
		}
		if err := b.Reset(path); err != nil {
			return nil, err
		}
		result.Reset = true
	}

	store := sqlite.NewStore(path)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	result.Store = store
	return result, nil
}
