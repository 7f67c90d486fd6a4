package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/schema"
)

const connectionPragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// ErrSchemaMismatch is returned by Load when the store is not on the current
// schema. Callers are expected to bootstrap the store first.
var ErrSchemaMismatch = errors.New("store schema does not match the application")

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// Init opens the store, creating the current schema when the file is missing
// or empty. An existing store must already be on the current schema.
func (s *Store) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fresh := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		fresh = false
	}

	if !fresh {
		return s.Load()
	}

	model, err := schema.LoadVersion(schema.Latest)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.path+connectionPragmas)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := model.Apply(tx); err != nil {
		tx.Rollback()
		db.Close()
		return err
	}
	if err := tx.Commit(); err != nil {
		db.Close()
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	// The stamp must reach the primary file before anything is written, the
	// compatibility check reads it from there.
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		db.Close()
		return fmt.Errorf("failed to checkpoint schema: %w", err)
	}

	s.db = db
	return nil
}

// Load opens an existing store and validates its header.
func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'progress migrate' first")
	}

	if err := s.validateSchemaVersion(); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.path+connectionPragmas)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) validateSchemaVersion() error {
	header, err := compat.Probe(s.path)
	if err != nil {
		return err
	}
	if header.ApplicationID != (&schema.Model{Version: schema.Latest}).Fingerprint().ApplicationID {
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, compat.ErrForeignStore)
	}
	if header.UserVersion != schema.Latest {
		return fmt.Errorf("%w: store is on %s, application expects %s",
			ErrSchemaMismatch, schema.VersionName(header.UserVersion), schema.VersionName(schema.Latest))
	}
	return nil
}

// tableExists checks if a table exists in the SQLite database.
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	row := s.db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
