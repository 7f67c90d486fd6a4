// Package migration rebuilds an older store under the current schema in a
// temporary file and swaps it into place.
package migration

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
)

// Report summarises one migration run.
type Report struct {
	From       int
	To         int
	Challenges int
	Objectives int
	Milestones int
	Entries    int
	Details    int
	Skipped    []*RowSkippedError
	Duration   time.Duration
}

func (r *Report) skip(table string, rowID int64, reason string) {
	err := &RowSkippedError{Table: table, RowID: rowID, Reason: reason}
	r.Skipped = append(r.Skipped, err)
	logger.Warn("Row skipped", "table", table, "row", rowID, "reason", reason)
}

// Migrator performs a complete old-graph to new-graph transformation.
type Migrator struct {
	// Loader resolves every schema version the run steps through.
	Loader *schema.Loader
	// Target is the schema version the store ends up on.
	Target int
	// TempPath returns where the migrated store is built before the swap.
	TempPath func(storePath string) string
}

// NewMigrator returns a migrator targeting the latest bundled schema.
func NewMigrator() *Migrator {
	return &Migrator{
		Loader:   schema.Default,
		Target:   schema.Latest,
		TempPath: DefaultTempPath,
	}
}

// DefaultTempPath places the migrated store next to the original, so the
// final move stays on one filesystem.
func DefaultTempPath(storePath string) string {
	return storePath + constants.MigratingSuffix
}

// Migrate upgrades the store at storePath, currently on schema version from,
// to m.Target.
//
// The original file is only read until the migrated store has been fully
// written and committed at the temporary path. Any failure up to that point
// leaves the original untouched and removes the temporary files. A failure
// while swapping the files returns an error wrapping ErrReplaceFailure.
func (m *Migrator) Migrate(storePath string, from int) (*Report, error) {
	if from >= m.Target {
		return nil, fmt.Errorf("%w: version %d", ErrNothingToMigrate, from)
	}
	if !schema.HasUpgradePath(from, m.Target) {
		return nil, fmt.Errorf("no upgrade path from %s to %s", schema.VersionName(from), schema.VersionName(m.Target))
	}

	// Resolve every generation up front so a missing definition aborts
	// before anything is written.
	var target *schema.Model
	for v := from; v <= m.Target; v++ {
		model, err := m.Loader.LoadVersion(v)
		if err != nil {
			return nil, err
		}
		if v < m.Target && upgrades[v] == nil {
			return nil, fmt.Errorf("no upgrade step registered for %s", model.Name)
		}
		target = model
	}

	start := time.Now()
	report := &Report{From: from, To: m.Target}
	logger.Info("Migrating store", "path", storePath, "from", schema.VersionName(from), "to", target.Name)

	g, err := m.readSource(storePath, from, report)
	if err != nil {
		return nil, err
	}
	for v := from; v < m.Target; v++ {
		upgrades[v](g)
		logger.Debug("Upgraded graph in memory", "version", schema.VersionName(g.version))
	}

	tempPath := m.tempPath(storePath)
	if err := m.build(tempPath, target, g, report); err != nil {
		return nil, err
	}

	if err := Replace(tempPath, storePath); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	logger.Info("Store migrated",
		"path", storePath,
		"challenges", report.Challenges,
		"entries", report.Entries,
		"details", report.Details,
		"skipped", len(report.Skipped),
		"duration", report.Duration)
	return report, nil
}

func (m *Migrator) tempPath(storePath string) string {
	if m.TempPath != nil {
		return m.TempPath(storePath)
	}
	return DefaultTempPath(storePath)
}

// readSource loads the whole source graph over a read-only connection, which
// leaves the write-ahead log of the source in place.
func (m *Migrator) readSource(storePath string, version int, report *Report) (*graph, error) {
	db, err := sql.Open("sqlite", storage.ReadOnlyDSN(storePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open source store: %w", err)
	}
	defer db.Close()

	g, err := readGraph(db, version, report)
	if err != nil {
		return nil, fmt.Errorf("failed to read source store: %w", err)
	}
	return g, nil
}

// build writes g into a fresh store at tempPath in a single transaction.
func (m *Migrator) build(tempPath string, model *schema.Model, g *graph, report *Report) (err error) {
	if err := storage.RemoveAll(tempPath); err != nil {
		return fmt.Errorf("failed to clear stale migration files: %w", err)
	}

	defer func() {
		if err != nil {
			if cleanupErr := storage.RemoveAll(tempPath); cleanupErr != nil {
				logger.Warn("Failed to remove temporary store", "path", tempPath, "error", cleanupErr)
			}
		}
	}()

	db, err := sql.Open("sqlite", tempPath)
	if err != nil {
		return fmt.Errorf("failed to open destination store: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to create destination store: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := model.Apply(tx); err != nil {
		return err
	}
	if err := writeGraph(tx, g, report); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit destination store: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close destination store: %w", err)
	}
	return nil
}
