package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrRowSkipped marks a source row left out of the migrated graph. It is
	// never returned from Migrate; skipped rows are listed in the Report.
	ErrRowSkipped = errors.New("row skipped")
	// ErrReplaceFailure means the swap of the migrated store into place did not
	// complete. The original store may be gone.
	ErrReplaceFailure = errors.New("store replacement failed")
	// ErrNothingToMigrate is returned when the source is already on the target version.
	ErrNothingToMigrate = errors.New("store is already on the target schema")
)

// RowSkippedError describes one source row that was not migrated.
type RowSkippedError struct {
	Table  string
	RowID  int64
	Reason string
}

func (e *RowSkippedError) Error() string {
	return fmt.Sprintf("%s: %s row %d: %s", ErrRowSkipped, e.Table, e.RowID, e.Reason)
}

func (e *RowSkippedError) Unwrap() error {
	return ErrRowSkipped
}
