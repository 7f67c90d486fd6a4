package migration

import (
	"fmt"

	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/storage"
)

// Replace swaps the fully written store at tempPath into storePath: the
// original triplet is deleted, then the temporary triplet is moved into its
// place.
//
// There is a window between the delete and the move. If the move fails the
// store is absent rather than half written, and the migrated copy is left at
// tempPath. Both failure cases wrap ErrReplaceFailure.
func Replace(tempPath, storePath string) error {
	if err := storage.RemoveAll(storePath); err != nil {
		logger.Error("Failed to remove original store", "path", storePath, "migrated", tempPath, "error", err)
		return fmt.Errorf("%w: removing original store: %v", ErrReplaceFailure, err)
	}
	if err := storage.MoveAll(tempPath, storePath); err != nil {
		logger.Error("Failed to move migrated store into place", "path", storePath, "migrated", tempPath, "error", err)
		return fmt.Errorf("%w: moving migrated store: %v", ErrReplaceFailure, err)
	}
	logger.Debug("Store replaced", "path", storePath)
	return nil
}
