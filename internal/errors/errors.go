package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/progresstracker/internal/bootstrap"
	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/lockfile"
	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/migration"
	"github.com/julianstephens/progresstracker/internal/schema"
)

var hints = []struct {
	target error
	hint   string
}{
	{migration.ErrReplaceFailure, "the store may be missing; restore it with 'progress backup restore'"},
	{lockfile.ErrStoreBusy, "close the other progress process, or remove the lock file if it crashed"},
	{compat.ErrNoUpgradePath, "the store was written by a newer version of progress"},
	{compat.ErrForeignStore, "the file is not a progress store; check --store"},
	{schema.ErrSchemaUnavailable, "this build is missing a bundled schema; reinstall progress"},
	{bootstrap.ErrIncompatibleStore, "run 'progress reset' or start with --on-incompatible=reset to start over"},
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint returns a suggested next step for known store errors, or "".
func Hint(err error) string {
	for _, h := range hints {
		if stderrors.Is(err, h.target) {
			return h.hint
		}
	}
	return ""
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		if hint := Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
