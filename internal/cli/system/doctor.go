package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/progresstracker/internal/backup"
	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/lockfile"
	"github.com/julianstephens/progresstracker/internal/migration"
	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
	"github.com/julianstephens/progresstracker/internal/storage/sqlite"
)

// ErrDiagnosticsFailed is returned when at least one doctor check fails.
var ErrDiagnosticsFailed = errors.New("one or more diagnostic checks failed")

type DoctorCmd struct{}

// Run inspects the store without migrating or resetting it.
func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println(cli.HeaderStyle.Render("Running diagnostics..."))
	ctx.Println()

	hasError := false
	report := func(result cli.CheckResult, label, detail string) {
		if result == cli.CheckFail {
			hasError = true
		}
		ctx.Println(cli.StatusLine(result, label, detail))
	}

	// Check 1: bundled schemas
	if err := checkBundledSchemas(); err != nil {
		report(cli.CheckFail, "Bundled schemas", err.Error())
	} else {
		report(cli.CheckOK, "Bundled schemas", "")
	}

	// Check 2: store compatibility
	result := ctx.Bootstrap.CheckCompatibility(ctx.StorePath)
	switch result.Status {
	case compat.Compatible:
		report(cli.CheckOK, "Store compatibility", "")
	case compat.Migratable:
		report(cli.CheckWarn, "Store compatibility",
			fmt.Sprintf("store is on %s; run 'progress migrate'", schema.VersionName(result.Version)))
	default:
		report(cli.CheckFail, "Store compatibility", result.Reason.Error())
	}

	// Check 3: leftovers of an interrupted migration
	if leftovers := existing(storage.SideFiles(migration.DefaultTempPath(ctx.StorePath))); len(leftovers) > 0 {
		report(cli.CheckWarn, "Interrupted migration", fmt.Sprintf("temporary files left behind: %v", leftovers))
	} else {
		report(cli.CheckOK, "Interrupted migration", "")
	}

	// Check 4: store ownership
	if lock, err := lockfile.Acquire(ctx.StorePath); err != nil {
		report(cli.CheckWarn, "Store lock", err.Error())
	} else {
		lock.Release()
		report(cli.CheckOK, "Store lock", "")
	}

	// Check 5: store contents (only for stores on the current schema)
	if result.Status == compat.Compatible && storage.Exists(ctx.StorePath) {
		if err := checkStoreReadable(ctx.StorePath); err != nil {
			report(cli.CheckFail, "Store readable", err.Error())
		} else {
			report(cli.CheckOK, "Store readable", "")
		}
	} else {
		report(cli.CheckSkipped, "Store readable", "store is missing or not on the current schema")
	}

	// Check 6: backups present (warning only)
	if err := checkBackupsPresent(ctx.StorePath); err != nil {
		report(cli.CheckWarn, "Backups present", err.Error())
	} else {
		report(cli.CheckOK, "Backups present", "")
	}

	ctx.Println()
	if hasError {
		return ErrDiagnosticsFailed
	}
	ctx.Println(cli.OKStyle.Render("All checks passed."))
	return nil
}

func checkBundledSchemas() error {
	var errs []error
	for v := 1; v <= schema.Latest; v++ {
		if _, err := schema.LoadVersion(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkStoreReadable(path string) error {
	store := sqlite.NewStore(path)
	if err := store.Load(); err != nil {
		return err
	}
	defer store.Close()

	var result string
	if err := store.GetDB().QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	_, err := store.Counts()
	return err
}

func checkBackupsPresent(path string) error {
	backups, err := backup.NewManager(path).ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return errors.New("no backups found; run 'progress backup create'")
	}
	return nil
}

func existing(paths []string) []string {
	var found []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	return found
}
