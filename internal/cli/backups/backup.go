package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/progresstracker/internal/backup"
	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/lockfile"
	"github.com/julianstephens/progresstracker/internal/schema"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	lock, err := lockfile.Acquire(ctx.StorePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	mgr := backup.NewManager(ctx.StorePath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Println(cli.OKStyle.Render("✓ Backup created: " + filepath.Base(backupPath)))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.StorePath)
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		timestamp := b.Timestamp.Format("2006-01-02 15:04:05")
		version := "unknown schema"
		if b.Version > 0 {
			version = schema.VersionName(b.Version)
		}
		ctx.Printf("  %s  %s  (%.1f KB, %s)\n", timestamp, filepath.Base(b.Path), sizeKB, version)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.GetBackupDir())

	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `help:"Do not ask for confirmation." short:"y"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.StorePath)

	backupPath, err := resolveBackupPath(c.BackupFile, mgr.GetBackupDir())
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.Confirm(
			"Replace the store with this backup?",
			fmt.Sprintf("Restore from %s. A backup of the current store is made first. Older backups are migrated on next use.", backupPath),
		)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	lock, err := lockfile.Acquire(ctx.StorePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := mgr.RestoreBackup(backupPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Println(cli.OKStyle.Render("✓ Store restored from " + filepath.Base(backupPath)))
	return nil
}

// resolveBackupPath accepts an absolute path, a path relative to the working
// directory, or a bare filename inside the backup directory.
func resolveBackupPath(name, backupDir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}

	if _, err := os.Stat(name); err == nil {
		absPath, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve backup path: %w", err)
		}
		return absPath, nil
	}

	possiblePath := filepath.Join(backupDir, name)
	if _, err := os.Stat(possiblePath); err == nil {
		return possiblePath, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}
