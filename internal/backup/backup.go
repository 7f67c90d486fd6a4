package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/storage"
)

const timestampFormat = "20060102-150405"

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
	// Version is the schema version stamped in the backup, 0 if unreadable.
	Version int
}

// Manager handles backup operations
type Manager struct {
	storePath string
	backupDir string
	now       func() time.Time
}

// NewManager creates a backup manager for the store at storePath. Backups
// live in a directory next to the store.
func NewManager(storePath string) *Manager {
	return &Manager{
		storePath: storePath,
		backupDir: filepath.Join(filepath.Dir(storePath), constants.BackupDirName),
		now:       time.Now,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup snapshots the store and rotates old backups.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// skipRotation is set during restore so the pre-restore snapshot cannot evict
// the backup being restored.
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	if !storage.Exists(m.storePath) {
		return "", fmt.Errorf("store does not exist: %s", m.storePath)
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	if err := m.snapshot(backupPath); err != nil {
		return "", fmt.Errorf("failed to backup store: %w", err)
	}
	logger.Info("Store backed up", "path", backupPath)

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	return backupPath, nil
}

func (m *Manager) nextBackupPath() (string, error) {
	timestamp := m.now().Format(timestampFormat)
	name := constants.BackupFilePrefix + timestamp + constants.BackupFileSuffix
	path := filepath.Join(m.backupDir, name)

	for counter := 1; storage.Exists(path); counter++ {
		if counter > 100 {
			return "", errors.New("failed to generate unique backup filename")
		}
		name = fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, timestamp, counter, constants.BackupFileSuffix)
		path = filepath.Join(m.backupDir, name)
	}
	return path, nil
}

// snapshot writes a self-contained copy of the store, WAL contents included.
// VACUUM INTO carries user_version and application_id across, so a backup is
// classified exactly like the store it came from. The store is read through a
// read-only connection, so its triplet is left untouched.
func (m *Manager) snapshot(destPath string) error {
	src, err := sql.Open("sqlite", storage.ReadOnlyDSN(m.storePath))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer src.Close()

	var count int
	if err := src.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("store appears to be corrupted: %w", err)
	}

	if _, err := src.Exec("VACUUM INTO ?", destPath); err != nil {
		os.Remove(destPath)
		return err
	}
	return nil
}

// ListBackups returns all available backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		timestamp, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(m.backupDir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		backup := BackupInfo{Path: path, Timestamp: timestamp, Size: info.Size()}
		if header, err := compat.ReadHeader(path); err == nil {
			backup.Version = header.UserVersion
		}
		backups = append(backups, backup)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// parseBackupName accepts progress-YYYYMMDD-HHMMSS.db with an optional -N
// counter before the suffix.
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	if len(stamp) > len(timestampFormat) {
		counter, ok := strings.CutPrefix(stamp[len(timestampFormat):], "-")
		if !ok {
			return time.Time{}, false
		}
		if _, err := strconv.Atoi(counter); err != nil {
			return time.Time{}, false
		}
		stamp = stamp[:len(timestampFormat)]
	}

	timestamp, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return timestamp, true
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
		logger.Debug("Rotated backup", "path", backups[i].Path)
	}

	return nil
}

// RestoreBackup replaces the store with a backup. The current store, if any,
// is backed up first. The restored file may be on an older schema; the next
// bootstrap migrates it.
func (m *Manager) RestoreBackup(backupPath string) error {
	if !storage.Exists(backupPath) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	if err := m.verifyBackup(backupPath); err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if storage.Exists(m.storePath) {
		currentBackup, err := m.createBackup(true)
		if err != nil {
			return fmt.Errorf("failed to backup current store before restore: %w", err)
		}
		logger.Info("Backed up current store before restore", "path", currentBackup)
	}

	tempPath := m.storePath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to copy backup file: %w", err)
	}

	// A WAL left next to the store would be replayed onto the restored file.
	if err := storage.RemoveAll(m.storePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to remove current store: %w", err)
	}

	if err := os.Rename(tempPath, m.storePath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore store: %w", err)
	}

	logger.Info("Store restored", "from", backupPath)
	return nil
}

// verifyBackup checks that path is a readable SQLite file belonging to this
// application.
func (m *Manager) verifyBackup(path string) error {
	header, err := compat.ReadHeader(path)
	if err != nil {
		return err
	}
	if header.ApplicationID != constants.ApplicationID {
		return compat.ErrForeignStore
	}

	db, err := sql.Open("sqlite", storage.ReadOnlyDSN(path))
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
