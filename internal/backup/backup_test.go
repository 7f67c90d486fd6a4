package backup

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/legacy"
)

func setupTestStore(t *testing.T) string {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "progress.db")
	if err := legacy.WriteV1(storePath, legacy.Generate(2, 1, time.Now())); err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return storePath
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func countEntries(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM daily_entries").Scan(&count); err != nil {
		t.Fatalf("failed to query database: %v", err)
	}
	return count
}

func TestCreateBackup(t *testing.T) {
	storePath := setupTestStore(t)

	mgr := NewManager(storePath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if filepath.Dir(backupPath) != filepath.Join(filepath.Dir(storePath), constants.BackupDirName) {
		t.Errorf("backup written outside the backup directory: %s", backupPath)
	}
	if count := countEntries(t, backupPath); count != 2 {
		t.Errorf("expected 2 entries in backup, got %d", count)
	}

	header, err := compat.ReadHeader(backupPath)
	if err != nil {
		t.Fatalf("failed to read backup header: %v", err)
	}
	if header.ApplicationID != constants.ApplicationID || header.UserVersion != 1 {
		t.Errorf("backup lost its header fingerprint: %+v", header)
	}
}

func TestCreateBackupLeavesPendingWAL(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "progress.db")
	err := legacy.CopyUncheckpointed(setupTestStore(t), storePath, func(db *sql.DB) error {
		_, err := db.Exec(`INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics)
			VALUES (?, '2024-01-01T00:00:00Z', 'good', 'pending', 1, '{}')`, uuid.NewString())
		return err
	})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	primary, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatal(err)
	}
	wal, err := os.ReadFile(storePath + "-wal")
	if err != nil || len(wal) == 0 {
		t.Fatalf("expected a pending write-ahead log (%v)", err)
	}

	backupPath, err := NewManager(storePath).CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if count := countEntries(t, backupPath); count != 3 {
		t.Errorf("expected the pending entry in the backup, got %d entries", count)
	}

	if after, err := os.ReadFile(storePath); err != nil || !bytes.Equal(primary, after) {
		t.Errorf("backup modified the store's primary file (%v)", err)
	}
	if after, err := os.ReadFile(storePath + "-wal"); err != nil || !bytes.Equal(wal, after) {
		t.Errorf("backup modified the store's write-ahead log (%v)", err)
	}
}

func TestCreateBackupMissingStore(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Fatal("expected error backing up a missing store")
	}
}

func TestBackupRotation(t *testing.T) {
	storePath := setupTestStore(t)

	mgr := NewManager(storePath)
	mgr.now = steppingClock()

	for i := 0; i < constants.MaxBackups+3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted correctly: backup %d is newer than backup %d", i, i-1)
		}
	}
}

func TestListBackups(t *testing.T) {
	storePath := setupTestStore(t)
	mgr := NewManager(storePath)

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected 0 backups initially, got %d", len(backups))
	}

	// Same second: names fall back to a counter suffix.
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }
	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}
	if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}

	seen := make(map[string]bool)
	for _, b := range backups {
		if seen[b.Path] {
			t.Errorf("duplicate backup filename: %s", b.Path)
		}
		seen[b.Path] = true
		if !b.Timestamp.Equal(fixed) {
			t.Errorf("expected timestamp %v, got %v", fixed, b.Timestamp)
		}
		if b.Version != 1 {
			t.Errorf("expected schema version 1, got %d", b.Version)
		}
	}
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"progress-20240501-090000.db", true},
		{"progress-20240501-090000-12.db", true},
		{"progress-20240501-0900.db", false},
		{"progress-20240501-090000-x.db", false},
		{"daylit-20240501-090000.db", false},
		{"progress-20240501-090000.db-wal", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseBackupName(tt.name); ok != tt.ok {
				t.Errorf("parseBackupName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}

func TestRestoreBackup(t *testing.T) {
	storePath := setupTestStore(t)
	mgr := NewManager(storePath)
	mgr.now = steppingClock()

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", storePath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	_, err = db.Exec(`INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics)
		VALUES ('1b4e28ba-2fa1-11d2-883f-0016d3cca427', '2030-01-01T00:00:00Z', 'good', '', 0, '{}')`)
	db.Close()
	if err != nil {
		t.Fatalf("failed to insert data: %v", err)
	}
	if count := countEntries(t, storePath); count != 3 {
		t.Fatalf("expected 3 entries before restore, got %d", count)
	}
	if err := os.WriteFile(storePath+constants.WALSuffix, []byte("stale"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if _, err := os.Stat(storePath + constants.WALSuffix); !os.IsNotExist(err) {
		t.Error("expected the old WAL to be removed on restore")
	}
	if count := countEntries(t, storePath); count != 2 {
		t.Errorf("expected 2 entries after restore, got %d", count)
	}
}

func TestRestoreBackupCreatesPreRestoreBackup(t *testing.T) {
	storePath := setupTestStore(t)
	mgr := NewManager(storePath)
	mgr.now = steppingClock()

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("expected 2 backups after restore, got %d", len(backups))
	}
}

func TestVerifyBackup(t *testing.T) {
	storePath := setupTestStore(t)
	mgr := NewManager(storePath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if err := mgr.verifyBackup(backupPath); err != nil {
		t.Errorf("verifyBackup failed for valid backup: %v", err)
	}

	invalid := filepath.Join(t.TempDir(), "invalid.db")
	if err := os.WriteFile(invalid, []byte("not a database"), 0600); err != nil {
		t.Fatalf("failed to create invalid file: %v", err)
	}
	if err := mgr.verifyBackup(invalid); !errors.Is(err, compat.ErrMetadataUnreadable) {
		t.Errorf("expected ErrMetadataUnreadable for invalid file, got %v", err)
	}

	foreign := filepath.Join(t.TempDir(), "foreign.db")
	db, err := sql.Open("sqlite", foreign)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec("CREATE TABLE t (id INTEGER)")
	db.Close()
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.verifyBackup(foreign); !errors.Is(err, compat.ErrForeignStore) {
		t.Errorf("expected ErrForeignStore, got %v", err)
	}
}
