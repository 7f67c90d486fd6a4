package migration

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/legacy"
	"github.com/julianstephens/progresstracker/internal/models"
	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
	"github.com/julianstephens/progresstracker/schemas"
)

func makeTemporaryStorePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

func buildLegacyStore(t *testing.T, path string, entryCount, metricsPerEntry int) legacy.Fixture {
	t.Helper()
	f := legacy.Generate(entryCount, metricsPerEntry, time.Now())
	if err := legacy.WriteV1(path, f); err != nil {
		t.Fatalf("failed to build legacy store: %v", err)
	}
	return f
}

func openStore(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open migrated store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func queryInt(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("query %q failed: %v", query, err)
	}
	return n
}

func mustMigrate(t *testing.T, path string, from int) *Report {
	t.Helper()
	report, err := NewMigrator().Migrate(path, from)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return report
}

func TestMigrationFromEmptyStore(t *testing.T) {
	path := makeTemporaryStorePath(t, "Empty")
	if err := legacy.WriteV1(path, legacy.Fixture{}); err != nil {
		t.Fatalf("failed to build legacy store: %v", err)
	}

	report := mustMigrate(t, path, 1)

	if report.Entries != 0 || report.Challenges != 0 || report.Details != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	db := openStore(t, path)
	if n := queryInt(t, db, "SELECT COUNT(*) FROM daily_entries"); n != 0 {
		t.Errorf("expected 0 entries, got %d", n)
	}
	if v := queryInt(t, db, "PRAGMA user_version"); v != schema.Latest {
		t.Errorf("expected user_version %d, got %d", schema.Latest, v)
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM pragma_table_info('challenge_details') WHERE name = 'logged_minutes'"); n != 1 {
		t.Error("expected migrated store to carry the current challenge_details shape")
	}
}

func TestMigrationFromSingleEntry(t *testing.T) {
	path := makeTemporaryStorePath(t, "Single")
	f := buildLegacyStore(t, path, 1, 2)

	mustMigrate(t, path, 1)

	db := openStore(t, path)
	if n := queryInt(t, db, "SELECT COUNT(*) FROM daily_entries"); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM challenge_details WHERE daily_entry_id = ?", f.Entries[0].ID.String()); n != 2 {
		t.Errorf("expected 2 details, got %d", n)
	}

	var status string
	var emoji sql.NullString
	if err := db.QueryRow("SELECT status, emoji FROM challenges").Scan(&status, &emoji); err != nil {
		t.Fatalf("failed to read challenge: %v", err)
	}
	if status != string(models.ChallengeActive) {
		t.Errorf("expected status active, got %q", status)
	}
	if emoji.Valid {
		t.Errorf("expected nil emoji, got %q", emoji.String)
	}
}

func TestMigrationFromLargeStore(t *testing.T) {
	path := makeTemporaryStorePath(t, "Large")
	buildLegacyStore(t, path, 150, 2)

	report := mustMigrate(t, path, 1)

	db := openStore(t, path)
	if n := queryInt(t, db, "SELECT COUNT(*) FROM daily_entries"); n != 150 {
		t.Errorf("expected 150 entries, got %d", n)
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM challenge_details"); n != 150*2 {
		t.Errorf("expected %d details, got %d", 150*2, n)
	}
	if report.Entries != 150 || report.Details != 300 {
		t.Errorf("unexpected report counts: %+v", report)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("expected no skipped rows, got %v", report.Skipped)
	}
}

func TestMigrationEntriesWithoutMetrics(t *testing.T) {
	path := makeTemporaryStorePath(t, "NoMetrics")
	f := buildLegacyStore(t, path, 12, 0)

	mustMigrate(t, path, 1)

	db := openStore(t, path)
	if n := queryInt(t, db, "SELECT COUNT(*) FROM daily_entries"); n != len(f.Entries) {
		t.Fatalf("expected %d entries, got %d", len(f.Entries), n)
	}
	for _, e := range f.Entries {
		var count int
		var notes sql.NullString
		var tags string
		var completed bool
		err := db.QueryRow(`
			SELECT COUNT(*), MAX(notes), MAX(tags), MAX(is_completed)
			FROM challenge_details WHERE daily_entry_id = ?`, e.ID.String()).Scan(&count, &notes, &tags, &completed)
		if err != nil {
			t.Fatalf("failed to read details for %s: %v", e.ID, err)
		}
		if count != 1 {
			t.Errorf("entry %s: expected exactly 1 detail, got %d", e.ID, count)
		}
		if !notes.Valid || notes.String != e.Notes {
			t.Errorf("entry %s: expected notes %q, got %v", e.ID, e.Notes, notes)
		}
		if tags != "[]" {
			t.Errorf("entry %s: expected no tags, got %s", e.ID, tags)
		}
		if !completed {
			t.Errorf("entry %s: expected completion flag to be carried", e.ID)
		}
	}
}

func TestMigrationMetricFanOut(t *testing.T) {
	const metricsPerEntry = 3
	path := makeTemporaryStorePath(t, "FanOut")
	f := buildLegacyStore(t, path, 20, metricsPerEntry)

	mustMigrate(t, path, 1)

	db := openStore(t, path)
	for _, e := range f.Entries {
		rows, err := db.Query(`
			SELECT position, notes, tags FROM challenge_details
			WHERE daily_entry_id = ? ORDER BY position`, e.ID.String())
		if err != nil {
			t.Fatalf("failed to query details: %v", err)
		}

		var positions int
		for rows.Next() {
			var position int
			var notes sql.NullString
			var tags string
			if err := rows.Scan(&position, &notes, &tags); err != nil {
				rows.Close()
				t.Fatalf("failed to scan detail: %v", err)
			}
			if position == 0 {
				if !notes.Valid || notes.String != e.Notes {
					t.Errorf("entry %s: first detail should carry notes %q, got %v", e.ID, e.Notes, notes)
				}
			} else if notes.Valid {
				t.Errorf("entry %s: detail %d should have nil notes, got %q", e.ID, position, notes.String)
			}
			if !bytes.HasPrefix([]byte(tags), []byte(`["metric|`)) {
				t.Errorf("entry %s: detail %d has unexpected tags %s", e.ID, position, tags)
			}
			positions++
		}
		rows.Close()

		if positions != metricsPerEntry {
			t.Errorf("entry %s: expected %d details, got %d", e.ID, metricsPerEntry, positions)
		}
	}
}

func TestMigrationPreservesIdentityAndTree(t *testing.T) {
	path := makeTemporaryStorePath(t, "Identity")
	f := buildLegacyStore(t, path, 5, 1)

	report := mustMigrate(t, path, 1)

	db := openStore(t, path)
	challenge := f.Challenges[0]
	objective := challenge.Objectives[0]
	milestone := objective.Milestones[0]

	if n := queryInt(t, db, "SELECT COUNT(*) FROM challenges WHERE id = ?", challenge.ID.String()); n != 1 {
		t.Error("expected challenge id to be preserved")
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM objectives WHERE id = ? AND challenge_id = ?", objective.ID.String(), challenge.ID.String()); n != 1 {
		t.Error("expected objective to be linked to its challenge")
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM milestones WHERE id = ? AND objective_id = ?", milestone.ID.String(), objective.ID.String()); n != 1 {
		t.Error("expected milestone to be linked to its objective")
	}
	for _, e := range f.Entries {
		if n := queryInt(t, db, "SELECT COUNT(*) FROM daily_entries WHERE id = ? AND edited_at IS NULL AND mood = 'good'", e.ID.String()); n != 1 {
			t.Errorf("expected entry %s to be preserved with mood and nil editedAt", e.ID)
		}
	}
	if report.Objectives != 1 || report.Milestones != 1 {
		t.Errorf("unexpected tree counts: %+v", report)
	}

	var tracking string
	var target sql.NullInt64
	if err := db.QueryRow("SELECT tracking_style, daily_target_minutes FROM challenges").Scan(&tracking, &target); err != nil {
		t.Fatalf("failed to read tracking columns: %v", err)
	}
	if tracking != string(models.TrackingSimpleCheck) || target.Valid {
		t.Errorf("expected simpleCheck with no target, got %q / %v", tracking, target)
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM challenge_details WHERE logged_minutes <> 0"); n != 0 {
		t.Errorf("expected no logged minutes, got %d details with minutes", n)
	}
}

func TestMigrationToIntermediateVersion(t *testing.T) {
	path := makeTemporaryStorePath(t, "V2")
	buildLegacyStore(t, path, 4, 2)

	m := NewMigrator()
	m.Target = 2
	report, err := m.Migrate(path, 1)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	db := openStore(t, path)
	if v := queryInt(t, db, "PRAGMA user_version"); v != 2 {
		t.Errorf("expected user_version 2, got %d", v)
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM pragma_table_info('challenges') WHERE name = 'tracking_style'"); n != 0 {
		t.Error("second-generation store must not carry tracking_style")
	}
	if report.Details != 8 {
		t.Errorf("expected 8 details, got %d", report.Details)
	}
}

func TestMigrationFromSecondGeneration(t *testing.T) {
	path := makeTemporaryStorePath(t, "FromV2")
	f := legacy.Generate(3, 2, time.Now())
	emoji := "🔥"
	f.Challenges[0].Status = models.ChallengeArchived
	f.Challenges[0].Emoji = &emoji

	var entries []models.DailyEntry
	for _, e := range f.Entries {
		entries = append(entries, e.Upgrade())
	}
	edited := time.Now().UTC().Truncate(time.Second)
	entries[0].EditedAt = &edited
	entries[0].ChallengeDetails[0].PhotoURLs = []string{"file:///photos/a.jpg", "file:///photos/b.jpg"}

	if err := legacy.WriteV2(path, f.Challenges, entries); err != nil {
		t.Fatalf("failed to build second-generation store: %v", err)
	}

	report := mustMigrate(t, path, 2)
	if report.Entries != 3 || report.Details != 6 {
		t.Errorf("unexpected counts: %+v", report)
	}

	db := openStore(t, path)
	var status string
	var gotEmoji sql.NullString
	if err := db.QueryRow("SELECT status, emoji FROM challenges").Scan(&status, &gotEmoji); err != nil {
		t.Fatalf("failed to read challenge: %v", err)
	}
	if status != string(models.ChallengeArchived) || gotEmoji.String != emoji {
		t.Errorf("expected status and emoji to be carried, got %q / %v", status, gotEmoji)
	}

	for _, e := range entries {
		for pos, d := range e.ChallengeDetails {
			var position, minutes int
			var challengeID string
			err := db.QueryRow(`
				SELECT position, challenge_id, logged_minutes FROM challenge_details
				WHERE id = ? AND daily_entry_id = ?`, d.ID.String(), e.ID.String()).Scan(&position, &challengeID, &minutes)
			if err != nil {
				t.Fatalf("detail %s not preserved: %v", d.ID, err)
			}
			if position != pos || challengeID != d.ChallengeID.String() || minutes != 0 {
				t.Errorf("detail %s: got position %d challenge %s minutes %d", d.ID, position, challengeID, minutes)
			}
		}
	}

	var photos string
	var editedAt sql.NullString
	if err := db.QueryRow("SELECT photo_urls FROM challenge_details WHERE id = ?", entries[0].ChallengeDetails[0].ID.String()).Scan(&photos); err != nil {
		t.Fatalf("failed to read photos: %v", err)
	}
	if photos != `["file:///photos/a.jpg","file:///photos/b.jpg"]` {
		t.Errorf("expected photo order to be preserved, got %s", photos)
	}
	if err := db.QueryRow("SELECT edited_at FROM daily_entries WHERE id = ?", entries[0].ID.String()).Scan(&editedAt); err != nil {
		t.Fatalf("failed to read edited_at: %v", err)
	}
	if !editedAt.Valid {
		t.Error("expected editedAt to be carried from the second generation")
	}
}

func TestMigrationSkipsMalformedRows(t *testing.T) {
	path := makeTemporaryStorePath(t, "Malformed")
	f := buildLegacyStore(t, path, 3, 1)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open legacy store: %v", err)
	}
	orphanObjective := uuid.NewString()
	stmts := []string{
		`INSERT INTO challenges (id, title, start_date) VALUES (NULL, 'no id', '2024-01-01T00:00:00Z')`,
		`INSERT INTO challenges (id, title, start_date) VALUES ('not-a-uuid', 'bad id', '2024-01-01T00:00:00Z')`,
		`INSERT INTO objectives (id, challenge_id, title) VALUES ('` + orphanObjective + `', 'not-a-uuid', 'orphan')`,
		`INSERT INTO milestones (id, objective_id, title, target_date) VALUES ('` + uuid.NewString() + `', '` + orphanObjective + `', 'orphan', '2024-01-01T00:00:00Z')`,
		`INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics) VALUES (NULL, '2024-01-01T00:00:00Z', 'good', 'lost', 1, '{}')`,
		`INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics) VALUES ('', '2024-01-02T00:00:00Z', 'good', 'lost', 1, '{}')`,
		`INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics) VALUES ('` + uuid.NewString() + `', '2024-01-03T00:00:00Z', 'good', 'kept', 1, 'not json')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			t.Fatalf("failed to insert malformed row: %v", err)
		}
	}
	db.Close()

	report := mustMigrate(t, path, 1)

	if len(report.Skipped) != 6 {
		t.Errorf("expected 6 skipped rows, got %d: %v", len(report.Skipped), report.Skipped)
	}
	for _, skipped := range report.Skipped {
		if !errors.Is(skipped, ErrRowSkipped) {
			t.Errorf("expected skipped row error to wrap ErrRowSkipped: %v", skipped)
		}
	}

	migrated := openStore(t, path)
	if n := queryInt(t, migrated, "SELECT COUNT(*) FROM challenges"); n != len(f.Challenges) {
		t.Errorf("expected %d challenges, got %d", len(f.Challenges), n)
	}
	if n := queryInt(t, migrated, "SELECT COUNT(*) FROM daily_entries"); n != len(f.Entries)+1 {
		t.Errorf("expected %d entries, got %d", len(f.Entries)+1, n)
	}
	var notes string
	if err := migrated.QueryRow(`
		SELECT d.notes FROM challenge_details d JOIN daily_entries e ON e.id = d.daily_entry_id
		WHERE e.date = '2024-01-03T00:00:00Z'`).Scan(&notes); err != nil {
		t.Fatalf("entry with malformed metrics was not migrated: %v", err)
	}
	if notes != "kept" {
		t.Errorf("expected notes %q, got %q", "kept", notes)
	}
}

// insertPendingEntry adds one first-generation entry, which the copy made by
// legacy.CopyUncheckpointed only holds in its write-ahead log.
func insertPendingEntry(db *sql.DB) error {
	_, err := db.Exec(`INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics)
		VALUES (?, '2030-01-01T00:00:00Z', 'good', 'pending', 1, '{"Focus (hrs)": 1}')`, uuid.NewString())
	return err
}

func TestMigrationReportsDetailsOfSkippedEntries(t *testing.T) {
	path := makeTemporaryStorePath(t, "SkippedEntry")
	f := legacy.Generate(2, 1, time.Now())
	var entries []models.DailyEntry
	for _, e := range f.Entries {
		entries = append(entries, e.Upgrade())
	}
	if err := legacy.WriteV2(path, f.Challenges, entries); err != nil {
		t.Fatalf("failed to build second-generation store: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	stmts := []string{
		`INSERT INTO daily_entries (id, date) VALUES ('not-a-uuid', '2024-02-01T00:00:00Z')`,
		`INSERT INTO challenge_details (id, daily_entry_id, position, challenge_id) VALUES ('` + uuid.NewString() + `', 'not-a-uuid', 0, '` + uuid.NewString() + `')`,
		`INSERT INTO challenge_details (id, daily_entry_id, position, challenge_id) VALUES ('` + uuid.NewString() + `', 'not-a-uuid', 1, '` + uuid.NewString() + `')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			t.Fatalf("failed to insert malformed row: %v", err)
		}
	}
	db.Close()

	report := mustMigrate(t, path, 2)

	skipped := make(map[string]int)
	for _, s := range report.Skipped {
		skipped[s.Table]++
	}
	if skipped["daily_entries"] != 1 || skipped["challenge_details"] != 2 || len(report.Skipped) != 3 {
		t.Errorf("expected the entry and both of its details to be reported, got %v", report.Skipped)
	}
	if report.Entries != 2 || report.Details != 2 {
		t.Errorf("unexpected counts: %+v", report)
	}
}

func TestMigrationTempStoreUnavailableLeavesOriginal(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, path string)
	}{
		{
			name: "rollback journal",
			build: func(t *testing.T, path string) {
				buildLegacyStore(t, path, 10, 2)
			},
		},
		{
			name: "pending write-ahead log",
			build: func(t *testing.T, path string) {
				live := makeTemporaryStorePath(t, "Live")
				buildLegacyStore(t, live, 10, 2)
				if err := legacy.CopyUncheckpointed(live, path, insertPendingEntry); err != nil {
					t.Fatalf("failed to copy live store: %v", err)
				}
				if !storage.PendingWAL(path) {
					t.Fatal("expected the copy to carry a pending write-ahead log")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := makeTemporaryStorePath(t, "DiskFull")
			tt.build(t, path)

			// -shm is a rebuildable index and may be touched by any reader.
			files := []string{path, path + "-wal"}
			before := make(map[string][]byte)
			for _, file := range files {
				data, err := os.ReadFile(file)
				if err != nil && !os.IsNotExist(err) {
					t.Fatalf("failed to read %s: %v", file, err)
				}
				before[file] = data
			}

			m := NewMigrator()
			m.TempPath = func(string) string {
				return filepath.Join(t.TempDir(), "missing", "dir", "store.db")
			}
			if _, err := m.Migrate(path, 1); err == nil {
				t.Fatal("expected migration to fail when the temporary store cannot be created")
			}

			for _, file := range files {
				after, err := os.ReadFile(file)
				if before[file] == nil {
					if !os.IsNotExist(err) {
						t.Errorf("%s appeared after a failed migration", file)
					}
					continue
				}
				if err != nil {
					t.Fatalf("%s is gone after a failed migration: %v", file, err)
				}
				if !bytes.Equal(before[file], after) {
					t.Errorf("%s changed after a failed migration", file)
				}
			}
		})
	}
}

func TestMigrationReadsPendingWAL(t *testing.T) {
	live := makeTemporaryStorePath(t, "Live")
	path := makeTemporaryStorePath(t, "Pending")
	buildLegacyStore(t, live, 10, 2)
	if err := legacy.CopyUncheckpointed(live, path, insertPendingEntry); err != nil {
		t.Fatalf("failed to copy live store: %v", err)
	}

	report := mustMigrate(t, path, 1)
	if report.Entries != 11 || report.Details != 21 {
		t.Errorf("expected 11 entries and 21 details, got %+v", report)
	}
	db := openStore(t, path)
	if n := queryInt(t, db, "SELECT COUNT(*) FROM challenge_details WHERE notes = 'pending'"); n != 1 {
		t.Errorf("expected the pending entry to be migrated, got %d details", n)
	}
}

func TestMigrationSchemaUnavailable(t *testing.T) {
	path := makeTemporaryStorePath(t, "NoSchema")
	buildLegacyStore(t, path, 2, 1)
	before, _ := os.ReadFile(path)

	model1, err := schemas.FS.ReadFile("model_1.sql")
	if err != nil {
		t.Fatalf("failed to read bundled schema: %v", err)
	}
	m := NewMigrator()
	m.Loader = schema.NewLoader(fstest.MapFS{
		"model_1.sql": &fstest.MapFile{Data: model1},
	})

	_, err = m.Migrate(path, 1)
	if !errors.Is(err, schema.ErrSchemaUnavailable) {
		t.Fatalf("expected ErrSchemaUnavailable, got %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("original store changed although the schema could not be resolved")
	}
	if storage.Exists(DefaultTempPath(path)) {
		t.Error("temporary store should not have been created")
	}
}

func TestMigrationReplacesStaleTempFiles(t *testing.T) {
	path := makeTemporaryStorePath(t, "Stale")
	buildLegacyStore(t, path, 2, 1)

	temp := DefaultTempPath(path)
	for _, file := range storage.SideFiles(temp) {
		if err := os.WriteFile(file, []byte("left over from a crash"), 0600); err != nil {
			t.Fatalf("failed to write stale file: %v", err)
		}
	}

	mustMigrate(t, path, 1)

	for _, file := range storage.SideFiles(temp) {
		if _, err := os.Stat(file); !os.IsNotExist(err) {
			t.Errorf("expected %s to be gone after migration", file)
		}
	}
	db := openStore(t, path)
	if n := queryInt(t, db, "SELECT COUNT(*) FROM daily_entries"); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
}

func TestMigrationRemovesOriginalSideFiles(t *testing.T) {
	path := makeTemporaryStorePath(t, "SideFiles")
	buildLegacyStore(t, path, 2, 1)
	if err := os.WriteFile(path+"-shm", []byte("old shm"), 0600); err != nil {
		t.Fatalf("failed to write side file: %v", err)
	}

	mustMigrate(t, path, 1)

	if data, err := os.ReadFile(path + "-shm"); err == nil && string(data) == "old shm" {
		t.Error("original shared-memory file survived the swap")
	}
}

func TestMigrateNothingToDo(t *testing.T) {
	path := makeTemporaryStorePath(t, "Current")
	_, err := NewMigrator().Migrate(path, schema.Latest)
	if !errors.Is(err, ErrNothingToMigrate) {
		t.Fatalf("expected ErrNothingToMigrate, got %v", err)
	}
	if storage.Exists(path) {
		t.Error("no store should have been created")
	}
}

func TestReplaceFailureLeavesStoreAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	if err := os.WriteFile(path, []byte("original"), 0600); err != nil {
		t.Fatalf("failed to write store: %v", err)
	}

	err := Replace(filepath.Join(dir, "never-written.db"), path)
	if !errors.Is(err, ErrReplaceFailure) {
		t.Fatalf("expected ErrReplaceFailure, got %v", err)
	}
	if storage.Exists(path) {
		t.Error("expected the store to be absent after a failed move")
	}
}

func TestUpgradeStepsCoverEveryVersion(t *testing.T) {
	for v := 1; v < schema.Latest; v++ {
		if upgrades[v] == nil {
			t.Errorf("no upgrade step from version %d", v)
		}
	}
}
