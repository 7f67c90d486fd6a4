// Package legacy writes stores in the older schema generations. The bootstrap
// and migration tests build their fixtures with it, and the seed command uses
// it to produce a store to practise migrations on.
package legacy

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/progresstracker/internal/models"
	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
)

// Fixture is the content of a first-generation store.
type Fixture struct {
	Challenges []models.Challenge
	Entries    []models.LegacyEntry
}

// Generate builds a fixture with one challenge (one objective, one milestone)
// and entryCount daily entries, one day apart from start. Each entry carries
// metricsPerEntry metrics.
func Generate(entryCount, metricsPerEntry int, start time.Time) Fixture {
	start = start.UTC().Truncate(time.Second)
	end := start.AddDate(0, 0, entryCount)
	challenge := models.Challenge{
		ID:        uuid.New(),
		Title:     "Focus",
		Detail:    "Test",
		StartDate: start,
		EndDate:   &end,
		Objectives: []models.Objective{{
			ID:          uuid.New(),
			Title:       "Deep work",
			TargetValue: 100,
			Unit:        "hrs",
			Milestones: []models.Milestone{{
				ID:         uuid.New(),
				Title:      "First 10 hours",
				TargetDate: start.AddDate(0, 0, 7),
			}},
		}},
	}

	metricNames := []string{"Focus (hrs)", "Exercise (mins)", "Reading (pages)", "Water (l)", "Sleep (hrs)"}
	entries := make([]models.LegacyEntry, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		metrics := make(map[string]float64, metricsPerEntry)
		for m := 0; m < metricsPerEntry; m++ {
			name := fmt.Sprintf("Metric %d", m+1)
			if m < len(metricNames) {
				name = metricNames[m]
			}
			metrics[name] = float64((m + 1) * (i + 1))
		}
		entries = append(entries, models.LegacyEntry{
			ID:          uuid.New(),
			Date:        start.AddDate(0, 0, i),
			Mood:        string(models.MoodGood),
			Notes:       fmt.Sprintf("Notes %d", i),
			IsCompleted: true,
			Metrics:     metrics,
		})
	}

	return Fixture{Challenges: []models.Challenge{challenge}, Entries: entries}
}

// Create makes an empty store on the given schema version at path. The
// caller owns the returned handle.
func Create(path string, version int) (*sql.DB, error) {
	model, err := schema.LoadVersion(version)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("store already exists at %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := model.Apply(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// WriteV1 creates a first-generation store at path holding f.
func WriteV1(path string, f Fixture) error {
	db, err := Create(path, 1)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertChallengeTree(tx, f.Challenges, false); err != nil {
		return err
	}

	for _, entry := range f.Entries {
		metrics := entry.Metrics
		if metrics == nil {
			metrics = map[string]float64{}
		}
		raw, err := json.Marshal(metrics)
		if err != nil {
			return fmt.Errorf("failed to encode metrics for entry %s: %w", entry.ID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO daily_entries (id, date, mood, notes, is_completed, metrics)
			VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID.String(), entry.Date.Format(time.RFC3339), entry.Mood, entry.Notes,
			entry.IsCompleted, string(raw)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// WriteV2 creates a second-generation store at path holding the given
// challenges and entries.
func WriteV2(path string, challenges []models.Challenge, entries []models.DailyEntry) error {
	db, err := Create(path, 2)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertChallengeTree(tx, challenges, true); err != nil {
		return err
	}

	for _, entry := range entries {
		var mood, editedAt any
		if entry.Mood != nil {
			mood = string(*entry.Mood)
		}
		if entry.EditedAt != nil {
			editedAt = entry.EditedAt.Format(time.RFC3339)
		}
		if _, err := tx.Exec(`INSERT INTO daily_entries (id, date, mood, edited_at) VALUES (?, ?, ?, ?)`,
			entry.ID.String(), entry.Date.Format(time.RFC3339), mood, editedAt); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
		for pos, detail := range entry.ChallengeDetails {
			photos, err := json.Marshal(nonNil(detail.PhotoURLs))
			if err != nil {
				return err
			}
			tags, err := json.Marshal(nonNil(detail.Tags))
			if err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT INTO challenge_details (id, daily_entry_id, position, challenge_id, is_completed, notes, photo_urls, tags)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				detail.ID.String(), entry.ID.String(), pos, detail.ChallengeID.String(),
				detail.IsCompleted, detail.Notes, string(photos), string(tags)); err != nil {
				return fmt.Errorf("failed to insert detail %s: %w", detail.ID, err)
			}
		}
	}

	return tx.Commit()
}

func insertChallengeTree(tx *sql.Tx, challenges []models.Challenge, withStatus bool) error {
	for _, c := range challenges {
		var endDate any
		if c.EndDate != nil {
			endDate = c.EndDate.Format(time.RFC3339)
		}
		var err error
		if withStatus {
			status := c.Status
			if status == "" {
				status = models.ChallengeActive
			}
			_, err = tx.Exec(`
				INSERT INTO challenges (id, title, detail, start_date, end_date, status, emoji)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.ID.String(), c.Title, c.Detail, c.StartDate.Format(time.RFC3339), endDate, string(status), c.Emoji)
		} else {
			_, err = tx.Exec(`
				INSERT INTO challenges (id, title, detail, start_date, end_date)
				VALUES (?, ?, ?, ?, ?)`,
				c.ID.String(), c.Title, c.Detail, c.StartDate.Format(time.RFC3339), endDate)
		}
		if err != nil {
			return fmt.Errorf("failed to insert challenge %s: %w", c.ID, err)
		}

		for _, o := range c.Objectives {
			if _, err := tx.Exec(`
				INSERT INTO objectives (id, challenge_id, title, target_value, current_value, unit)
				VALUES (?, ?, ?, ?, ?, ?)`,
				o.ID.String(), c.ID.String(), o.Title, o.TargetValue, o.CurrentValue, o.Unit); err != nil {
				return fmt.Errorf("failed to insert objective %s: %w", o.ID, err)
			}
			for _, m := range o.Milestones {
				if _, err := tx.Exec(`
					INSERT INTO milestones (id, objective_id, title, target_date, is_completed)
					VALUES (?, ?, ?, ?, ?)`,
					m.ID.String(), o.ID.String(), m.Title, m.TargetDate.Format(time.RFC3339), m.IsCompleted); err != nil {
					return fmt.Errorf("failed to insert milestone %s: %w", m.ID, err)
				}
			}
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CopyUncheckpointed opens the store at src in WAL mode with automatic
// checkpoints off, runs write on it and copies the triplet to dst while the
// connection is still open. The copy holds write's changes only in its
// write-ahead log, the way a store is left when its process dies.
func CopyUncheckpointed(src, dst string, write func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", src+"?_pragma=journal_mode(WAL)&_pragma=wal_autocheckpoint(0)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := write(db); err != nil {
		return err
	}

	from, to := storage.SideFiles(src), storage.SideFiles(dst)
	for i := range from {
		if err := copyFile(from[i], to[i]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to copy %s: %w", from[i], err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
