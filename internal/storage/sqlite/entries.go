package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/progresstracker/internal/models"
)

// AddDailyEntry inserts an entry and its details in one transaction.
// Detail order is kept through the position column.
func (s *Store) AddDailyEntry(e models.DailyEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var mood, editedAt sql.NullString
	if e.Mood != nil {
		mood = sql.NullString{String: string(*e.Mood), Valid: true}
	}
	if e.EditedAt != nil {
		editedAt = sql.NullString{String: e.EditedAt.Format(time.RFC3339), Valid: true}
	}

	_, err = tx.Exec(`INSERT INTO daily_entries (id, date, mood, edited_at) VALUES (?, ?, ?, ?)`,
		e.ID.String(), e.Date.Format(time.RFC3339), mood, editedAt)
	if err != nil {
		return fmt.Errorf("failed to insert daily entry: %w", err)
	}

	for i, d := range e.ChallengeDetails {
		photos, err := json.Marshal(nonNil(d.PhotoURLs))
		if err != nil {
			return fmt.Errorf("failed to marshal photo urls: %w", err)
		}
		tags, err := json.Marshal(nonNil(d.Tags))
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO challenge_details (id, daily_entry_id, position, challenge_id, is_completed, notes, photo_urls, tags, logged_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID.String(), e.ID.String(), i, d.ChallengeID.String(), d.IsCompleted, d.Notes,
			string(photos), string(tags), d.LoggedMinutes)
		if err != nil {
			return fmt.Errorf("failed to insert challenge detail: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteDailyEntry removes an entry. Its details go with it.
func (s *Store) DeleteDailyEntry(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM daily_entries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete daily entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetDailyEntries returns every entry ordered by date, each with its
// details in position order.
func (s *Store) GetDailyEntries() ([]models.DailyEntry, error) {
	details, err := s.getDetails()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT id, date, mood, edited_at FROM daily_entries ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DailyEntry
	for rows.Next() {
		var e models.DailyEntry
		var id, date string
		var mood, editedAt sql.NullString
		if err := rows.Scan(&id, &date, &mood, &editedAt); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse entry id: %w", err)
		}
		if e.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if mood.Valid {
			m := models.Mood(mood.String)
			e.Mood = &m
		}
		if editedAt.Valid {
			t, err := time.Parse(time.RFC3339, editedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse edited_at: %w", err)
			}
			e.EditedAt = &t
		}
		e.ChallengeDetails = details[e.ID]
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) getDetails() (map[uuid.UUID][]models.ChallengeDetail, error) {
	rows, err := s.db.Query(`
		SELECT id, daily_entry_id, challenge_id, is_completed, notes, photo_urls, tags, logged_minutes
		FROM challenge_details ORDER BY daily_entry_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make(map[uuid.UUID][]models.ChallengeDetail)
	for rows.Next() {
		var d models.ChallengeDetail
		var id, entryID, challengeID, photos, tags string
		var notes sql.NullString
		if err := rows.Scan(&id, &entryID, &challengeID, &d.IsCompleted, &notes, &photos, &tags, &d.LoggedMinutes); err != nil {
			return nil, err
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse detail id: %w", err)
		}
		owner, err := uuid.Parse(entryID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse detail daily_entry_id: %w", err)
		}
		if d.ChallengeID, err = uuid.Parse(challengeID); err != nil {
			return nil, fmt.Errorf("failed to parse detail challenge_id: %w", err)
		}
		if notes.Valid {
			d.Notes = &notes.String
		}
		if err := json.Unmarshal([]byte(photos), &d.PhotoURLs); err != nil {
			return nil, fmt.Errorf("failed to parse photo_urls: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags: %w", err)
		}
		details[owner] = append(details[owner], d)
	}
	return details, rows.Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
