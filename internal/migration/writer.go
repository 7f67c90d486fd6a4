package migration

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// identity validates a row's id column.
func identity(raw sql.NullString) (uuid.UUID, string) {
	if !raw.Valid || raw.String == "" {
		return uuid.Nil, "missing id"
	}
	id, err := uuid.Parse(raw.String)
	if err != nil {
		return uuid.Nil, fmt.Sprintf("malformed id %q", raw.String)
	}
	return id, ""
}

// resolve looks a foreign key up in the id table of the previous stage.
func resolve(ids map[uuid.UUID]uuid.UUID, raw sql.NullString) (uuid.UUID, bool) {
	if !raw.Valid {
		return uuid.Nil, false
	}
	key, err := uuid.Parse(raw.String)
	if err != nil {
		return uuid.Nil, false
	}
	id, ok := ids[key]
	return id, ok
}

// writeGraph inserts g into tx in dependency order. Each stage records the
// ids it inserted, and the next stage resolves its
// foreign keys through that table. Rows whose identity is missing or whose
// parent was not migrated are skipped and reported.
func writeGraph(tx *sql.Tx, g *graph, report *Report) error {
	challengeIDs, err := writeChallenges(tx, g, report)
	if err != nil {
		return err
	}
	objectiveIDs, err := writeObjectives(tx, g, challengeIDs, report)
	if err != nil {
		return err
	}
	if err := writeMilestones(tx, g, objectiveIDs, report); err != nil {
		return err
	}
	return writeEntries(tx, g, report)
}

func writeChallenges(tx *sql.Tx, g *graph, report *Report) (map[uuid.UUID]uuid.UUID, error) {
	query := `INSERT INTO challenges (id, title, detail, start_date, end_date, status, emoji) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if g.version >= 3 {
		query = `INSERT INTO challenges (id, title, detail, start_date, end_date, status, emoji, tracking_style, daily_target_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare challenge insert: %w", err)
	}
	defer stmt.Close()

	ids := make(map[uuid.UUID]uuid.UUID, len(g.challenges))
	for _, c := range g.challenges {
		id, reason := identity(c.id)
		if reason != "" {
			report.skip("challenges", c.rowID, reason)
			continue
		}
		if _, dup := ids[id]; dup {
			report.skip("challenges", c.rowID, "duplicate id")
			continue
		}

		args := []any{id.String(), c.title, c.detail, c.startDate, c.endDate, c.status, c.emoji}
		if g.version >= 3 {
			args = append(args, c.trackingStyle, c.dailyTargetMinutes)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return nil, fmt.Errorf("failed to insert challenge %s: %w", id, err)
		}
		ids[id] = id
		report.Challenges++
	}
	return ids, nil
}

func writeObjectives(tx *sql.Tx, g *graph, challengeIDs map[uuid.UUID]uuid.UUID, report *Report) (map[uuid.UUID]uuid.UUID, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO objectives (id, challenge_id, title, target_value, current_value, unit)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare objective insert: %w", err)
	}
	defer stmt.Close()

	ids := make(map[uuid.UUID]uuid.UUID, len(g.objectives))
	for _, o := range g.objectives {
		id, reason := identity(o.id)
		if reason != "" {
			report.skip("objectives", o.rowID, reason)
			continue
		}
		if _, dup := ids[id]; dup {
			report.skip("objectives", o.rowID, "duplicate id")
			continue
		}
		challengeID, ok := resolve(challengeIDs, o.challengeID)
		if !ok {
			report.skip("objectives", o.rowID, "parent challenge not migrated")
			continue
		}

		if _, err := stmt.Exec(id.String(), challengeID.String(), o.title, o.targetValue, o.currentValue, o.unit); err != nil {
			return nil, fmt.Errorf("failed to insert objective %s: %w", id, err)
		}
		ids[id] = id
		report.Objectives++
	}
	return ids, nil
}

func writeMilestones(tx *sql.Tx, g *graph, objectiveIDs map[uuid.UUID]uuid.UUID, report *Report) error {
	stmt, err := tx.Prepare(`
		INSERT INTO milestones (id, objective_id, title, target_date, is_completed)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare milestone insert: %w", err)
	}
	defer stmt.Close()

	seen := make(map[uuid.UUID]bool, len(g.milestones))
	for _, m := range g.milestones {
		id, reason := identity(m.id)
		if reason != "" {
			report.skip("milestones", m.rowID, reason)
			continue
		}
		if seen[id] {
			report.skip("milestones", m.rowID, "duplicate id")
			continue
		}
		objectiveID, ok := resolve(objectiveIDs, m.objectiveID)
		if !ok {
			report.skip("milestones", m.rowID, "parent objective not migrated")
			continue
		}

		if _, err := stmt.Exec(id.String(), objectiveID.String(), m.title, m.targetDate, m.isCompleted); err != nil {
			return fmt.Errorf("failed to insert milestone %s: %w", id, err)
		}
		seen[id] = true
		report.Milestones++
	}
	return nil
}

func writeEntries(tx *sql.Tx, g *graph, report *Report) error {
	entryStmt, err := tx.Prepare(`INSERT INTO daily_entries (id, date, mood, edited_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer entryStmt.Close()

	detailQuery := `INSERT INTO challenge_details (id, daily_entry_id, position, challenge_id, is_completed, notes, photo_urls, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if g.version >= 3 {
		detailQuery = `INSERT INTO challenge_details (id, daily_entry_id, position, challenge_id, is_completed, notes, photo_urls, tags, logged_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}
	detailStmt, err := tx.Prepare(detailQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare detail insert: %w", err)
	}
	defer detailStmt.Close()

	seenEntries := make(map[uuid.UUID]bool, len(g.entries))
	seenDetails := make(map[uuid.UUID]bool)
	for _, e := range g.entries {
		id, reason := identity(e.id)
		if reason == "" && seenEntries[id] {
			reason = "duplicate id"
		}
		if reason != "" {
			report.skip("daily_entries", e.rowID, reason)
			skipDetails(e, report)
			continue
		}

		if _, err := entryStmt.Exec(id.String(), e.date, e.mood, e.editedAt); err != nil {
			return fmt.Errorf("failed to insert daily entry %s: %w", id, err)
		}
		seenEntries[id] = true
		report.Entries++

		position := 0
		for _, d := range e.details {
			detailID, reason := identity(d.id)
			if reason != "" {
				report.skip("challenge_details", d.rowID, reason)
				continue
			}
			if seenDetails[detailID] {
				report.skip("challenge_details", d.rowID, "duplicate id")
				continue
			}

			photos, err := json.Marshal(d.photoURLs)
			if err != nil {
				return fmt.Errorf("failed to encode photo urls for detail %s: %w", detailID, err)
			}
			tags, err := json.Marshal(d.tags)
			if err != nil {
				return fmt.Errorf("failed to encode tags for detail %s: %w", detailID, err)
			}

			args := []any{detailID.String(), id.String(), position, d.challengeID, d.isCompleted, d.notes, string(photos), string(tags)}
			if g.version >= 3 {
				args = append(args, d.loggedMinutes)
			}
			if _, err := detailStmt.Exec(args...); err != nil {
				return fmt.Errorf("failed to insert detail %s: %w", detailID, err)
			}
			seenDetails[detailID] = true
			position++
			report.Details++
		}
	}
	return nil
}

// skipDetails reports the stored details of a skipped entry. Details fanned
// out of a first-generation entry have no source row and are not reported.
func skipDetails(e entryRow, report *Report) {
	for _, d := range e.details {
		if d.rowID != 0 {
			report.skip("challenge_details", d.rowID, "parent entry not migrated")
		}
	}
}
