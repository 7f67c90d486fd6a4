package migration

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/progresstracker/internal/logger"
)

// graph is a whole store held in memory as flat rows. Identity and
// relationship columns keep their raw source text; they are validated and
// resolved only when the graph is written to the destination.
type graph struct {
	version    int
	challenges []challengeRow
	objectives []objectiveRow
	milestones []milestoneRow
	entries    []entryRow
}

type challengeRow struct {
	rowID              int64
	id                 sql.NullString
	title              string
	detail             sql.NullString
	startDate          string
	endDate            sql.NullString
	status             string
	emoji              sql.NullString
	trackingStyle      string
	dailyTargetMinutes sql.NullInt64
}

type objectiveRow struct {
	rowID        int64
	id           sql.NullString
	challengeID  sql.NullString
	title        string
	targetValue  float64
	currentValue float64
	unit         string
}

type milestoneRow struct {
	rowID       int64
	id          sql.NullString
	objectiveID sql.NullString
	title       string
	targetDate  string
	isCompleted bool
}

type entryRow struct {
	rowID    int64
	id       sql.NullString
	date     string
	mood     sql.NullString
	editedAt sql.NullString

	// First generation only.
	notes       string
	isCompleted bool
	metrics     string

	details []detailRow
}

type detailRow struct {
	rowID         int64
	id            sql.NullString
	challengeID   string
	isCompleted   bool
	notes         sql.NullString
	photoURLs     []string
	tags          []string
	loggedMinutes int64
}

// readGraph loads every row of a store on the given schema version.
func readGraph(db *sql.DB, version int, report *Report) (*graph, error) {
	g := &graph{version: version}

	var err error
	if g.challenges, err = readChallenges(db, version); err != nil {
		return nil, fmt.Errorf("failed to read challenges: %w", err)
	}
	if g.objectives, err = readObjectives(db); err != nil {
		return nil, fmt.Errorf("failed to read objectives: %w", err)
	}
	if g.milestones, err = readMilestones(db); err != nil {
		return nil, fmt.Errorf("failed to read milestones: %w", err)
	}
	if version == 1 {
		g.entries, err = readFlatEntries(db)
	} else {
		g.entries, err = readEntries(db, version, report)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read daily entries: %w", err)
	}

	return g, nil
}

func readChallenges(db *sql.DB, version int) ([]challengeRow, error) {
	query := `SELECT rowid, id, title, detail, start_date, end_date`
	if version >= 2 {
		query += `, status, emoji`
	}
	if version >= 3 {
		query += `, tracking_style, daily_target_minutes`
	}
	query += ` FROM challenges ORDER BY rowid`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []challengeRow
	for rows.Next() {
		var c challengeRow
		dest := []any{&c.rowID, &c.id, &c.title, &c.detail, &c.startDate, &c.endDate}
		if version >= 2 {
			dest = append(dest, &c.status, &c.emoji)
		}
		if version >= 3 {
			dest = append(dest, &c.trackingStyle, &c.dailyTargetMinutes)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func readObjectives(db *sql.DB) ([]objectiveRow, error) {
	rows, err := db.Query(`
		SELECT rowid, id, challenge_id, title, target_value, current_value, unit
		FROM objectives ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []objectiveRow
	for rows.Next() {
		var o objectiveRow
		if err := rows.Scan(&o.rowID, &o.id, &o.challengeID, &o.title, &o.targetValue, &o.currentValue, &o.unit); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func readMilestones(db *sql.DB) ([]milestoneRow, error) {
	rows, err := db.Query(`
		SELECT rowid, id, objective_id, title, target_date, is_completed
		FROM milestones ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []milestoneRow
	for rows.Next() {
		var m milestoneRow
		if err := rows.Scan(&m.rowID, &m.id, &m.objectiveID, &m.title, &m.targetDate, &m.isCompleted); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func readFlatEntries(db *sql.DB) ([]entryRow, error) {
	rows, err := db.Query(`
		SELECT rowid, id, date, mood, notes, is_completed, metrics
		FROM daily_entries ORDER BY date, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []entryRow
	for rows.Next() {
		var e entryRow
		if err := rows.Scan(&e.rowID, &e.id, &e.date, &e.mood, &e.notes, &e.isCompleted, &e.metrics); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func readEntries(db *sql.DB, version int, report *Report) ([]entryRow, error) {
	rows, err := db.Query(`
		SELECT rowid, id, date, mood, edited_at
		FROM daily_entries ORDER BY date, rowid`)
	if err != nil {
		return nil, err
	}

	var entries []entryRow
	index := make(map[string]int)
	for rows.Next() {
		var e entryRow
		if err := rows.Scan(&e.rowID, &e.id, &e.date, &e.mood, &e.editedAt); err != nil {
			rows.Close()
			return nil, err
		}
		if e.id.Valid {
			index[e.id.String] = len(entries)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query := `SELECT rowid, id, daily_entry_id, challenge_id, is_completed, notes, photo_urls, tags`
	if version >= 3 {
		query += `, logged_minutes`
	}
	query += ` FROM challenge_details ORDER BY daily_entry_id, position, rowid`

	detailRows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer detailRows.Close()

	for detailRows.Next() {
		var d detailRow
		var entryID sql.NullString
		var photos, tags string
		dest := []any{&d.rowID, &d.id, &entryID, &d.challengeID, &d.isCompleted, &d.notes, &photos, &tags}
		if version >= 3 {
			dest = append(dest, &d.loggedMinutes)
		}
		if err := detailRows.Scan(dest...); err != nil {
			return nil, err
		}
		d.photoURLs = decodeList("challenge_details", d.rowID, "photo_urls", photos)
		d.tags = decodeList("challenge_details", d.rowID, "tags", tags)

		i, ok := index[entryID.String]
		if !entryID.Valid || !ok {
			report.skip("challenge_details", d.rowID, "owning daily entry not found")
			continue
		}
		entries[i].details = append(entries[i].details, d)
	}

	return entries, detailRows.Err()
}

// decodeList parses a JSON string array column. A malformed value is logged
// and read as an empty list; the rest of the row is still migrated.
func decodeList(table string, rowID int64, column, raw string) []string {
	list := []string{}
	if raw == "" {
		return list
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.Warn("Malformed list column, migrating as empty", "table", table, "row", rowID, "column", column, "error", err)
		return []string{}
	}
	if list == nil {
		list = []string{}
	}
	return list
}
