package migration

import (
	"database/sql"
	"encoding/json"

	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/models"
)

// upgrade moves an in-memory graph forward by exactly one schema version.
type upgrade func(g *graph)

// upgrades is keyed by the version an upgrade starts from.
var upgrades = map[int]upgrade{
	1: upgradeToV2,
	2: upgradeToV3,
}

// upgradeToV2 introduces challenge status and per-challenge detail records.
// Flat entries fan their metrics out into tagged details.
func upgradeToV2(g *graph) {
	for i := range g.challenges {
		g.challenges[i].status = string(models.ChallengeActive)
		g.challenges[i].emoji = sql.NullString{}
	}

	for i := range g.entries {
		e := &g.entries[i]

		var metrics map[string]float64
		if e.metrics != "" {
			if err := json.Unmarshal([]byte(e.metrics), &metrics); err != nil {
				logger.Warn("Malformed metrics, migrating entry without them", "row", e.rowID, "error", err)
				metrics = nil
			}
		}

		upgraded := models.LegacyEntry{
			Mood:        e.mood.String,
			Notes:       e.notes,
			IsCompleted: e.isCompleted,
			Metrics:     metrics,
		}.Upgrade()

		e.mood = sql.NullString{}
		if upgraded.Mood != nil {
			e.mood = sql.NullString{String: string(*upgraded.Mood), Valid: true}
		}
		e.editedAt = sql.NullString{}
		e.details = make([]detailRow, 0, len(upgraded.ChallengeDetails))
		for _, d := range upgraded.ChallengeDetails {
			row := detailRow{
				id:          sql.NullString{String: d.ID.String(), Valid: true},
				challengeID: d.ChallengeID.String(),
				isCompleted: d.IsCompleted,
				photoURLs:   d.PhotoURLs,
				tags:        d.Tags,
			}
			if d.Notes != nil {
				row.notes = sql.NullString{String: *d.Notes, Valid: true}
			}
			e.details = append(e.details, row)
		}

		e.notes, e.isCompleted, e.metrics = "", false, ""
	}

	g.version = 2
}

// upgradeToV3 introduces tracking styles. Existing challenges become simple
// check-offs with no daily target, and no time has been logged on any detail.
func upgradeToV3(g *graph) {
	for i := range g.challenges {
		g.challenges[i].trackingStyle = string(models.TrackingSimpleCheck)
		g.challenges[i].dailyTargetMinutes = sql.NullInt64{}
	}
	for i := range g.entries {
		for j := range g.entries[i].details {
			g.entries[i].details[j].loggedMinutes = 0
		}
	}

	g.version = 3
}
