package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/progresstracker/internal/models"
)

func (s *Store) AddChallenge(c models.Challenge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status := c.Status
	if status == "" {
		status = models.ChallengeActive
	}
	tracking := c.TrackingStyle
	if tracking == "" {
		tracking = models.TrackingSimpleCheck
	}

	var endDate sql.NullString
	if c.EndDate != nil {
		endDate = sql.NullString{String: c.EndDate.Format(time.RFC3339), Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO challenges (id, title, detail, start_date, end_date, status, emoji, tracking_style, daily_target_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Title, c.Detail, c.StartDate.Format(time.RFC3339), endDate,
		string(status), c.Emoji, string(tracking), c.DailyTargetMinutes)
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", err)
	}

	for _, o := range c.Objectives {
		_, err := tx.Exec(`
			INSERT INTO objectives (id, challenge_id, title, target_value, current_value, unit)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID.String(), c.ID.String(), o.Title, o.TargetValue, o.CurrentValue, o.Unit)
		if err != nil {
			return fmt.Errorf("failed to insert objective: %w", err)
		}
		for _, m := range o.Milestones {
			_, err := tx.Exec(`
				INSERT INTO milestones (id, objective_id, title, target_date, is_completed)
				VALUES (?, ?, ?, ?, ?)`,
				m.ID.String(), o.ID.String(), m.Title, m.TargetDate.Format(time.RFC3339), m.IsCompleted)
			if err != nil {
				return fmt.Errorf("failed to insert milestone: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetChallenges returns every challenge with its objectives and milestones,
// ordered by start date.
func (s *Store) GetChallenges() ([]models.Challenge, error) {
	rows, err := s.db.Query(`
		SELECT id, title, detail, start_date, end_date, status, emoji, tracking_style, daily_target_minutes
		FROM challenges ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []models.Challenge
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var c models.Challenge
		var id, startDate, status, tracking string
		var detail, endDate, emoji sql.NullString
		var target sql.NullInt64

		if err := rows.Scan(&id, &c.Title, &detail, &startDate, &endDate, &status, &emoji, &tracking, &target); err != nil {
			return nil, err
		}

		c.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse challenge id: %w", err)
		}
		c.Detail = detail.String
		c.StartDate, err = time.Parse(time.RFC3339, startDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start_date: %w", err)
		}
		if endDate.Valid {
			t, err := time.Parse(time.RFC3339, endDate.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_date: %w", err)
			}
			c.EndDate = &t
		}
		c.Status = models.ChallengeStatus(status)
		if emoji.Valid {
			c.Emoji = &emoji.String
		}
		c.TrackingStyle = models.TrackingStyle(tracking)
		if target.Valid {
			minutes := int(target.Int64)
			c.DailyTargetMinutes = &minutes
		}

		index[c.ID] = len(challenges)
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	objectives, err := s.getObjectives()
	if err != nil {
		return nil, err
	}
	for _, o := range objectives {
		if i, ok := index[o.challengeID]; ok {
			challenges[i].Objectives = append(challenges[i].Objectives, o.Objective)
		}
	}

	return challenges, nil
}

type ownedObjective struct {
	models.Objective
	challengeID uuid.UUID
}

func (s *Store) getObjectives() ([]ownedObjective, error) {
	milestones, err := s.getMilestones()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, challenge_id, title, target_value, current_value, unit
		FROM objectives ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objectives []ownedObjective
	for rows.Next() {
		var o ownedObjective
		var id, challengeID string
		if err := rows.Scan(&id, &challengeID, &o.Title, &o.TargetValue, &o.CurrentValue, &o.Unit); err != nil {
			return nil, err
		}
		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse objective id: %w", err)
		}
		if o.challengeID, err = uuid.Parse(challengeID); err != nil {
			return nil, fmt.Errorf("failed to parse objective challenge_id: %w", err)
		}
		o.Milestones = milestones[o.ID]
		objectives = append(objectives, o)
	}
	return objectives, rows.Err()
}

func (s *Store) getMilestones() (map[uuid.UUID][]models.Milestone, error) {
	rows, err := s.db.Query(`
		SELECT id, objective_id, title, target_date, is_completed
		FROM milestones ORDER BY target_date, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make(map[uuid.UUID][]models.Milestone)
	for rows.Next() {
		var m models.Milestone
		var id, objectiveID, targetDate string
		if err := rows.Scan(&id, &objectiveID, &m.Title, &targetDate, &m.IsCompleted); err != nil {
			return nil, err
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse milestone id: %w", err)
		}
		owner, err := uuid.Parse(objectiveID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse milestone objective_id: %w", err)
		}
		if m.TargetDate, err = time.Parse(time.RFC3339, targetDate); err != nil {
			return nil, fmt.Errorf("failed to parse target_date: %w", err)
		}
		milestones[owner] = append(milestones[owner], m)
	}
	return milestones, rows.Err()
}
