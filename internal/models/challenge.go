package models

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeActive   ChallengeStatus = "active"
	ChallengeArchived ChallengeStatus = "archived"
	ChallengeDeleted  ChallengeStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeActive, ChallengeArchived, ChallengeDeleted:
		return true
	}
	return false
}

// TrackingStyle controls how daily progress on a challenge is recorded.
type TrackingStyle string

const (
	TrackingSimpleCheck TrackingStyle = "simpleCheck"
	TrackingTrackTime   TrackingStyle = "trackTime"
)

// Valid reports whether s is one of the known tracking styles.
func (s TrackingStyle) Valid() bool {
	return s == TrackingSimpleCheck || s == TrackingTrackTime
}

// Challenge is a long-term goal made of objectives.
type Challenge struct {
	ID                 uuid.UUID       `json:"id"`
	Title              string          `json:"title"`
	Detail             string          `json:"detail"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	Status             ChallengeStatus `json:"status"`
	Emoji              *string         `json:"emoji,omitempty"`
	TrackingStyle      TrackingStyle   `json:"tracking_style"`
	DailyTargetMinutes *int            `json:"daily_target_minutes,omitempty"`
	Objectives         []Objective     `json:"objectives"`
}

// IsActive reports whether now falls inside the challenge's date range.
func (c Challenge) IsActive(now time.Time) bool {
	if now.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil {
		return !now.After(*c.EndDate)
	}
	return true
}

// Progress averages the progress of all objectives.
func (c Challenge) Progress() float64 {
	if len(c.Objectives) == 0 {
		return 0
	}
	var total float64
	for _, o := range c.Objectives {
		total += o.Progress()
	}
	return total / float64(len(c.Objectives))
}

// Objective is a measurable target inside a challenge.
type Objective struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	TargetValue  float64     `json:"target_value"`
	CurrentValue float64     `json:"current_value"`
	Unit         string      `json:"unit"`
	Milestones   []Milestone `json:"milestones"`
}

// Progress returns CurrentValue/TargetValue clamped to [0, 1].
func (o Objective) Progress() float64 {
	if o.TargetValue <= 0 {
		return 0
	}
	return min(o.CurrentValue/o.TargetValue, 1)
}

// Milestone is a dated checkpoint within an objective.
type Milestone struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	TargetDate  time.Time `json:"target_date"`
	IsCompleted bool      `json:"is_completed"`
}
