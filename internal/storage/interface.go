package storage

import (
	"github.com/google/uuid"

	"github.com/julianstephens/progresstracker/internal/models"
)

// Counts is the number of rows per entity table of a store.
type Counts struct {
	Challenges int `json:"challenges"`
	Objectives int `json:"objectives"`
	Milestones int `json:"milestones"`
	Entries    int `json:"daily_entries"`
	Details    int `json:"challenge_details"`
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Challenges
	AddChallenge(models.Challenge) error
	GetChallenges() ([]models.Challenge, error)

	// Daily entries
	AddDailyEntry(models.DailyEntry) error
	GetDailyEntries() ([]models.DailyEntry, error)
	DeleteDailyEntry(id uuid.UUID) error

	// Utils
	Counts() (Counts, error)
	GetConfigPath() string
}
