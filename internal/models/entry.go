package models

import (
	"time"

	"github.com/google/uuid"
)

// Mood is the self-reported mood attached to a daily entry.
type Mood string

const (
	MoodExcellent Mood = "excellent"
	MoodGood      Mood = "good"
	MoodAverage   Mood = "average"
	MoodLow       Mood = "low"
	MoodBad       Mood = "bad"
)

var moodLabels = map[Mood]string{
	MoodExcellent: "Excellent",
	MoodGood:      "Good",
	MoodAverage:   "Average",
	MoodLow:       "Low",
	MoodBad:       "Bad",
}

// Valid reports whether m is one of the known moods.
func (m Mood) Valid() bool {
	_, ok := moodLabels[m]
	return ok
}

// Label returns the human readable name of the mood.
func (m Mood) Label() string {
	if label, ok := moodLabels[m]; ok {
		return label
	}
	return string(m)
}

// DailyEntry is one day's log. It exclusively owns its details; deleting an
// entry deletes every detail with it.
type DailyEntry struct {
	ID               uuid.UUID         `json:"id"`
	Date             time.Time         `json:"date"`
	Mood             *Mood             `json:"mood,omitempty"`
	EditedAt         *time.Time        `json:"edited_at,omitempty"`
	ChallengeDetails []ChallengeDetail `json:"challenge_details"`
}

// ChallengeDetail records progress on one challenge within a daily entry.
//
// ChallengeID is a weak reference: it is matched by value against
// Challenge.ID, nothing enforces that the challenge exists, and deleting a
// challenge never touches its details.
type ChallengeDetail struct {
	ID            uuid.UUID `json:"id"`
	ChallengeID   uuid.UUID `json:"challenge_id"`
	IsCompleted   bool      `json:"is_completed"`
	Notes         *string   `json:"notes,omitempty"`
	PhotoURLs     []string  `json:"photo_urls"`
	Tags          []string  `json:"tags"`
	LoggedMinutes int       `json:"logged_minutes"`
}

// Notes returns the free text of the first detail, which is where entries
// converted from the flat layout keep it.
func (e DailyEntry) Notes() string {
	if len(e.ChallengeDetails) == 0 || e.ChallengeDetails[0].Notes == nil {
		return ""
	}
	return *e.ChallengeDetails[0].Notes
}

// Metrics decodes every metric tag carried by the entry's details.
func (e DailyEntry) Metrics() map[string]float64 {
	result := make(map[string]float64)
	for _, detail := range e.ChallengeDetails {
		if len(detail.Tags) == 0 {
			continue
		}
		name, value, ok := DecodeMetricTag(detail.Tags[0])
		if !ok {
			continue
		}
		result[name] = value
	}
	return result
}

// IsCompleted reports whether every detail is completed.
func (e DailyEntry) IsCompleted() bool {
	for _, detail := range e.ChallengeDetails {
		if !detail.IsCompleted {
			return false
		}
	}
	return true
}

// ResolvedMood returns the entry's mood, or MoodAverage when none was recorded.
func (e DailyEntry) ResolvedMood() Mood {
	if e.Mood == nil {
		return MoodAverage
	}
	return *e.Mood
}
