package models

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MetricTagPrefix marks a detail tag that carries a metric from the flat
// metrics layout.
const MetricTagPrefix = "metric"

// LegacyEntry is a daily entry as stored by the first schema generation:
// one flat record with an unordered metric-name to value mapping.
type LegacyEntry struct {
	ID          uuid.UUID
	Date        time.Time
	Mood        string
	Notes       string
	IsCompleted bool
	Metrics     map[string]float64
}

// EncodeMetricTag renders a metric as "metric|<name>|<value>".
func EncodeMetricTag(name string, value float64) string {
	return MetricTagPrefix + "|" + name + "|" + FormatMetricValue(value)
}

// DecodeMetricTag parses a tag written by EncodeMetricTag. Tags with another
// prefix, the wrong number of fields, or an unparseable value are rejected.
func DecodeMetricTag(tag string) (string, float64, bool) {
	if !strings.HasPrefix(tag, MetricTagPrefix+"|") {
		return "", 0, false
	}
	parts := strings.Split(tag, "|")
	if len(parts) != 3 {
		return "", 0, false
	}
	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", 0, false
	}
	return parts[1], value, true
}

// FormatMetricValue prints a float the way the app has always printed
// doubles: integral values keep a trailing ".0" and very large or very small
// magnitudes switch to exponent notation.
func FormatMetricValue(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	abs := math.Abs(v)
	var s string
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		s = strconv.FormatFloat(v, 'g', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// SortedMetricNames returns the metric names in enumeration order. Fan-out
// uses this order, so the first name is the one whose detail keeps the notes.
func SortedMetricNames(metrics map[string]float64) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FanOutDetails converts a flat entry's notes, completion flag and metrics
// into challenge details.
//
// An entry without metrics yields exactly one untagged detail carrying the
// notes. An entry with N metrics yields N details, each tagged with one
// encoded metric; only the first keeps the notes. Every detail gets a fresh
// ChallengeID because the flat layout never recorded which challenge a
// metric belonged to.
func FanOutDetails(notes string, isCompleted bool, metrics map[string]float64) []ChallengeDetail {
	if len(metrics) == 0 {
		n := notes
		return []ChallengeDetail{{
			ID:          uuid.New(),
			ChallengeID: uuid.New(),
			IsCompleted: isCompleted,
			Notes:       &n,
			PhotoURLs:   []string{},
			Tags:        []string{},
		}}
	}

	names := SortedMetricNames(metrics)
	details := make([]ChallengeDetail, 0, len(names))
	for i, name := range names {
		detail := ChallengeDetail{
			ID:          uuid.New(),
			ChallengeID: uuid.New(),
			IsCompleted: isCompleted,
			PhotoURLs:   []string{},
			Tags:        []string{EncodeMetricTag(name, metrics[name])},
		}
		if i == 0 {
			n := notes
			detail.Notes = &n
		}
		details = append(details, detail)
	}
	return details
}

// Upgrade converts a flat entry into the structured layout. Identity and date
// are preserved; the mood is kept only when it names a known mood.
func (l LegacyEntry) Upgrade() DailyEntry {
	entry := DailyEntry{
		ID:               l.ID,
		Date:             l.Date,
		ChallengeDetails: FanOutDetails(l.Notes, l.IsCompleted, l.Metrics),
	}
	if mood := Mood(l.Mood); mood.Valid() {
		entry.Mood = &mood
	}
	return entry
}
