package sqlite

import (
	"fmt"

	"github.com/julianstephens/progresstracker/internal/storage"
)

var countedTables = []string{"challenges", "objectives", "milestones", "daily_entries", "challenge_details"}

// Counts returns the number of rows in each entity table.
func (s *Store) Counts() (storage.Counts, error) {
	var counts storage.Counts
	targets := map[string]*int{
		"challenges":        &counts.Challenges,
		"objectives":        &counts.Objectives,
		"milestones":        &counts.Milestones,
		"daily_entries":     &counts.Entries,
		"challenge_details": &counts.Details,
	}

	for _, table := range countedTables {
		exists, err := s.tableExists(table)
		if err != nil {
			return counts, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return counts, fmt.Errorf("table %s is missing", table)
		}
		// table names come from countedTables, never from input
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(targets[table]); err != nil {
			return counts, fmt.Errorf("failed to count %s: %w", table, err)
		}
	}
	return counts, nil
}
