package system

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/models"
	"github.com/julianstephens/progresstracker/internal/storage"
)

type StatsCmd struct {
	JSON bool `help:"Print the statistics as JSON."`
}

type statsOutput struct {
	Counts    storage.Counts           `json:"counts"`
	Completed int                      `json:"completed_entries"`
	Moods     map[models.Mood]int      `json:"moods"`
	Metrics   map[string]float64       `json:"metric_totals"`
	Progress  []challengeProgressEntry `json:"challenges"`
}

type challengeProgressEntry struct {
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Active   bool    `json:"active"`
	Progress float64 `json:"progress"`
}

// Run opens the store, migrating it first if needed, and summarises it.
func (cmd *StatsCmd) Run(ctx *cli.Context) error {
	store, err := ctx.OpenStore()
	if err != nil {
		return err
	}

	out, err := collectStats(store, time.Now())
	if err != nil {
		return err
	}

	if cmd.JSON {
		return printJSON(ctx, out)
	}

	ctx.Println(cli.HeaderStyle.Render("Store"))
	ctx.Printf("  Challenges: %d (objectives %d, milestones %d)\n", out.Counts.Challenges, out.Counts.Objectives, out.Counts.Milestones)
	ctx.Printf("  Daily entries: %d (%d completed, %d details)\n", out.Counts.Entries, out.Completed, out.Counts.Details)

	if len(out.Progress) > 0 {
		ctx.Println()
		ctx.Println(cli.HeaderStyle.Render("Challenges"))
		for _, c := range out.Progress {
			line := fmt.Sprintf("  %-30s %5.1f%%  %s", c.Title, c.Progress*100, c.Status)
			if c.Active {
				ctx.Println(line)
			} else {
				ctx.Println(cli.MutedStyle.Render(line))
			}
		}
	}

	if len(out.Metrics) > 0 {
		ctx.Println()
		ctx.Println(cli.HeaderStyle.Render("Metric totals"))
		for _, name := range models.SortedMetricNames(out.Metrics) {
			ctx.Printf("  %-30s %s\n", name, models.FormatMetricValue(out.Metrics[name]))
		}
	}

	if len(out.Moods) > 0 {
		ctx.Println()
		ctx.Println(cli.HeaderStyle.Render("Moods"))
		moods := make([]models.Mood, 0, len(out.Moods))
		for m := range out.Moods {
			moods = append(moods, m)
		}
		sort.Slice(moods, func(i, j int) bool { return out.Moods[moods[i]] > out.Moods[moods[j]] })
		for _, m := range moods {
			ctx.Printf("  %-30s %d\n", m.Label(), out.Moods[m])
		}
	}
	return nil
}

func collectStats(store storage.Provider, now time.Time) (statsOutput, error) {
	out := statsOutput{
		Moods:   make(map[models.Mood]int),
		Metrics: make(map[string]float64),
	}

	counts, err := store.Counts()
	if err != nil {
		return out, err
	}
	out.Counts = counts

	challenges, err := store.GetChallenges()
	if err != nil {
		return out, fmt.Errorf("failed to load challenges: %w", err)
	}
	for _, c := range challenges {
		out.Progress = append(out.Progress, challengeProgressEntry{
			Title:    c.Title,
			Status:   string(c.Status),
			Active:   c.Status == models.ChallengeActive && c.IsActive(now),
			Progress: c.Progress(),
		})
	}

	entries, err := store.GetDailyEntries()
	if err != nil {
		return out, fmt.Errorf("failed to load daily entries: %w", err)
	}
	for _, e := range entries {
		if e.IsCompleted() {
			out.Completed++
		}
		out.Moods[e.ResolvedMood()]++
		for name, value := range e.Metrics() {
			out.Metrics[name] += value
		}
	}
	return out, nil
}
