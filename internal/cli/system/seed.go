package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/legacy"
	"github.com/julianstephens/progresstracker/internal/lockfile"
	"github.com/julianstephens/progresstracker/internal/models"
	"github.com/julianstephens/progresstracker/internal/schema"
	"github.com/julianstephens/progresstracker/internal/storage"
)

type SeedCmd struct {
	Entries int  `help:"Number of daily entries to generate." default:"30"`
	Metrics int  `help:"Metrics recorded per entry." default:"2"`
	Version int  `help:"Schema generation to write." default:"1" enum:"1,2"`
	Force   bool `help:"Replace an existing store."`
}

// Run writes a store in an older schema generation, for trying out
// migrations.
func (cmd *SeedCmd) Run(ctx *cli.Context) error {
	if cmd.Entries < 0 || cmd.Metrics < 0 {
		return fmt.Errorf("entries and metrics must not be negative")
	}

	lock, err := lockfile.Acquire(ctx.StorePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	if storage.Exists(ctx.StorePath) {
		if !cmd.Force {
			return fmt.Errorf("store already exists at %s (use --force to replace it)", ctx.StorePath)
		}
		if err := storage.RemoveAll(ctx.StorePath); err != nil {
			return fmt.Errorf("failed to remove existing store: %w", err)
		}
	}

	start := time.Now().AddDate(0, 0, -cmd.Entries)
	fixture := legacy.Generate(cmd.Entries, cmd.Metrics, start)

	switch cmd.Version {
	case 1:
		err = legacy.WriteV1(ctx.StorePath, fixture)
	default:
		entries := make([]models.DailyEntry, 0, len(fixture.Entries))
		for _, e := range fixture.Entries {
			entries = append(entries, e.Upgrade())
		}
		for i := range fixture.Challenges {
			fixture.Challenges[i].Status = models.ChallengeActive
		}
		err = legacy.WriteV2(ctx.StorePath, fixture.Challenges, entries)
	}
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	ctx.Println(cli.OKStyle.Render(fmt.Sprintf("✓ Seeded %s with %d entries on %s",
		ctx.StorePath, cmd.Entries, schema.VersionName(cmd.Version))))
	return nil
}
