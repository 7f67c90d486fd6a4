package system

import (
	"time"

	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/lockfile"
)

type MigrateCmd struct {
	Verbose bool `help:"List every skipped row." short:"v"`
}

func (cmd *MigrateCmd) Run(ctx *cli.Context) error {
	lock, err := lockfile.Acquire(ctx.StorePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	report, err := ctx.Bootstrap.Migrate(ctx.StorePath)
	if err != nil {
		return err
	}

	if report.From == report.To {
		ctx.Println(cli.OKStyle.Render("✓ Store is up to date, nothing to migrate."))
		return nil
	}

	ctx.Println(cli.OKStyle.Render("✓ " + cli.SummarizeReport(report)))
	ctx.Printf("  Objectives: %d, milestones: %d, took %s\n", report.Objectives, report.Milestones, report.Duration.Round(time.Millisecond))
	if cmd.Verbose {
		for _, skipped := range report.Skipped {
			ctx.Println(cli.WarnStyle.Render("  ⚠ " + skipped.Error()))
		}
	}
	return nil
}
