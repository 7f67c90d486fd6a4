package system

import (
	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/lockfile"
	"github.com/julianstephens/progresstracker/internal/storage"
)

type ResetCmd struct {
	Yes bool `help:"Do not ask for confirmation." short:"y"`
}

func (cmd *ResetCmd) Run(ctx *cli.Context) error {
	// Leftover side files and temporary stores are cleared even when the
	// primary file is gone, without asking.
	exists := storage.Exists(ctx.StorePath)

	if exists && !cmd.Yes {
		ok, err := ctx.Confirm(
			"Delete the store?",
			"Every challenge and daily entry in "+ctx.StorePath+" will be removed. Backups are kept.",
		)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Reset cancelled.")
			return nil
		}
	}

	lock, err := lockfile.Acquire(ctx.StorePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := ctx.Bootstrap.Reset(ctx.StorePath); err != nil {
		return err
	}
	if !exists {
		ctx.Println("No store to reset.")
		return nil
	}
	ctx.Println(cli.OKStyle.Render("✓ Store deleted. A new one will be created on next use."))
	return nil
}
