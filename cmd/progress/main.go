package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/progresstracker/internal/bootstrap"
	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/cli/backups"
	"github.com/julianstephens/progresstracker/internal/cli/system"
	"github.com/julianstephens/progresstracker/internal/constants"
	apperrors "github.com/julianstephens/progresstracker/internal/errors"
	"github.com/julianstephens/progresstracker/internal/logger"
)

var CLI struct {
	Version        kong.VersionFlag
	Config         kong.ConfigFlag `help:"Load flag defaults from a JSON file."`
	Store          string          `help:"Store file path." type:"path" default:"${default_store}" env:"PROGRESS_STORE"`
	OnIncompatible string          `help:"What to do with a store that cannot be opened or migrated." enum:"fail,reset" default:"fail" env:"PROGRESS_ON_INCOMPATIBLE"`
	NoBackup       bool            `help:"Skip the backup taken before a migration." env:"PROGRESS_NO_BACKUP"`
	Verbose        bool            `help:"Log debug output to stderr." env:"PROGRESS_DEBUG"`

	Check   system.CheckCmd   `cmd:"" help:"Check whether the store can be opened, migrated, or neither."`
	Migrate system.MigrateCmd `cmd:"" help:"Migrate the store to the current schema."`
	Reset   system.ResetCmd   `cmd:"" help:"Delete the store so a fresh one is created."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Stats   system.StatsCmd   `cmd:"" help:"Open the store and summarise its contents." default:"1"`
	Seed    system.SeedCmd    `cmd:"" help:"Write a store in an older schema generation."`
	Debug   system.DebugCmd   `cmd:"" help:"Debug commands for troubleshooting."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Challenge and habit progress tracker: store maintenance"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, constants.DefaultConfigFile),
		kong.Vars{
			"version":       constants.Version,
			"default_store": constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Verbose,
		ConfigDir: filepath.Dir(CLI.Store),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	appCtx := cli.NewContext(CLI.Store, bootstrap.Config{
		Policy: constants.IncompatiblePolicy(CLI.OnIncompatible),
		Backup: !CLI.NoBackup,
	})

	err := ctx.Run(appCtx)
	appCtx.Close()
	apperrors.Fatal(err)
}
