package system

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/internal/schema"
)

type DebugCmd struct {
	Header         DebugHeaderCmd         `cmd:"" help:"Show the store path and header fingerprint."`
	DumpChallenges DebugDumpChallengesCmd `cmd:"" help:"Dump challenges as JSON."`
	DumpEntry      DebugDumpEntryCmd      `cmd:"" help:"Dump the daily entry of a date as JSON."`
}

type DebugHeaderCmd struct{}

// Run reads the stamp without loading the store, so it works on stores of any
// generation.
func (cmd *DebugHeaderCmd) Run(ctx *cli.Context) error {
	output := map[string]any{
		"path": ctx.StorePath,
	}

	header, err := compat.Probe(ctx.StorePath)
	if err != nil {
		output["error"] = err.Error()
	} else {
		output["application_id"] = fmt.Sprintf("%#x", header.ApplicationID)
		output["ours"] = header.ApplicationID == constants.ApplicationID
		output["user_version"] = header.UserVersion
		output["schema"] = schema.VersionName(header.UserVersion)
	}

	return printJSON(ctx, output)
}

type DebugDumpChallengesCmd struct{}

func (cmd *DebugDumpChallengesCmd) Run(ctx *cli.Context) error {
	store, err := ctx.OpenStore()
	if err != nil {
		return err
	}
	challenges, err := store.GetChallenges()
	if err != nil {
		return fmt.Errorf("failed to get challenges: %w", err)
	}
	return printJSON(ctx, challenges)
}

type DebugDumpEntryCmd struct {
	Date string `arg:"" help:"Date of the entry to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpEntryCmd) Run(ctx *cli.Context) error {
	date := cmd.Date
	if date == "today" {
		date = time.Now().Format(constants.DateFormat)
	}
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", date)
	}

	store, err := ctx.OpenStore()
	if err != nil {
		return err
	}
	entries, err := store.GetDailyEntries()
	if err != nil {
		return fmt.Errorf("failed to get daily entries: %w", err)
	}

	for _, e := range entries {
		if e.Date.Format(constants.DateFormat) == date {
			return printJSON(ctx, e)
		}
	}
	return fmt.Errorf("no entry found for date: %s", date)
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}
