package system

import (
	"fmt"

	"github.com/julianstephens/progresstracker/internal/bootstrap"
	"github.com/julianstephens/progresstracker/internal/cli"
	"github.com/julianstephens/progresstracker/internal/compat"
	"github.com/julianstephens/progresstracker/internal/schema"
)

type CheckCmd struct {
	JSON bool `help:"Print the result as JSON."`
}

type checkOutput struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Version int    `json:"version"`
	Target  int    `json:"target"`
	Reason  string `json:"reason,omitempty"`
}

// Run classifies the store without opening or modifying it. An incompatible
// store makes the command fail so scripts can branch on the exit code.
func (cmd *CheckCmd) Run(ctx *cli.Context) error {
	result := ctx.Bootstrap.CheckCompatibility(ctx.StorePath)

	out := checkOutput{
		Path:    ctx.StorePath,
		Status:  result.Status.String(),
		Version: result.Version,
		Target:  schema.Latest,
	}
	if result.Reason != nil {
		out.Reason = result.Reason.Error()
	}

	if cmd.JSON {
		if err := printJSON(ctx, out); err != nil {
			return err
		}
	} else {
		ctx.Println(describe(result))
	}

	if result.Status == compat.Incompatible {
		return fmt.Errorf("%w: %w", bootstrap.ErrIncompatibleStore, result.Reason)
	}
	return nil
}

func describe(result compat.Result) string {
	switch result.Status {
	case compat.Compatible:
		if result.Version == 0 {
			return cli.OKStyle.Render("✓ No store yet; one will be created on " + schema.VersionName(schema.Latest))
		}
		return cli.OKStyle.Render("✓ Store is on " + schema.VersionName(result.Version))
	case compat.Migratable:
		return cli.WarnStyle.Render(fmt.Sprintf("⚠ Store is on %s and will be migrated to %s",
			schema.VersionName(result.Version), schema.VersionName(schema.Latest)))
	default:
		return cli.FailStyle.Render("❌ Store is incompatible")
	}
}
