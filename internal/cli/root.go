package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/progresstracker/internal/bootstrap"
	"github.com/julianstephens/progresstracker/internal/logger"
	"github.com/julianstephens/progresstracker/internal/migration"
	"github.com/julianstephens/progresstracker/internal/schema"
)

type Context struct {
	StorePath string
	Bootstrap *bootstrap.Bootstrapper
	Out       io.Writer
	// Confirm asks the user a yes/no question. Tests replace it.
	Confirm func(title, description string) (bool, error)

	store *bootstrap.Store
}

func NewContext(storePath string, cfg bootstrap.Config) *Context {
	return &Context{
		StorePath: storePath,
		Bootstrap: bootstrap.New(cfg),
		Out:       os.Stdout,
		Confirm:   Confirm,
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// OpenStore bootstraps and opens the store once per process.
func (c *Context) OpenStore() (*bootstrap.Store, error) {
	if c.store != nil {
		return c.store, nil
	}

	store, err := c.Bootstrap.Open(c.StorePath)
	if err != nil {
		return nil, err
	}

	switch {
	case store.Reset:
		c.Println(WarnStyle.Render("⚠ Store was incompatible and has been reset."))
	case store.Report != nil:
		c.Println(OKStyle.Render("✓ " + SummarizeReport(store.Report)))
	}

	c.store = store
	return store, nil
}

// Close releases the store if a command opened it.
func (c *Context) Close() {
	if c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	c.store = nil
}

// SummarizeReport renders a one-line description of a migration run.
func SummarizeReport(r *migration.Report) string {
	summary := fmt.Sprintf("Migrated store from %s to %s: %d challenges, %d entries, %d details",
		schema.VersionName(r.From), schema.VersionName(r.To), r.Challenges, r.Entries, r.Details)
	if len(r.Skipped) > 0 {
		summary += fmt.Sprintf(" (%d rows skipped, see log)", len(r.Skipped))
	}
	return summary
}
