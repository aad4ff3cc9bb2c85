package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todocal/internal/backend/googletasks"
	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&ExportCmd{})
}

// Exporter mirrors tasks into a Google Tasks list.
type Exporter interface {
	EnsureList(ctx context.Context, title string) (string, error)
	Export(ctx context.Context, listID string, items []service.Task) (googletasks.Result, error)
}

// ExporterFactory creates the Google Tasks exporter.
type ExporterFactory func(ctx context.Context, cfg *config.Config) (Exporter, error)

func defaultExporter(ctx context.Context, cfg *config.Config) (Exporter, error) {
	exp, err := googletasks.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// ExportCmd implements the export command.
type ExportCmd struct {
	list     string
	date     string
	offset   int
	exporter ExporterFactory
}

// SetExporterFactory replaces the Google Tasks exporter (for testing).
func (c *ExportCmd) SetExporterFactory(f ExporterFactory) {
	c.exporter = f
}

// SetDate sets the day whose week is exported (for testing).
func (c *ExportCmd) SetDate(date string) {
	c.date = date
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Copy the week's tasks to Google Tasks" }
func (c *ExportCmd) Usage() string {
	return "todocal export [--list <name>] [--date YYYY-MM-DD] [--offset <n>]"
}
func (c *ExportCmd) NeedsAuth() bool    { return true }
func (c *ExportCmd) NeedsBackend() bool { return false }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.list, "list", "", "")
	fs.StringVar(&c.date, "date", "", "")
	fs.IntVar(&c.offset, "offset", 0, "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	start, err := weekStart(cfg, c.date, c.offset)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	week := tasksInWeek(p.Display().Tasks(), start)

	factory := c.exporter
	if factory == nil {
		factory = defaultExporter
	}
	exp, err := factory(ctx, cfg)
	if err != nil {
		return reportError(errOut, err)
	}

	title := c.list
	if title == "" {
		title = cfg.GoogleListName()
	}
	listID, err := exp.EnsureList(ctx, title)
	if err != nil {
		return reportError(errOut, err)
	}

	res, err := exp.Export(ctx, listID, week)
	if err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "exported %d, skipped %d\n", res.Created, res.Skipped)
	}
	return exitcode.Success
}
