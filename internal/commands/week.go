package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todocal/internal/calendar"
	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/output"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&WeekCmd{})
}

// WeekCmd implements the week command.
// Handles both `todocal` (no args) and `todocal week`.
type WeekCmd struct {
	date    string
	offset  int
	compact bool
}

// SetDate sets the day whose week is shown, as YYYY-MM-DD (for testing).
func (c *WeekCmd) SetDate(date string) {
	c.date = date
}

// SetOffset sets the week offset (for testing).
func (c *WeekCmd) SetOffset(n int) {
	c.offset = n
}

// SetCompact hides empty hours (for testing).
func (c *WeekCmd) SetCompact(compact bool) {
	c.compact = compact
}

func (c *WeekCmd) Name() string      { return "week" }
func (c *WeekCmd) Aliases() []string { return []string{"cal"} }
func (c *WeekCmd) Synopsis() string  { return "Show the weekly calendar" }
func (c *WeekCmd) Usage() string {
	return "todocal week [--date YYYY-MM-DD] [--offset <n>] [--compact]"
}
func (c *WeekCmd) NeedsAuth() bool    { return true }
func (c *WeekCmd) NeedsBackend() bool { return false }

func (c *WeekCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.date, "date", "", "")
	fs.IntVar(&c.offset, "offset", 0, "")
	fs.BoolVar(&c.compact, "compact", false, "")
}

func (c *WeekCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
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

	display := p.Display()
	week := tasksInWeek(display.Tasks(), start)
	output.FormatWeekHeader(out, start)
	if n := p.Notifications().BadgeCount(); n > 0 {
		output.FormatBadge(out, n)
	}
	output.FormatGrid(out, start, calendar.Project(week, start), c.compact)

	if len(week) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks this week")
		}
		return exitcode.Success
	}
	fmt.Fprintln(out)
	for _, t := range week {
		output.FormatTaskLine(out, t, display.Shared(t.ID), cfg.Loc())
	}
	return exitcode.Success
}
