package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	desc  string
	start string
	end   string
	image string
}

// SetTimes sets --start and --end (for testing).
func (c *AddCmd) SetTimes(start, end string) {
	c.start = start
	c.end = end
}

// SetDescription sets --desc (for testing).
func (c *AddCmd) SetDescription(desc string) {
	c.desc = desc
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todocal add --start <time> [--end <time>] [--desc <text>] [--image <path>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool    { return true }
func (c *AddCmd) NeedsBackend() bool { return false }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.start, "start", "", "")
	fs.StringVar(&c.end, "end", "", "")
	fs.StringVar(&c.image, "image", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	if c.start == "" {
		fmt.Fprintln(errOut, "error: --start required")
		return exitcode.UserError
	}

	start, err := parseTime(c.start, cfg.Loc())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	end := start.Add(time.Hour)
	if c.end != "" {
		if end, err = parseTime(c.end, cfg.Loc()); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	task, err := p.CreateTask(ctx, service.TaskDraft{
		Title:       title,
		Description: c.desc,
		Start:       start,
		End:         end,
		ImagePath:   c.image,
	})
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok #%d\n", task.ID)
	}
	return exitcode.Success
}
