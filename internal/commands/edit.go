package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only flags that are given change the task.
type EditCmd struct {
	title string
	desc  string
	start string
	end   string
}

// SetTitle sets --title (for testing).
func (c *EditCmd) SetTitle(title string) {
	c.title = title
}

// SetTimes sets --start and --end (for testing).
func (c *EditCmd) SetTimes(start, end string) {
	c.start = start
	c.end = end
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task you own" }
func (c *EditCmd) Usage() string {
	return "todocal edit [--title <text>] [--desc <text>] [--start <time>] [--end <time>] <id>"
}
func (c *EditCmd) NeedsAuth() bool    { return true }
func (c *EditCmd) NeedsBackend() bool { return false }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.start, "start", "", "")
	fs.StringVar(&c.end, "end", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	id, ok := parseIDArg(args, "task", errOut)
	if !ok {
		return exitcode.UserError
	}

	patch, err := c.patch(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if patch.Empty() {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	if _, err := p.EditTask(ctx, id, patch); err != nil {
		return reportError(errOut, err)
	}
	return okLine(cfg, out)
}

func (c *EditCmd) patch(cfg *config.Config) (service.TaskPatch, error) {
	var patch service.TaskPatch
	if c.title != "" {
		patch.Title = &c.title
	}
	if c.desc != "" {
		patch.Description = &c.desc
	}
	if c.start != "" {
		t, err := parseTime(c.start, cfg.Loc())
		if err != nil {
			return patch, err
		}
		patch.Start = &t
	}
	if c.end != "" {
		t, err := parseTime(c.end, cfg.Loc())
		if err != nil {
			return patch, err
		}
		patch.End = &t
	}
	return patch, nil
}
