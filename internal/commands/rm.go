package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/output"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&RmCmd{})
	Register(&ShowCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task you own" }
func (c *RmCmd) Usage() string      { return "todocal rm <id>" }
func (c *RmCmd) NeedsAuth() bool    { return true }
func (c *RmCmd) NeedsBackend() bool { return false }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	id, ok := parseIDArg(args, "task", errOut)
	if !ok {
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	task, err := p.DeleteTask(ctx, id)
	if err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "deleted #%d %s\n", task.ID, task.Title)
	}
	return exitcode.Success
}

// ShowCmd prints one task from the calendar.
type ShowCmd struct{}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return nil }
func (c *ShowCmd) Synopsis() string   { return "Show a task" }
func (c *ShowCmd) Usage() string      { return "todocal show <id>" }
func (c *ShowCmd) NeedsAuth() bool    { return true }
func (c *ShowCmd) NeedsBackend() bool { return false }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	id, ok := parseIDArg(args, "task", errOut)
	if !ok {
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	task, err := p.Task(id)
	if err != nil {
		return reportError(errOut, err)
	}
	output.FormatTaskDetail(out, task, p.Display().Shared(id), cfg.Loc())
	return exitcode.Success
}
