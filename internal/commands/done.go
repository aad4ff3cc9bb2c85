package commands

import (
	"context"
	"flag"
	"io"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	undo bool
}

// SetUndo marks the task not done instead (for testing).
func (c *DoneCmd) SetUndo(undo bool) {
	c.undo = undo
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return nil }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed" }
func (c *DoneCmd) Usage() string      { return "todocal done [--undo] <id>" }
func (c *DoneCmd) NeedsAuth() bool    { return true }
func (c *DoneCmd) NeedsBackend() bool { return false }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.undo, "undo", false, "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	id, ok := parseIDArg(args, "task", errOut)
	if !ok {
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	if _, err := p.SetDone(ctx, id, !c.undo); err != nil {
		return reportError(errOut, err)
	}
	return okLine(cfg, out)
}
