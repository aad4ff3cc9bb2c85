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
	Register(&InboxCmd{})
	Register(NewAcceptCmd())
	Register(NewDeclineCmd())
	Register(&InviteCmd{})
}

// InboxCmd lists pending invitations.
type InboxCmd struct{}

func (c *InboxCmd) Name() string       { return "inbox" }
func (c *InboxCmd) Aliases() []string  { return []string{"notifications"} }
func (c *InboxCmd) Synopsis() string   { return "List pending invitations" }
func (c *InboxCmd) Usage() string      { return "todocal inbox" }
func (c *InboxCmd) NeedsAuth() bool    { return true }
func (c *InboxCmd) NeedsBackend() bool { return false }

func (c *InboxCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InboxCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}

	n := p.Notifications()
	pending := n.Pending()
	if len(pending) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no pending invitations")
		}
		return exitcode.Success
	}

	output.FormatBadge(out, n.BadgeCount())
	for _, rec := range pending {
		title := ""
		if task, err := n.Select(ctx, rec); err == nil {
			title = task.Title
		} else {
			cfg.Logger().Warn("invitation task unavailable", "share_id", rec.ID, "error", err)
		}
		output.FormatInvitation(out, rec, title)
	}
	return exitcode.Success
}

// RespondCmd implements accept and decline.
type RespondCmd struct {
	decision service.ShareStatus
}

// NewAcceptCmd returns the accept command.
func NewAcceptCmd() *RespondCmd {
	return &RespondCmd{decision: service.StatusAccepted}
}

// NewDeclineCmd returns the decline command.
func NewDeclineCmd() *RespondCmd {
	return &RespondCmd{decision: service.StatusRejected}
}

func (c *RespondCmd) Name() string {
	if c.decision == service.StatusAccepted {
		return "accept"
	}
	return "decline"
}

func (c *RespondCmd) Aliases() []string {
	if c.decision == service.StatusAccepted {
		return nil
	}
	return []string{"reject"}
}

func (c *RespondCmd) Synopsis() string {
	if c.decision == service.StatusAccepted {
		return "Accept an invitation"
	}
	return "Decline an invitation"
}

func (c *RespondCmd) Usage() string      { return "todocal " + c.Name() + " <invitation-id>" }
func (c *RespondCmd) NeedsAuth() bool    { return true }
func (c *RespondCmd) NeedsBackend() bool { return false }

func (c *RespondCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RespondCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	shareID, ok := parseIDArg(args, "invitation", errOut)
	if !ok {
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}

	var err error
	if c.decision == service.StatusAccepted {
		_, err = p.Accept(ctx, shareID)
	} else {
		_, err = p.Decline(ctx, shareID)
	}
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		if n := p.Notifications().BadgeCount(); n > 0 {
			output.FormatBadge(out, n)
		}
	}
	return exitcode.Success
}

// InviteCmd shows the task behind a pending invitation.
type InviteCmd struct{}

func (c *InviteCmd) Name() string       { return "invite" }
func (c *InviteCmd) Aliases() []string  { return nil }
func (c *InviteCmd) Synopsis() string   { return "Show the task behind an invitation" }
func (c *InviteCmd) Usage() string      { return "todocal invite <invitation-id>" }
func (c *InviteCmd) NeedsAuth() bool    { return true }
func (c *InviteCmd) NeedsBackend() bool { return false }

func (c *InviteCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InviteCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	shareID, ok := parseIDArg(args, "invitation", errOut)
	if !ok {
		return exitcode.UserError
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	rec, err := p.Invitation(shareID)
	if err != nil {
		return reportError(errOut, err)
	}
	task, err := p.Notifications().Select(ctx, rec)
	if err != nil {
		return reportError(errOut, err)
	}

	output.FormatTaskDetail(out, task, true, cfg.Loc())
	if !cfg.Quiet {
		fmt.Fprintf(out, "run: todocal accept %d  or  todocal decline %d\n", rec.ID, rec.ID)
	}
	return exitcode.Success
}
