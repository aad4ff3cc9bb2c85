package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/output"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&ShareCmd{})
	Register(&UsersCmd{})
}

// ShareCmd implements the share command.
type ShareCmd struct{}

func (c *ShareCmd) Name() string       { return "share" }
func (c *ShareCmd) Aliases() []string  { return nil }
func (c *ShareCmd) Synopsis() string   { return "Invite another user to a task" }
func (c *ShareCmd) Usage() string      { return "todocal share <task-id> <username|user-id>" }
func (c *ShareCmd) NeedsAuth() bool    { return true }
func (c *ShareCmd) NeedsBackend() bool { return false }

func (c *ShareCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShareCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: task id and user required")
		return exitcode.UserError
	}
	taskID, ok := parseIDArg(args[:1], "task", errOut)
	if !ok {
		return exitcode.UserError
	}

	user, err := resolveUser(ctx, svc, strings.Join(args[1:], " "))
	if err != nil {
		return reportError(errOut, err)
	}

	p, code := loadPlanner(ctx, cfg, sess, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := p.Share(ctx, taskID, user.ID); err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "shared #%d with %s\n", taskID, user.Username)
	}
	return exitcode.Success
}

// resolveUser looks a user up by numeric id or exact username (case-insensitive).
func resolveUser(ctx context.Context, svc service.Service, ref string) (service.User, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		return svc.FetchUser(ctx, id)
	}

	users, err := svc.SearchUsers(ctx, ref)
	if err != nil {
		return service.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, ref) {
			return u, nil
		}
	}
	return service.User{}, fmt.Errorf("%w: user %s", service.ErrNotFound, ref)
}

// UsersCmd implements the users command.
type UsersCmd struct{}

func (c *UsersCmd) Name() string       { return "users" }
func (c *UsersCmd) Aliases() []string  { return nil }
func (c *UsersCmd) Synopsis() string   { return "Search users to share with" }
func (c *UsersCmd) Usage() string      { return "todocal users [query]" }
func (c *UsersCmd) NeedsAuth() bool    { return true }
func (c *UsersCmd) NeedsBackend() bool { return false }

func (c *UsersCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UsersCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	users, err := svc.SearchUsers(ctx, strings.Join(args, " "))
	if err != nil {
		return reportError(errOut, err)
	}

	found := false
	for _, u := range users {
		if u.ID == sess.UserID {
			continue
		}
		output.FormatUser(out, u)
		found = true
	}
	if !found && !cfg.Quiet {
		fmt.Fprintln(out, "no users found")
	}
	return exitcode.Success
}
