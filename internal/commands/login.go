package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
	in       io.Reader
}

// SetPassword sets the password (for testing).
func (c *LoginCmd) SetPassword(pw string) {
	c.password = pw
}

// SetInput sets the reader the password is read from when --password is absent (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Log in to the calendar backend" }
func (c *LoginCmd) Usage() string      { return "todocal login [--password <pw>] <username>" }
func (c *LoginCmd) NeedsAuth() bool    { return false }
func (c *LoginCmd) NeedsBackend() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, _ *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	username := strings.TrimSpace(strings.Join(args, " "))
	if username == "" {
		fmt.Fprintln(errOut, "error: username required")
		return exitcode.UserError
	}

	passwords, err := readPasswords(c.in, c.password, 1)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	res, err := svc.Login(ctx, username, passwords[0])
	if err != nil {
		return reportError(errOut, err)
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	sess := session.New(res.UserID, username, res.Token)
	if err := sess.Save(cfg.SessionPath()); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}
	cfg.Logger().Debug("session saved", "user_id", res.UserID, "path", cfg.SessionPath())

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", username)
	}
	return exitcode.Success
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	password string
	confirm  string
	in       io.Reader
}

// SetPasswords sets the password and its confirmation (for testing).
func (c *SignupCmd) SetPasswords(pw, confirm string) {
	c.password = pw
	c.confirm = confirm
}

// SetInput sets the reader passwords are read from when flags are absent (for testing).
func (c *SignupCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "todocal signup [--password <pw> --confirm <pw>] <username>"
}
func (c *SignupCmd) NeedsAuth() bool    { return false }
func (c *SignupCmd) NeedsBackend() bool { return true }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.confirm, "confirm", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, _ *session.Session, svc service.Service, args []string, out, errOut io.Writer) int {
	username := strings.TrimSpace(strings.Join(args, " "))
	if username == "" {
		fmt.Fprintln(errOut, "error: username required")
		return exitcode.UserError
	}

	password, confirm := c.password, c.confirm
	if password == "" {
		pw, err := readPasswords(c.in, "", 2)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		password, confirm = pw[0], pw[1]
	} else if confirm == "" {
		confirm = password
	}
	if password != confirm {
		fmt.Fprintln(errOut, "error: passwords do not match")
		return exitcode.UserError
	}

	if err := svc.Signup(ctx, username, password, confirm); err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "account created (run: todocal login %s)\n", username)
	}
	return exitcode.Success
}

var errPasswordRequired = errors.New("password required")

// readPasswords returns flagValue if set, otherwise reads n lines from in (stdin by default).
func readPasswords(in io.Reader, flagValue string, n int) ([]string, error) {
	if flagValue != "" {
		return []string{flagValue}, nil
	}
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	lines := make([]string, 0, n)
	for len(lines) < n && scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) < n || lines[0] == "" {
		return nil, errPasswordRequired
	}
	return lines, nil
}
