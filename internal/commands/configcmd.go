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
	Register(&ConfigCmd{})
}

// ConfigCmd implements `config init` and `config path`.
type ConfigCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *ConfigCmd) SetForce(force bool) {
	c.force = force
}

func (c *ConfigCmd) Name() string       { return "config" }
func (c *ConfigCmd) Aliases() []string  { return nil }
func (c *ConfigCmd) Synopsis() string   { return "Write or locate config.yaml" }
func (c *ConfigCmd) Usage() string      { return "todocal config init [--force] | todocal config path" }
func (c *ConfigCmd) NeedsAuth() bool    { return false }
func (c *ConfigCmd) NeedsBackend() bool { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, _ *session.Session, _ service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintf(errOut, "error: usage: %s\n", c.Usage())
		return exitcode.UserError
	}

	switch args[0] {
	case "path":
		fmt.Fprintln(out, cfg.SettingsPath())
		return exitcode.Success
	case "init":
	default:
		fmt.Fprintf(errOut, "error: unknown config action: %s\n", args[0])
		return exitcode.UserError
	}

	if config.Exists(cfg.SettingsPath()) && !c.force {
		fmt.Fprintf(errOut, "error: %s already exists (use --force to overwrite)\n", cfg.SettingsPath())
		return exitcode.UserError
	}
	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.UserError
	}
	if err := config.WriteDefault(cfg.SettingsPath()); err != nil {
		fmt.Fprintf(errOut, "error: failed to write config: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "wrote %s\n", cfg.SettingsPath())
	}
	return exitcode.Success
}
