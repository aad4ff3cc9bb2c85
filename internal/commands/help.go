package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. The listing is built from the registry.
type HelpCmd struct {
	registry *Registry
}

// SetRegistry sets the registry whose commands are listed (for testing).
func (c *HelpCmd) SetRegistry(r *Registry) {
	c.registry = r
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todocal help [command]" }
func (c *HelpCmd) NeedsAuth() bool    { return false }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, _ *session.Session, _ service.Service, args []string, out, errOut io.Writer) int {
	reg := c.registry
	if reg == nil {
		reg = DefaultRegistry
	}

	if len(args) > 0 {
		cmd, ok := reg.Find(args[0])
		if !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		writeCommandHelp(out, cmd)
		return exitcode.Success
	}

	cmds := reg.All()
	width := 0
	for _, cmd := range cmds {
		if n := len(cmd.Name()); n > width {
			width = n
		}
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  todocal [command] [flags] [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range cmds {
		line := fmt.Sprintf("  %-*s  %s", width, cmd.Name(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Without a command, todocal runs '%s'.\n", DefaultCommand)
	fmt.Fprintln(out, commonFlagsHelp)
	fmt.Fprintln(out, "Run 'todocal help <command>' for its arguments.")
	return exitcode.Success
}

func writeCommandHelp(out io.Writer, cmd Command) {
	fmt.Fprintf(out, "Usage: %s\n", cmd.Usage())
	fmt.Fprintf(out, "  %s\n", cmd.Synopsis())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(out, "  aliases: %s\n", strings.Join(aliases, ", "))
	}
	fmt.Fprintln(out, commonFlagsHelp)
}

const commonFlagsHelp = "Common flags: --config <dir>  --quiet  --debug"
