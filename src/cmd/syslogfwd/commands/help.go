// FILE: syslogfwd/src/cmd/syslogfwd/commands/help.go
package commands

import (
	"fmt"
	"strings"
)

// generalHelpTemplate is shown when no specific command is requested.
const generalHelpTemplate = `syslogfwd: forwards log messages to a remote collector over UDP or TCP.

Usage:
  syslogfwd [command] [options]
  syslogfwd [options]            Same as 'syslogfwd send'

Commands:
%s

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  - Dotted CLI overrides, e.g. --target.address=10.0.0.5 --target.protocol=tcp
  - Environment variables, e.g. SYSLOGFWD_TARGET_ADDRESS
  - TOML file: $SYSLOGFWD_CONFIG_FILE, $SYSLOGFWD_CONFIG_DIR/syslogfwd.toml
    or ~/.config/syslogfwd.toml

For command-specific help:
  syslogfwd help <command>
  syslogfwd <command> --help

Examples:
  # Forward a file line by line over UDP
  syslogfwd send --file app.log --target.address=127.0.0.1 --target.port=5514

  # Watch what arrives on a local TCP port
  syslogfwd listen --tcp 127.0.0.1:5514 --framing octet_counting
`

// HelpCommand displays general or command-specific help.
type HelpCommand struct {
	router *CommandRouter
}

// NewHelpCommand creates a new help command handler.
func NewHelpCommand(router *CommandRouter) *HelpCommand {
	return &HelpCommand{router: router}
}

func (c *HelpCommand) Execute(args []string) error {
	if len(args) > 0 && args[0] != "" {
		cmdName := args[0]

		if handler, exists := c.router.GetCommand(cmdName); exists {
			fmt.Fprint(c.router.out, handler.Help())
			return nil
		}

		return fmt.Errorf("unknown command: %s", cmdName)
	}

	fmt.Fprintf(c.router.out, generalHelpTemplate, c.formatCommandList())
	return nil
}

func (c *HelpCommand) Description() string {
	return "Display help information"
}

func (c *HelpCommand) Help() string {
	return `Help Command - Display help information

Usage:
  syslogfwd help              Show general help
  syslogfwd help <command>    Show help for a specific command
`
}

// formatCommandList creates an aligned list of all available commands.
func (c *HelpCommand) formatCommandList() string {
	names := c.router.names()

	maxLen := 0
	for _, name := range names {
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}

	var lines []string
	for _, name := range names {
		handler := c.router.commands[name]
		padding := strings.Repeat(" ", maxLen-len(name)+2)
		lines = append(lines, fmt.Sprintf("  %s%s%s", name, padding, handler.Description()))
	}

	return strings.Join(lines, "\n")
}
