// FILE: syslogfwd/src/cmd/syslogfwd/commands/version.go
package commands

import (
	"fmt"
	"io"
	"os"

	"syslogfwd/src/internal/version"
)

// VersionCommand handles version display
type VersionCommand struct {
	out io.Writer
}

// NewVersionCommand creates a new version command
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{out: os.Stdout}
}

func (c *VersionCommand) Execute(args []string) error {
	fmt.Fprintln(c.out, version.String())
	return nil
}

func (c *VersionCommand) Description() string {
	return "Show version information"
}

func (c *VersionCommand) Help() string {
	return `Version Command - Show syslogfwd version information

Usage:
  syslogfwd version

Output includes:
  - Version number
  - Git commit hash
  - Build time
`
}
