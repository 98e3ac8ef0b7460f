// FILE: syslogfwd/src/cmd/syslogfwd/commands/router.go
package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Handler defines the interface required for all subcommands.
type Handler interface {
	Execute(args []string) error
	Description() string
	Help() string
}

// CommandRouter routes CLI arguments to the matching subcommand handler.
type CommandRouter struct {
	commands map[string]Handler
	out      io.Writer
}

// NewCommandRouter creates the router with the built-in commands registered.
// Commands needing the application runtime are added with Register.
func NewCommandRouter() *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]Handler),
		out:      os.Stdout,
	}

	router.commands["version"] = NewVersionCommand()
	router.commands["help"] = NewHelpCommand(router)

	return router
}

// Register adds or replaces a subcommand
func (r *CommandRouter) Register(name string, handler Handler) {
	r.commands[name] = handler
}

// Route executes the subcommand named by args[1]. It returns false when args carry no
// subcommand, leaving the caller to run its default action.
func (r *CommandRouter) Route(args []string) (bool, error) {
	if len(args) < 2 {
		return false, nil
	}

	cmdName := args[1]

	// Help flag at any position
	for _, arg := range args[1:] {
		if arg == "-h" || arg == "--help" {
			if handler, exists := r.commands[cmdName]; exists && cmdName != "help" {
				fmt.Fprint(r.out, handler.Help())
				return true, nil
			}
			return true, r.commands["help"].Execute(nil)
		}
	}

	handler, exists := r.commands[cmdName]
	if !exists {
		if cmdName != "" && cmdName[0] != '-' {
			return false, fmt.Errorf("unknown command: %s\n\nRun 'syslogfwd help' for usage", cmdName)
		}
		// A flag, belongs to the default command
		return false, nil
	}

	return true, handler.Execute(args[2:])
}

// GetCommand returns a command handler by name.
func (r *CommandRouter) GetCommand(name string) (Handler, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommands returns all registered commands.
func (r *CommandRouter) GetCommands() map[string]Handler {
	return r.commands
}

// names returns command names sorted
func (r *CommandRouter) names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
