// FILE: syslogfwd/src/cmd/syslogfwd/main.go
package main

import (
	"os"

	"syslogfwd/src/cmd/syslogfwd/commands"
)

func main() {
	router := commands.NewCommandRouter()
	router.Register("send", newSendCommand())
	router.Register("listen", newListenCommand())

	handled, err := router.Route(os.Args)
	if err != nil {
		FatalError(1, "Error: %v\n", err)
	}
	if handled {
		return
	}

	// No subcommand: send is the default
	if err := newSendCommand().Execute(os.Args[1:]); err != nil {
		FatalError(1, "Error: %v\n", err)
	}
}
