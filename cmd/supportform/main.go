// Command supportform fills in, saves and submits a social support
// application from the terminal, or serves the same draft over HTTP.
package main

import (
	"os"

	"github.com/yndnr/supportform/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
