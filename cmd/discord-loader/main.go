package main

import (
	"errors"
	"os"

	"github.com/danieljhkim/discord-loader/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		// The host's exit status is passed through as is.
		var exit *cli.ExitError
		if !errors.As(err, &exit) {
			cli.PrintError(err.Error())
		}
		os.Exit(cli.ExitCode(err))
	}
}
