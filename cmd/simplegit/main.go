package main

import (
	"fmt"
	"os"

	"simplegit.dev/simplegit/internal/cli"
	"simplegit.dev/simplegit/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, output.FormatStatus(false, err.Error(), ""))
		}
		os.Exit(1)
	}
}
