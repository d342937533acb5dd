package main

import (
	"os"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
