package main

import (
	"fmt"
	"os"

	"github.com/roach88/tracegraph/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(cli.GetExitCode(err))
	}
}
