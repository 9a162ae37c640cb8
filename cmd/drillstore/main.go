// Command drillstore edits drill design documents from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/drillstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
