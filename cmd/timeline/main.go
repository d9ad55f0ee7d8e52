// Command timeline stores time-ordered records and pages through them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/timeline/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
