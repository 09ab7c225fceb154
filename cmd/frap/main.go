// Command frap runs cyclic reactive applications and their conformance
// scenarios.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/frap/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
