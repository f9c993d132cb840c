// contentos runs Content OS workspace jobs from the command line: creating
// the workspace, analyzing and reorganizing it, and exporting databases.
//
// Configuration comes from .env, the environment and an optional YAML file
// (--config or $CONTENTOS_CONFIG). Output is JSON on stdout; logs go to
// stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
