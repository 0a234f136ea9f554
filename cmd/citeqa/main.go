// Command citeqa answers cited questions over a local document collection.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/citeqa/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(wire)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
