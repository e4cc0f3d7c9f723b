package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/klauern/synkron/internal/cli"
	"github.com/klauern/synkron/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.StatusError(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
