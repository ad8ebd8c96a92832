package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndewijer/wealth-tracker/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		cli.PrintError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
