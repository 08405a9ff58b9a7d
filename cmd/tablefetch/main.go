package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tablefetch/tablefetch/internal/cli/tablefetch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := tablefetch.Run(ctx, os.Args[1:], tablefetch.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	os.Exit(code)
}
