package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gatekeep/gatekeep/internal/adapters/inbound/cli"
	"github.com/gatekeep/gatekeep/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil && !errors.Is(err, domain.ErrValidationFailed) {
		fmt.Fprintf(os.Stderr, "gatekeep: %v\n", err)
	}
	os.Exit(domain.ExitCode(err))
}
