package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtroode/agentconsole/internal/cli"
	"github.com/dtroode/agentconsole/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	err = cli.Run(ctx, cfg, os.Args[0], os.Args[1:], cli.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	if err == nil {
		return
	}

	var usage cli.UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(os.Stderr, usage.Error())
		for _, line := range usage.UsageLines() {
			fmt.Fprintln(os.Stderr, line)
		}
		os.Exit(2)
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if errors.Is(err, cli.ErrLoggedOut) {
		os.Exit(3)
	}
	os.Exit(1)
}
