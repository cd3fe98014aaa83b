package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/stackscope/internal/cli"
	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/pipeline"
)

func main() {
	// Writes to a closed pipe return EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := pipeline.NewPipeWriter(os.Stdout)
	err := cli.New(out, os.Stderr, os.Stdin).Execute(ctx, os.Args[1:])
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status. A reader that
// went away (EPIPE) ends the run successfully.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, syscall.EPIPE):
		return 0
	case errors.Is(err, context.Canceled):
		return 130 // Standard shell convention for SIGINT
	}
	fmt.Fprintln(os.Stderr, "Error:", apperrors.UserMessage(err))
	return 1
}
