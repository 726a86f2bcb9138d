package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"qcsuite/internal/operations"
)

// Exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitStepFailure = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(execute(ctx, os.Args[1:]))
}

// execute runs the command line and maps the outcome to an exit code
func execute(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var stepErr *stepFailureError
	switch {
	case errors.Is(err, operations.ErrCancelled), ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "interrupted")
		return exitInterrupted
	case errors.As(err, &stepErr):
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitStepFailure
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}
}

// stepFailureError reports a run that completed with failed step executions
type stepFailureError struct {
	failed int
	err    error
}

func (e *stepFailureError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("%d step execution(s) failed", e.failed)
}

func (e *stepFailureError) Unwrap() error {
	return e.err
}
