package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. Failures
// go to the global logger and to stderr, since the logger is not installed
// until configuration has loaded.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	root := newRootCmd(stdin, stdout)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		logger := zap.L()
		logger.Error("Command failed", zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
