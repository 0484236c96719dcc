package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bullbear-labs/bullbear-deploy/internal/cli"
	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	lggr, err := logger.New()
	if err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: failed to create logger: %v\n", err)
		os.Exit(1)
	}

	code := run(ctx, cli.Config{Logger: lggr}, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the deploy command and returns the process exit status. Failures are written to
// stderr as a single "error: <err>" line.
func run(ctx context.Context, cfg cli.Config, args []string, stdout, stderr io.Writer) int {
	cmd, err := cli.NewCommand(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	return 0
}
