package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/buildgrid/internal/app"
	"github.com/vk/buildgrid/internal/cli"
)

// main is the entrypoint for the buildgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	return app.NewApp(outW, errW, appConfig).Run(ctx)
}

// exitCode maps the result of run to the process exit code. The report of
// a failed build has already been printed, so only other errors are echoed.
func exitCode(err error, errW io.Writer) int {
	var exitErr *cli.ExitError
	switch {
	case err == nil:
		return cli.ExitOK
	case errors.As(err, &exitErr):
		fmt.Fprintln(errW, exitErr.Message)
		return exitErr.Code
	case errors.Is(err, app.ErrBuildFailed):
		return cli.ExitBuildFailed
	default:
		fmt.Fprintln(errW, err)
		return cli.ExitBuildFailed
	}
}
