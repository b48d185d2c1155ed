package entrypoint

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"guide2epub/internal/app"
	"guide2epub/internal/cli"
	"guide2epub/internal/subcommands/inspect"
	"guide2epub/internal/subcommands/testconfigs"
	"guide2epub/internal/tui"
)

func Execute(args []string) (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) > 1 {
		switch args[1] {
		case "inspect":
			ctx = newLogger(os.Stderr, false, false).WithContext(ctx)
			return exitCode(inspect.Run(ctx, args[2:]))
		case "test-configs":
			ctx = newLogger(os.Stderr, false, true).WithContext(ctx)
			return exitCode(testconfigs.Run(ctx, args[2:]))
		}
	}

	if len(args) == 1 {
		res, err := tui.Run()
		if err != nil {
			return 1, err
		}
		if !res.RunNow {
			return 0, nil
		}
		ctx = newLogger(os.Stderr, false, false).WithContext(ctx)
		return exitCode(app.Run(ctx, res.Options))
	}

	opts, initConfig, err := cli.ParseArgs(args[1:])
	if err != nil {
		var exitErr cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code, exitErr.Err
		}
		return 1, err
	}

	if initConfig {
		return exitCode(cli.RunConfigWizard(os.Stdin, os.Stdout))
	}

	ctx = newLogger(os.Stderr, opts.Verbose, opts.Quiet).WithContext(ctx)
	return exitCode(app.Run(ctx, opts))
}

func exitCode(err error) (int, error) {
	if err != nil {
		return 1, err
	}
	return 0, nil
}

func newLogger(w io.Writer, verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
