package testconfigs

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"guide2epub/internal/app"
	"guide2epub/internal/cli"
	"guide2epub/internal/config"
)

type runFunc func(ctx context.Context, opts app.Options) error

type options struct {
	Dir      string
	MaxPages int
	Convert  bool
}

// Run checks every config file in a directory. By default each one gets a
// dry run, which fetches the guide page and prints its page plan.
func Run(ctx context.Context, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	failed, err := check(ctx, os.Stdout, opts, app.Run)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d config(s) failed", failed)
	}
	return nil
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("test-configs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := options{}
	fs.StringVar(&opts.Dir, "dir", config.DefaultConfigDir, "Directory of config files")
	fs.IntVar(&opts.MaxPages, "max-pages", 3, "Limit pages per guide (0 = all)")
	fs.BoolVar(&opts.Convert, "convert", false, "Write the books instead of a dry run")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func check(ctx context.Context, w io.Writer, opts options, run runFunc) (int, error) {
	dir := resolveDir(opts.Dir)
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read configs dir: %w", err)
	}

	failed := 0
	for _, f := range files {
		if f.IsDir() || !config.HasConfigExtension(f.Name()) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		args := []string{"--config", path, "--max-pages", strconv.Itoa(opts.MaxPages)}
		if !opts.Convert {
			args = append(args, "--dry-run")
		}

		runOpts, _, err := cli.ParseArgs(args)
		if err != nil {
			fmt.Fprintf(w, "%s: INVALID (%v)\n", f.Name(), err)
			failed++
			continue
		}

		fmt.Fprintf(w, "\n=== %s ===\n", f.Name())
		if err := run(ctx, runOpts); err != nil {
			if ctx.Err() != nil {
				return failed, ctx.Err()
			}
			fmt.Fprintf(w, "FAILED: %v\n", err)
			failed++
			continue
		}
		fmt.Fprintln(w, "OK")
	}
	return failed, nil
}

// resolveDir falls back to the other search directories only when the
// default directory is missing.
func resolveDir(dir string) string {
	if _, err := os.Stat(dir); err == nil || dir != config.DefaultConfigDir {
		return dir
	}
	for _, candidate := range config.SearchDirs() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return dir
}
