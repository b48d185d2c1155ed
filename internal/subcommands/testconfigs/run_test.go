package testconfigs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"guide2epub/internal/app"
	"guide2epub/internal/config"
)

func TestCheck_RunsEveryConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignore"), 0600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := config.Save(filepath.Join(dir, "good.yaml"), config.Config{URL: "https://www.example.com/good"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := config.Save(filepath.Join(dir, "bad.json"), config.Config{URL: "https://www.example.com/bad"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := config.Save(filepath.Join(dir, "empty.json"), config.Config{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var seen []app.Options
	run := func(_ context.Context, opts app.Options) error {
		seen = append(seen, opts)
		if strings.HasSuffix(opts.URL, "/bad") {
			return errors.New("unable to fetch guide page")
		}
		return nil
	}

	var out bytes.Buffer
	failed, err := check(context.Background(), &out, options{Dir: dir, MaxPages: 2}, run)
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	if failed != 2 {
		t.Fatalf("expected 2 failures, got %d\n%s", failed, out.String())
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(seen))
	}
	for _, opts := range seen {
		if !opts.DryRun || opts.MaxPages != 2 {
			t.Fatalf("expected dry run capped at 2 pages: %+v", opts)
		}
	}
	got := out.String()
	for _, want := range []string{"empty.json: INVALID", "=== good.yaml ===", "OK", "FAILED: unable to fetch guide page"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestCheck_MissingDir(t *testing.T) {
	_, err := check(context.Background(), &bytes.Buffer{}, options{Dir: filepath.Join(t.TempDir(), "nope")}, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--dir", "x", "--convert"})
	if err != nil {
		t.Fatalf("parseOptions error: %v", err)
	}
	if opts.Dir != "x" || !opts.Convert || opts.MaxPages != 3 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
