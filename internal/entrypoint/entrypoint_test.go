package entrypoint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger_Levels(t *testing.T) {
	cases := []struct {
		verbose, quiet bool
		want           zerolog.Level
	}{
		{false, false, zerolog.InfoLevel},
		{true, false, zerolog.DebugLevel},
		{false, true, zerolog.WarnLevel},
	}
	for _, tc := range cases {
		logger := newLogger(&bytes.Buffer{}, tc.verbose, tc.quiet)
		if got := logger.GetLevel(); got != tc.want {
			t.Fatalf("verbose=%v quiet=%v: level %v, want %v", tc.verbose, tc.quiet, got, tc.want)
		}
	}
}

func TestNewLogger_WritesConsoleFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, false)
	logger.Warn().Str("url", "https://x.example/a").Str("reason", "content too short").Msg("skipping page")
	logger.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, "skipping page") || !strings.Contains(out, "reason=") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug event should be filtered: %q", out)
	}
}

func TestExecute_UsageError(t *testing.T) {
	code, err := Execute([]string{"guide2epub", "--bogus"})
	if code != 2 || err == nil {
		t.Fatalf("expected usage error, got code=%d err=%v", code, err)
	}
}

func TestExecute_InvalidURL(t *testing.T) {
	code, err := Execute([]string{"guide2epub", "--url", "not-a-url"})
	if code != 1 || err == nil {
		t.Fatalf("expected failure, got code=%d err=%v", code, err)
	}
}
