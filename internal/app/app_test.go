package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"guide2epub/internal/app"
	"guide2epub/internal/fetch"
)

const body = "Static pages are converted without a browser when the server returns complete markup for the article. "

func TestRun_StaticGuide(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Static Guide</title></head><body>
<nav class="cmp-side-navigation"><ul class="cmp-side-navigation__level0">
<li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="/guide/one">One</a></li>
<li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="/guide/two">Two</a></li>
</ul></nav>
<div class="body-article-8"><p>` + body + `</p></div></body></html>`))
	})
	mux.HandleFunc("/guide/one", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div class="body-article-8"><h2>One</h2><p>` + body + `<a href="/guide/two">next</a></p><img src="/pic.png"></div></body></html>`))
	})
	mux.HandleFunc("/guide/two", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div class="body-article-8"><h2>Two</h2><p>` + body + `</p></div></body></html>`))
	})
	mux.HandleFunc("/pic.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir := t.TempDir()
	opts := app.Options{
		URL:        srv.URL + "/guide",
		Output:     filepath.Join(dir, "static.epub"),
		Mode:       fetch.ModeStatic,
		Timeout:    5 * time.Second,
		NoCover:    true,
		ReportPath: filepath.Join(dir, "report.json"),
	}
	if err := app.Run(ctx, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(opts.Output)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected epub to be written: %v", err)
	}
	data, err := os.ReadFile(opts.ReportPath)
	if err != nil {
		t.Fatalf("expected report: %v", err)
	}
	if !strings.Contains(string(data), `"file_name": "chapter_002.xhtml"`) || !strings.Contains(string(data), `"downloaded": 1`) {
		t.Fatalf("unexpected report: %s", data)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Solo</h1><div class="body-article-8"><p>` + body + `</p></div></body></html>`))
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "solo.epub")
	opts := app.Options{URL: srv.URL, Output: output, Mode: fetch.ModeStatic, DryRun: true}
	if err := app.Run(context.Background(), opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write output")
	}
}

func TestRun_StartPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	opts := app.Options{URL: srv.URL, Output: filepath.Join(t.TempDir(), "x.epub"), Mode: fetch.ModeStatic}
	err := app.Run(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "unable to fetch guide page") {
		t.Fatalf("expected start page error, got %v", err)
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	cases := []app.Options{
		{},
		{URL: "not a url"},
		{URL: "ftp://example.com/guide"},
		{URL: "https://example.com/guide", Mode: "turbo"},
		{URL: "https://example.com/guide", MaxPages: -1},
	}
	for _, opts := range cases {
		if err := app.Run(context.Background(), opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"What is Machine Learning?":  "what_is_machine_learning",
		"  A -- B  ":                 "a_b",
		"Café & Co.":                 "caf_co",
		"":                           "guide",
		strings.Repeat("abcde ", 20): "abcde_abcde_abcde_abcde_abcde_abcde_abcde_abcde_ab",
	}
	for in, want := range tests {
		if got := app.Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
