package inspect

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"guide2epub/internal/extract"
	"guide2epub/internal/fetch"
)

const pageURL = "https://www.example.com/think/topics/guide"

var samplePage = `<html><head><title>Sample Guide</title></head><body>
<nav class="cmp-side-navigation">
  <ul class="cmp-side-navigation__level0">
    <li class="cmp-side-navigation__section--level0">
      <span class="cmp-side-navigation__item--collapsible">Caret right <b>Guides</b></span>
      <ul class="cmp-side-navigation__level1">
        <li class="cmp-side-navigation__section--level1">
          <a class="cmp-side-navigation__item--level1" href="/think/topics/intro">Intro</a>
        </li>
      </ul>
    </li>
  </ul>
</nav>
<div class="body-article-8"><h1>Sample Guide</h1><p>` + strings.Repeat("words ", 40) + `</p></div>
<div class="main-content"><a href="/x">x</a> text</div>
</body></html>`

type fakeFetcher struct {
	calls     int
	pageCalls int
	html      string
	err       error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (fetch.Result, error) {
	f.calls++
	if f.err != nil {
		return fetch.Result{}, f.err
	}
	return fetch.Result{HTML: f.html, FinalMode: fetch.ModeStatic, SourceInfo: "static"}, nil
}

func (f *fakeFetcher) Page(ctx context.Context, rawURL string) (*goquery.Document, error) {
	f.pageCalls++
	res, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return extract.NewDocument(res.HTML)
}

func (f *fakeFetcher) Mode() fetch.Mode {
	return fetch.ModeStatic
}

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := extract.NewDocument(html)
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	return doc
}

func TestReport_PrintsNavigationAndContent(t *testing.T) {
	var out bytes.Buffer
	err := report(&out, mustDocument(t, samplePage), "static", options{URL: pageURL})
	if err != nil {
		t.Fatalf("report error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Title: Sample Guide",
		"Fetched via: static",
		"Navigation: 1 links in 1 sections",
		"+ Guides",
		"  - Intro (https://www.example.com/think/topics/intro)",
		"div.main-content: links=1",
		`Content selector "div.body-article-8" matches 1 element(s)`,
		"Extracted content:",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Extracted content: content too short") {
		t.Fatalf("expected article to be long enough:\n%s", got)
	}
}

func TestReport_CheckSelector(t *testing.T) {
	var out bytes.Buffer
	err := report(&out, mustDocument(t, samplePage), "", options{URL: pageURL, CheckSelector: "div.body-article-8"})
	if err != nil {
		t.Fatalf("report error: %v", err)
	}
	if !strings.Contains(out.String(), "Found 1 matching element(s)") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Class: body-article-8") {
		t.Fatalf("expected class line:\n%s", out.String())
	}
}

func TestReport_NoNavigation(t *testing.T) {
	var out bytes.Buffer
	html := "<html><body><p>plain</p></body></html>"
	if err := report(&out, mustDocument(t, html), "", options{URL: pageURL}); err != nil {
		t.Fatalf("report error: %v", err)
	}
	if !strings.Contains(out.String(), "Navigation: navigation not found") {
		t.Fatalf("expected missing navigation note:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "- none") {
		t.Fatalf("expected no candidates:\n%s", out.String())
	}
}

func TestLoadHTML_UsesCache(t *testing.T) {
	opts := options{URL: pageURL, UseCache: true, CacheDir: filepath.Join(t.TempDir(), "cache")}
	f := &fakeFetcher{html: samplePage}

	first, err := loadHTML(context.Background(), f, opts)
	if err != nil {
		t.Fatalf("loadHTML error: %v", err)
	}
	second, err := loadHTML(context.Background(), f, opts)
	if err != nil {
		t.Fatalf("loadHTML error: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("expected one network fetch, got %d", f.calls)
	}
	if first.SourceInfo != "static" || second.SourceInfo != "cache" {
		t.Fatalf("unexpected sources: %q %q", first.SourceInfo, second.SourceInfo)
	}
	if second.HTML != samplePage {
		t.Fatal("cached html differs")
	}
}

func TestLoadHTML_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	if _, err := loadHTML(context.Background(), f, options{URL: pageURL}); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestLoadPage_WithoutCacheParsesThroughClient(t *testing.T) {
	f := &fakeFetcher{html: samplePage}
	doc, source, err := loadPage(context.Background(), f, options{URL: pageURL, CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("loadPage error: %v", err)
	}
	if f.pageCalls != 1 || source != "static" {
		t.Fatalf("expected one Page call from static mode, got %d calls source %q", f.pageCalls, source)
	}
	if extract.Title(doc) != "Sample Guide" {
		t.Fatalf("unexpected title %q", extract.Title(doc))
	}
}

func TestLoadPage_CacheReportsSource(t *testing.T) {
	f := &fakeFetcher{html: samplePage}
	opts := options{URL: pageURL, UseCache: true, CacheDir: filepath.Join(t.TempDir(), "cache")}
	if _, _, err := loadPage(context.Background(), f, opts); err != nil {
		t.Fatalf("loadPage error: %v", err)
	}
	_, source, err := loadPage(context.Background(), f, opts)
	if err != nil {
		t.Fatalf("loadPage error: %v", err)
	}
	if source != "cache" || f.pageCalls != 0 || f.calls != 1 {
		t.Fatalf("expected cached page, got source %q page calls %d fetches %d", source, f.pageCalls, f.calls)
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--mode", "static", pageURL})
	if err != nil {
		t.Fatalf("parseOptions error: %v", err)
	}
	if opts.URL != pageURL || opts.Mode != "static" || !opts.Headless {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseOptions(nil); err == nil {
		t.Fatal("expected error without url")
	}
	if _, err := parseOptions([]string{"--mode", "fast", pageURL}); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}
