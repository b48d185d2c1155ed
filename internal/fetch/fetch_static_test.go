package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLooksDynamic(t *testing.T) {
	if !looksDynamic("<html></html>") {
		t.Fatal("expected short html to look dynamic")
	}

	longWithHeading := "<html><body>" + strings.Repeat("x", 2100) + "<h1>Title</h1></body></html>"
	if looksDynamic(longWithHeading) {
		t.Fatal("expected html with headings to not look dynamic")
	}

	longReact := "<html><body><div id=\"root\"></div>" + strings.Repeat("x", 2100) + "</body></html>"
	if !looksDynamic(longReact) {
		t.Fatal("expected react root without headings to look dynamic")
	}
}

func TestFetch_AutoFallsBackToDynamic(t *testing.T) {
	longReact := "<html><body><div id=\"root\"></div>" + strings.Repeat("x", 2100) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(longReact))
	}))
	defer srv.Close()

	page := &fakePage{content: "<html>dynamic</html>"}
	c := New(Options{Mode: ModeAuto})
	c.provider = &fakeProvider{runner: &fakeRunner{browser: &fakeBrowser{page: page}}}

	res, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FinalMode != ModeDynamic || res.SourceInfo != "auto:dynamic" || res.HTML != "<html>dynamic</html>" {
		t.Fatalf("expected auto:dynamic, got %+v", res)
	}
}

func TestFetch_AutoKeepsStatic(t *testing.T) {
	body := "<html><body><h1>Title</h1>" + strings.Repeat("x", 2100) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	provider := &fakeProvider{}
	c := New(Options{Mode: ModeAuto})
	c.provider = provider

	res, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SourceInfo != "auto:static" || res.HTML != body {
		t.Fatalf("expected auto:static, got %+v", res.SourceInfo)
	}
	if provider.runs != 0 {
		t.Fatal("expected no browser session for a static page")
	}
}

func TestFetch_AutoBothFail(t *testing.T) {
	c := New(Options{Mode: ModeAuto, PageTimeout: time.Second})
	c.provider = &fakeProvider{runErr: errors.New("dynamic down")}
	_, err := c.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "static failed") || !strings.Contains(err.Error(), "dynamic failed") {
		t.Fatalf("expected combined error, got %v", err)
	}
}

func TestFetch_StaticStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	provider := &fakeProvider{}
	c := New(Options{Mode: ModeAuto})
	c.provider = provider
	_, err := c.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if provider.runs != 0 {
		t.Fatal("status errors must not fall back to the browser")
	}
}

func TestFetch_StaticTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(Options{Mode: ModeStatic, PageTimeout: 20 * time.Millisecond})
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestPage_SendsUserAgentAndParses(t *testing.T) {
	var gotUA, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotHeader = r.Header.Get("X-Guide")
		_, _ = w.Write([]byte("<html><head><title>T</title></head><body><h1>Hello</h1></body></html>"))
	}))
	defer srv.Close()

	c := New(Options{Mode: ModeStatic, Headers: map[string]string{"X-Guide": "yes"}})
	doc, err := c.Page(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Find("h1").Text() != "Hello" {
		t.Fatalf("unexpected document: %s", doc.Find("body").Text())
	}
	if gotUA != DefaultUserAgent || gotHeader != "yes" {
		t.Fatalf("unexpected request headers: ua=%q header=%q", gotUA, gotHeader)
	}
}

func TestBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	c := New(Options{})
	bin, err := c.Binary(context.Background(), srv.URL+"/x.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bin.ContentType != "image/png" || len(bin.Data) != 4 {
		t.Fatalf("unexpected binary: %+v", bin)
	}
	// The same URL can be fetched again.
	if _, err := c.Binary(context.Background(), srv.URL+"/x.png"); err != nil {
		t.Fatalf("unexpected error on revisit: %v", err)
	}
	if _, err := c.Binary(context.Background(), srv.URL+"/missing.png"); !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("expected to wait")
	}
}
