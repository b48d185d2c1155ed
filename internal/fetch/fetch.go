package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultPageTimeout  = 30 * time.Second
	DefaultImageTimeout = 10 * time.Second
)

var ErrStatus = errors.New("unexpected http status")

type Options struct {
	Mode            Mode
	PageTimeout     time.Duration
	ImageTimeout    time.Duration
	UserAgent       string
	WaitForSelector string
	Headless        bool
	Headers         map[string]string
}

type Result struct {
	HTML       string
	FinalMode  Mode
	SourceInfo string
}

type Binary struct {
	Data        []byte
	ContentType string
}

// Client fetches guide pages and their images. It is used from a single
// goroutine; the browser session is started on first dynamic use and kept
// until Close.
type Client struct {
	opts     Options
	pages    *colly.Collector
	images   *colly.Collector
	provider dynamicProvider
	session  *browserSession
}

func New(opts Options) *Client {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = DefaultImageTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		opts:     opts,
		pages:    newCollector(opts.UserAgent, opts.PageTimeout),
		images:   newCollector(opts.UserAgent, opts.ImageTimeout),
		provider: playwrightProvider{},
	}
}

func (c *Client) Mode() Mode {
	return c.opts.Mode
}

// Fetch returns the page HTML using the configured mode.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if rawURL == "" {
		return Result{}, errors.New("url is required")
	}

	switch c.opts.Mode {
	case ModeStatic:
		html, err := c.fetchStatic(ctx, rawURL)
		if err != nil {
			return Result{}, err
		}
		return Result{HTML: html, FinalMode: ModeStatic, SourceInfo: "static"}, nil
	case ModeDynamic:
		html, err := c.fetchDynamic(ctx, rawURL)
		if err != nil {
			return Result{}, err
		}
		return Result{HTML: html, FinalMode: ModeDynamic, SourceInfo: "dynamic"}, nil
	case ModeAuto:
		html, err := c.fetchStatic(ctx, rawURL)
		if err == nil && !looksDynamic(html) {
			return Result{HTML: html, FinalMode: ModeStatic, SourceInfo: "auto:static"}, nil
		}
		if errors.Is(err, ErrStatus) || errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		html, derr := c.fetchDynamic(ctx, rawURL)
		if derr != nil {
			if err != nil {
				return Result{}, fmt.Errorf("static failed: %v; dynamic failed: %w", err, derr)
			}
			return Result{}, derr
		}
		return Result{HTML: html, FinalMode: ModeDynamic, SourceInfo: "auto:dynamic"}, nil
	default:
		return Result{}, fmt.Errorf("unknown mode: %s", c.opts.Mode)
	}
}

// Page fetches rawURL and parses it.
func (c *Client) Page(ctx context.Context, rawURL string) (*goquery.Document, error) {
	res, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
}

// Binary downloads an image with the image timeout.
func (c *Client) Binary(ctx context.Context, rawURL string) (Binary, error) {
	bin, err := c.get(ctx, c.images, rawURL)
	if err != nil {
		return Binary{}, err
	}
	if len(bin.Data) == 0 {
		return Binary{}, errors.New("empty response body")
	}
	return bin, nil
}

func (c *Client) Close() error {
	return c.closeSession()
}

func (c *Client) fetchStatic(ctx context.Context, rawURL string) (string, error) {
	bin, err := c.get(ctx, c.pages, rawURL)
	if err != nil {
		return "", err
	}
	return string(bytes.ToValidUTF8(bin.Data, nil)), nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func looksDynamic(html string) bool {
	trimmed := strings.TrimSpace(html)
	if len(trimmed) < 2000 {
		return true
	}
	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "<h1") && !strings.Contains(lower, "<h2") && !strings.Contains(lower, "<h3") {
		if strings.Contains(lower, "id=\"root\"") || strings.Contains(lower, "id=\"app\"") || strings.Contains(lower, "data-reactroot") {
			return true
		}
	}
	return false
}
