package app

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"guide2epub/internal/fetch"
)

const (
	DefaultDelay   = time.Second
	DefaultTimeout = fetch.DefaultPageTimeout
	slugMaxLen     = 50
)

type Options struct {
	URL      string
	Output   string
	Title    string
	Author   string
	Language string

	Mode      fetch.Mode
	Timeout   time.Duration
	Delay     time.Duration
	UserAgent string
	WaitFor   string
	Headless  bool
	Headers   map[string]string

	ContentSelector   string
	ExcludeSelector   string
	NavClassPrefix    string
	MaxPages          int
	KeepExternalLinks bool

	NoCover   bool
	CoverLogo string

	DryRun       bool
	Markdown     bool
	ReportPath   string
	PostCommands []string

	Verbose bool
	Quiet   bool
}

func normalizeOptions(opts Options) (Options, error) {
	opts.URL = strings.TrimSpace(opts.URL)
	if opts.URL == "" {
		return opts, errors.New("url is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return opts, errors.New("url must be an absolute http(s) url")
	}
	if opts.Mode == "" {
		opts.Mode = fetch.ModeAuto
	}
	switch opts.Mode {
	case fetch.ModeAuto, fetch.ModeStatic, fetch.ModeDynamic:
	default:
		return opts, errors.New("mode must be auto, static or dynamic")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.MaxPages < 0 {
		return opts, errors.New("max pages must be >= 0")
	}
	return opts, nil
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugSeparate = regexp.MustCompile(`[-\s]+`)
)

// Slug turns a book title into a file name stem.
func Slug(title string) string {
	s := slugStrip.ReplaceAllString(title, "")
	s = slugSeparate.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.ToLower(s)
	if len(s) > slugMaxLen {
		s = s[:slugMaxLen]
	}
	if s == "" {
		s = "guide"
	}
	return s
}

// outputPath returns the package path, deriving it from the title when no
// output was given.
func outputPath(opts Options, title string) string {
	if opts.Output != "" {
		if strings.HasSuffix(opts.Output, string(filepath.Separator)) {
			return filepath.Join(opts.Output, Slug(title)+".epub")
		}
		return opts.Output
	}
	return Slug(title) + ".epub"
}
