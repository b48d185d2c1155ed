package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"guide2epub/internal/app"
	"guide2epub/internal/book"
	"guide2epub/internal/config"
	"guide2epub/internal/fetch"
)

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

func (e ExitError) Unwrap() error { return e.Err }

// ParseArgs turns command line arguments into run options. The second
// return value asks for the config wizard instead of a run.
func ParseArgs(args []string) (app.Options, bool, error) {
	return parseArgs(args, os.Stderr)
}

func parseArgs(args []string, usage io.Writer) (app.Options, bool, error) {
	parsed, err := parseFlags(args, usage)
	if errors.Is(err, flag.ErrHelp) {
		return app.Options{}, false, ExitError{Code: 0}
	}
	if err != nil {
		return app.Options{}, false, ExitError{Code: 2, Err: err}
	}
	if parsed.initConfig {
		return app.Options{}, true, nil
	}

	cfg, err := loadConfig(parsed.configStr)
	if err != nil {
		return app.Options{}, false, err
	}
	applyConfigDefaults(&parsed, cfg)
	return buildOptions(parsed)
}

type parsedFlags struct {
	urlStr       string
	configStr    string
	initConfig   bool
	dryRun       boolFlag
	output       stringFlag
	title        stringFlag
	author       stringFlag
	language     stringFlag
	modeStr      stringFlag
	timeout      intFlag
	delay        floatFlag
	userAgent    stringFlag
	waitFor      stringFlag
	headless     boolFlag
	headers      stringMapFlag
	contentSel   stringFlag
	excludeSel   stringFlag
	navPrefix    stringFlag
	maxPages     intFlag
	keepExternal boolFlag
	noCover      boolFlag
	coverLogo    stringFlag
	markdown     boolFlag
	reportPath   stringFlag
	postCommands stringListFlag
	verbose      bool
	quiet        bool
}

func parseFlags(args []string, usage io.Writer) (parsedFlags, error) {
	fs := flag.NewFlagSet("guide2epub", flag.ContinueOnError)
	fs.SetOutput(usage)
	parsed := parsedFlags{}

	fs.StringVar(&parsed.urlStr, "url", "", "Guide URL (may also be given as the first argument)")
	fs.StringVar(&parsed.configStr, "config", "", "Path to a JSON or YAML config file")
	fs.BoolVar(&parsed.initConfig, "init-config", false, "Interactive config wizard")
	fs.Var(&parsed.dryRun, "dry-run", "Print the table of contents and page plan; write nothing")
	fs.Var(&parsed.output, "output", "Output EPUB path (default: slug of the title)")
	fs.Var(&parsed.title, "title", "Book title (default: detected from the guide page)")
	parsed.author.Value = book.DefaultAuthor
	fs.Var(&parsed.author, "author", "Book author")
	parsed.language.Value = book.DefaultLanguage
	fs.Var(&parsed.language, "language", "Book language")
	parsed.modeStr.Value = string(fetch.ModeAuto)
	fs.Var(&parsed.modeStr, "mode", "Fetch mode: auto|static|dynamic")
	parsed.timeout.Value = int(app.DefaultTimeout / time.Second)
	fs.Var(&parsed.timeout, "timeout", "Page timeout seconds")
	parsed.delay.Value = app.DefaultDelay.Seconds()
	fs.Var(&parsed.delay, "delay", "Seconds to wait between page fetches")
	fs.Var(&parsed.userAgent, "user-agent", "User-Agent header")
	fs.Var(&parsed.waitFor, "wait-for", "CSS selector to wait for (dynamic mode)")
	parsed.headless.Value = true
	fs.Var(&parsed.headless, "headless", "Run browser headless (dynamic mode)")
	fs.Var(&parsed.headers, "header", "Extra request header key=value (repeatable)")
	fs.Var(&parsed.contentSel, "content-selector", "CSS selector for the article container")
	fs.Var(&parsed.excludeSel, "exclude-selector", "CSS selector to remove from articles")
	fs.Var(&parsed.navPrefix, "nav-class-prefix", "Class prefix of the navigation widget")
	fs.Var(&parsed.maxPages, "max-pages", "Convert at most this many pages (0 = all)")
	fs.Var(&parsed.keepExternal, "keep-external-links", "Keep links to other sites")
	fs.Var(&parsed.noCover, "no-cover", "Do not generate a cover image")
	fs.Var(&parsed.coverLogo, "cover-logo", "Image shown on the generated cover")
	fs.Var(&parsed.markdown, "markdown", "Also write a Markdown copy of the book")
	fs.Var(&parsed.reportPath, "report", "Write a JSON run report to this path")
	fs.Var(&parsed.postCommands, "post-command", "Shell command to run after writing (repeatable)")
	fs.BoolVar(&parsed.verbose, "verbose", false, "Debug logging")
	fs.BoolVar(&parsed.quiet, "quiet", false, "Only log warnings and errors")

	if err := fs.Parse(args); err != nil {
		return parsed, err
	}
	if parsed.urlStr == "" && fs.NArg() > 0 {
		parsed.urlStr = fs.Arg(0)
	}
	if fs.NArg() > 1 || (fs.NArg() == 1 && parsed.urlStr != fs.Arg(0)) {
		return parsed, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if parsed.verbose && parsed.quiet {
		return parsed, errors.New("--verbose and --quiet are mutually exclusive")
	}
	return parsed, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	return config.Load(path)
}

// applyConfigDefaults fills every flag the user did not set from the
// config file.
func applyConfigDefaults(parsed *parsedFlags, cfg config.Config) {
	if parsed.urlStr == "" {
		parsed.urlStr = cfg.URL
	}
	applyString(&parsed.output, cfg.Output)
	applyString(&parsed.title, cfg.Title)
	applyString(&parsed.author, cfg.Author)
	applyString(&parsed.language, cfg.Language)
	applyString(&parsed.modeStr, cfg.Mode)
	applyString(&parsed.userAgent, cfg.UserAgent)
	applyString(&parsed.waitFor, cfg.WaitForSelector)
	applyString(&parsed.contentSel, cfg.ContentSelector)
	applyString(&parsed.excludeSel, cfg.ExcludeSelector)
	applyString(&parsed.navPrefix, cfg.NavClassPrefix)
	applyString(&parsed.coverLogo, cfg.CoverLogo)
	applyString(&parsed.reportPath, cfg.Report)

	if !parsed.timeout.WasSet && cfg.TimeoutSeconds > 0 {
		parsed.timeout.Value = cfg.TimeoutSeconds
	}
	if !parsed.delay.WasSet && cfg.DelaySeconds != nil {
		parsed.delay.Value = *cfg.DelaySeconds
	}
	if !parsed.maxPages.WasSet && cfg.MaxPages > 0 {
		parsed.maxPages.Value = cfg.MaxPages
	}
	if !parsed.headless.WasSet && cfg.Headless != nil {
		parsed.headless.Value = *cfg.Headless
	}
	applyBool(&parsed.keepExternal, cfg.KeepExternalLinks)
	applyBool(&parsed.noCover, cfg.NoCover)
	applyBool(&parsed.markdown, cfg.Markdown)

	for key, value := range cfg.Headers {
		if _, ok := parsed.headers.Values[key]; ok {
			continue
		}
		if parsed.headers.Values == nil {
			parsed.headers.Values = map[string]string{}
		}
		parsed.headers.Values[key] = value
	}
	if !parsed.postCommands.WasSet {
		parsed.postCommands.Values = cfg.PostCommands
	}
}

func applyString(f *stringFlag, value string) {
	if !f.WasSet && value != "" {
		f.Value = value
	}
}

func applyBool(f *boolFlag, value bool) {
	if !f.WasSet && value {
		f.Value = true
	}
}

func buildOptions(parsed parsedFlags) (app.Options, bool, error) {
	if parsed.urlStr == "" {
		return app.Options{}, false, ExitError{Code: 2, Err: errors.New("a guide URL is required (--url or first argument)")}
	}
	if parsed.timeout.Value <= 0 {
		return app.Options{}, false, ExitError{Code: 2, Err: errors.New("--timeout must be positive")}
	}
	if parsed.delay.Value < 0 {
		return app.Options{}, false, ExitError{Code: 2, Err: errors.New("--delay must be >= 0")}
	}
	if parsed.maxPages.Value < 0 {
		return app.Options{}, false, ExitError{Code: 2, Err: errors.New("--max-pages must be >= 0")}
	}

	opts := app.Options{
		URL:               strings.TrimSpace(parsed.urlStr),
		Output:            parsed.output.Value,
		Title:             parsed.title.Value,
		Author:            parsed.author.Value,
		Language:          parsed.language.Value,
		Mode:              fetch.Mode(strings.ToLower(strings.TrimSpace(parsed.modeStr.Value))),
		Timeout:           time.Duration(parsed.timeout.Value) * time.Second,
		Delay:             time.Duration(parsed.delay.Value * float64(time.Second)),
		UserAgent:         parsed.userAgent.Value,
		WaitFor:           parsed.waitFor.Value,
		Headless:          parsed.headless.Value,
		Headers:           parsed.headers.Values,
		ContentSelector:   parsed.contentSel.Value,
		ExcludeSelector:   parsed.excludeSel.Value,
		NavClassPrefix:    parsed.navPrefix.Value,
		MaxPages:          parsed.maxPages.Value,
		KeepExternalLinks: parsed.keepExternal.Value,
		NoCover:           parsed.noCover.Value,
		CoverLogo:         parsed.coverLogo.Value,
		DryRun:            parsed.dryRun.Value,
		Markdown:          parsed.markdown.Value,
		ReportPath:        parsed.reportPath.Value,
		PostCommands:      parsed.postCommands.Values,
		Verbose:           parsed.verbose,
		Quiet:             parsed.quiet,
	}
	return opts, false, nil
}
