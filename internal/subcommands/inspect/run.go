package inspect

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"guide2epub/internal/app"
	"guide2epub/internal/extract"
	"guide2epub/internal/fetch"
	"guide2epub/internal/toc"
)

type candidate struct {
	Selector string
	Links    int
	Text     int
}

type options struct {
	URL             string
	Mode            string
	WaitFor         string
	TimeoutSec      int
	ContentSelector string
	ExcludeSelector string
	NavClassPrefix  string
	CheckSelector   string
	UseCache        bool
	CacheDir        string
	Headless        bool
}

type pageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Result, error)
	Page(ctx context.Context, rawURL string) (*goquery.Document, error)
	Mode() fetch.Mode
}

// Run fetches one page and prints what the converter would see on it.
func Run(ctx context.Context, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(opts.TimeoutSec)*time.Second)
	defer cancel()

	client := fetch.New(fetch.Options{
		Mode:            fetch.Mode(opts.Mode),
		PageTimeout:     time.Duration(opts.TimeoutSec) * time.Second,
		WaitForSelector: opts.WaitFor,
		Headless:        opts.Headless,
	})
	defer func() {
		if cerr := client.Close(); cerr != nil {
			zerolog.Ctx(ctx).Debug().Err(cerr).Msg("browser shutdown failed")
		}
	}()

	doc, source, err := loadPage(ctx, client, opts)
	if err != nil {
		return err
	}
	return report(os.Stdout, doc, source, opts)
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := options{}
	fs.StringVar(&opts.URL, "url", "", "URL to inspect")
	fs.StringVar(&opts.Mode, "mode", string(fetch.ModeAuto), "Fetch mode: auto|static|dynamic")
	fs.StringVar(&opts.WaitFor, "wait-for", "", "CSS selector to wait for (dynamic mode)")
	fs.IntVar(&opts.TimeoutSec, "timeout", int(app.DefaultTimeout/time.Second), "Timeout seconds")
	fs.StringVar(&opts.ContentSelector, "content-selector", "", "Article container selector to try")
	fs.StringVar(&opts.ExcludeSelector, "exclude-selector", "", "Selector removed from the article")
	fs.StringVar(&opts.NavClassPrefix, "nav-class-prefix", "", "Class prefix of the navigation widget")
	fs.StringVar(&opts.CheckSelector, "check-selector", "", "Specific selector to validate")
	fs.BoolVar(&opts.UseCache, "cache", false, "Use disk cache for HTML content")
	fs.StringVar(&opts.CacheDir, "cache-dir", fetch.DefaultCacheDir, "Cache directory")
	fs.BoolVar(&opts.Headless, "headless", true, "Run browser headless")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.URL == "" && fs.NArg() > 0 {
		opts.URL = fs.Arg(0)
	}
	opts.URL = strings.TrimSpace(opts.URL)
	if opts.URL == "" {
		return options{}, errors.New("--url is required")
	}
	if opts.TimeoutSec <= 0 {
		return options{}, errors.New("--timeout must be positive")
	}
	switch fetch.Mode(opts.Mode) {
	case fetch.ModeAuto, fetch.ModeStatic, fetch.ModeDynamic:
	default:
		return options{}, fmt.Errorf("invalid --mode %q", opts.Mode)
	}
	return opts, nil
}

// loadPage returns the parsed page and where it came from. The cache stores
// raw HTML, so only the cached path goes through Fetch.
func loadPage(ctx context.Context, f pageFetcher, opts options) (*goquery.Document, string, error) {
	if !opts.UseCache {
		doc, err := f.Page(ctx, opts.URL)
		if err != nil {
			return nil, "", err
		}
		return doc, string(f.Mode()), nil
	}
	result, err := loadHTML(ctx, f, opts)
	if err != nil {
		return nil, "", err
	}
	doc, err := extract.NewDocument(result.HTML)
	if err != nil {
		return nil, "", err
	}
	return doc, result.SourceInfo, nil
}

func loadHTML(ctx context.Context, f pageFetcher, opts options) (fetch.Result, error) {
	cachePath := fetch.CachePath(opts.CacheDir, opts.URL)
	if opts.UseCache {
		if res, ok := fetch.LoadCached(cachePath); ok {
			zerolog.Ctx(ctx).Info().Str("path", cachePath).Msg("loaded from cache")
			return res, nil
		}
	}

	result, err := f.Fetch(ctx, opts.URL)
	if err != nil {
		return fetch.Result{}, err
	}

	if opts.UseCache {
		if err := fetch.SaveToCache(cachePath, result.HTML); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", cachePath).Msg("cache write failed")
		}
	}
	return result, nil
}

func report(w io.Writer, doc *goquery.Document, source string, opts options) error {
	if strings.TrimSpace(opts.CheckSelector) != "" {
		inspectSpecificSelector(w, doc, opts.CheckSelector)
		return nil
	}

	fmt.Fprintf(w, "Title: %s\n", extract.Title(doc))
	if source != "" {
		fmt.Fprintf(w, "Fetched via: %s\n", source)
	}
	printNavigation(w, doc, opts)
	printCandidates(w, collectCandidates(doc))
	printArticle(w, doc, opts)
	return nil
}

func printNavigation(w io.Writer, doc *goquery.Document, opts options) {
	nodes, err := toc.Parse(doc, toc.Options{BaseURL: opts.URL, ClassPrefix: opts.NavClassPrefix})
	if err != nil {
		fmt.Fprintf(w, "\nNavigation: %v\n", err)
		return
	}
	links, sections := toc.Count(nodes)
	fmt.Fprintf(w, "\nNavigation: %d links in %d sections\n", links, sections)
	toc.Walk(nodes, func(n toc.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		if n.Kind == toc.KindSection {
			fmt.Fprintf(w, "%s+ %s\n", indent, n.Title)
			return
		}
		fmt.Fprintf(w, "%s- %s (%s)\n", indent, n.Title, n.URL)
	})
}

func collectCandidates(doc *goquery.Document) []candidate {
	candidates := []candidate{}
	extract.Candidates(doc).Each(func(_ int, s *goquery.Selection) {
		candidates = append(candidates, candidate{
			Selector: nodeSelector(s),
			Links:    s.Find("a").Length(),
			Text:     len(strings.TrimSpace(s.Text())),
		})
	})
	return candidates
}

func printCandidates(w io.Writer, candidates []candidate) {
	fmt.Fprintln(w, "\nArticle container candidates (links/text length):")
	if len(candidates) == 0 {
		fmt.Fprintln(w, "- none")
	}
	for _, c := range candidates {
		fmt.Fprintf(w, "- %s: links=%d text=%d\n", c.Selector, c.Links, c.Text)
	}
}

func printArticle(w io.Writer, doc *goquery.Document, opts options) {
	selector := opts.ContentSelector
	if selector == "" {
		selector = extract.DefaultSelector
	}
	fmt.Fprintf(w, "\nContent selector %q matches %d element(s)\n", selector, doc.Find(selector).Length())
	content, err := extract.Article(doc, extract.Options{Selector: opts.ContentSelector, Exclude: opts.ExcludeSelector})
	if err != nil {
		fmt.Fprintf(w, "Extracted content: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Extracted content: %d chars\n", len([]rune(content)))
}

func nodeSelector(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if id, exists := s.Attr("id"); exists && id != "" {
		return fmt.Sprintf("#%s", id)
	}
	if classStr, exists := s.Attr("class"); exists {
		classes := strings.Fields(classStr)
		if len(classes) > 0 {
			return fmt.Sprintf("%s.%s", s.Get(0).Data, strings.Join(classes, "."))
		}
	}
	return s.Get(0).Data
}

func inspectSpecificSelector(w io.Writer, doc *goquery.Document, selector string) {
	sel := doc.Find(selector)
	fmt.Fprintf(w, "Inspecting selector: '%s'\n", selector)
	fmt.Fprintf(w, "Found %d matching element(s)\n", sel.Length())

	sel.Each(func(i int, s *goquery.Selection) {
		if i >= 3 {
			return
		}
		fmt.Fprintf(w, "\n--- Match #%d ---\n", i+1)
		fmt.Fprintf(w, "Tag: %s\n", s.Get(0).Data)
		if id, ok := s.Attr("id"); ok {
			fmt.Fprintf(w, "ID: %s\n", id)
		}
		if class, ok := s.Attr("class"); ok {
			fmt.Fprintf(w, "Class: %s\n", class)
		}

		text := []rune(strings.Join(strings.Fields(s.Text()), " "))
		fmt.Fprintf(w, "Text Length: %d chars\n", len(text))
		if len(text) > 100 {
			fmt.Fprintf(w, "Text Preview: %s...\n", string(text[:100]))
		} else {
			fmt.Fprintf(w, "Text Preview: %s\n", string(text))
		}
		fmt.Fprintf(w, "Links inside: %d\n", s.Find("a").Length())
	})
}
