package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"guide2epub/internal/assets"
	"guide2epub/internal/book"
	"guide2epub/internal/cover"
	"guide2epub/internal/extract"
	"guide2epub/internal/fetch"
	"guide2epub/internal/links"
	"guide2epub/internal/report"
	"guide2epub/internal/toc"
)

// source is what a conversion needs from the network.
type source interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Result, error)
	assets.Downloader
	cover.Renderer
}

// Run converts the guide at opts.URL into an EPUB.
func Run(ctx context.Context, opts Options) error {
	normalized, err := normalizeOptions(opts)
	if err != nil {
		return err
	}
	client := fetch.New(buildFetchOptions(normalized))
	defer func() {
		if cerr := client.Close(); cerr != nil {
			zerolog.Ctx(ctx).Debug().Err(cerr).Msg("browser shutdown failed")
		}
	}()
	_, err = newConverter(normalized, client, os.Stdout).run(ctx)
	return err
}

func buildFetchOptions(opts Options) fetch.Options {
	return fetch.Options{
		Mode:            opts.Mode,
		PageTimeout:     opts.Timeout,
		UserAgent:       opts.UserAgent,
		WaitForSelector: opts.WaitFor,
		Headless:        opts.Headless,
		Headers:         opts.Headers,
	}
}

type converter struct {
	opts   Options
	src    source
	out    io.Writer
	images *assets.Resolver
	policy links.Policy
	rep    *report.Report
	now    func() time.Time

	// start holds the already fetched guide page so it is not requested
	// twice when it also appears in the navigation.
	start fetch.Result
}

func newConverter(opts Options, src source, out io.Writer) *converter {
	return &converter{
		opts:   opts,
		src:    src,
		out:    out,
		images: assets.NewResolver(src),
		now:    time.Now,
	}
}

// Result describes a finished conversion.
type Result struct {
	Output       string
	MarkdownPath string
	ReportPath   string
	Book         *book.Book
	Report       *report.Report
}

func (c *converter) run(ctx context.Context) (Result, error) {
	log := zerolog.Ctx(ctx)
	c.rep = report.New(c.opts.URL, c.now())

	log.Info().Str("url", c.opts.URL).Str("mode", string(c.opts.Mode)).Msg("fetching guide page")
	start, err := c.src.Fetch(ctx, c.opts.URL)
	if err != nil {
		return Result{}, fmt.Errorf("unable to fetch guide page: %w", err)
	}
	c.start = start
	doc, err := extract.NewDocument(start.HTML)
	if err != nil {
		return Result{}, fmt.Errorf("unable to parse guide page: %w", err)
	}

	title := strings.TrimSpace(c.opts.Title)
	if title == "" {
		title = extract.Title(doc)
	}
	c.rep.Title = title
	output := outputPath(c.opts, title)
	c.rep.Output = output

	nodes, err := toc.Parse(doc, toc.Options{BaseURL: c.opts.URL, ClassPrefix: c.opts.NavClassPrefix})
	switch {
	case errors.Is(err, toc.ErrNotFound):
		log.Warn().Str("url", c.opts.URL).Msg("no navigation found, converting the single page")
		nodes = toc.Single(title, c.opts.URL)
	case err != nil:
		return Result{}, fmt.Errorf("unable to parse navigation: %w", err)
	}

	plan := planPages(nodes, c.opts.MaxPages)
	if c.opts.DryRun {
		printPlan(c.out, title, output, plan)
		return Result{Output: output, Report: c.rep}, nil
	}

	c.policy = links.Policy{GuideHost: hostOf(c.opts.URL), KeepExternal: c.opts.KeepExternalLinks}
	pages, err := c.convertPages(ctx, plan.Pages)
	if err != nil {
		return Result{}, err
	}
	if len(pages) == 0 {
		return Result{}, errors.New("no pages could be converted")
	}
	c.resolveLinks(ctx, pages)
	c.rep.FailedImages = c.images.Failures()

	coverPNG := c.buildCover(ctx, title)

	b := book.Assemble(book.Input{
		SourceURL: c.opts.URL,
		Title:     title,
		Author:    c.opts.Author,
		Language:  c.opts.Language,
		Modified:  c.now().UTC(),
		TOC:       plan.Tree,
		Pages:     pages,
		Assets:    c.images.Records(),
		Cover:     coverPNG,
	})

	res, err := c.write(ctx, output, b)
	if err != nil {
		return Result{}, err
	}
	printSummary(ctx, res)
	return res, nil
}

// convertPages fetches and processes every planned page in order, pausing
// between requests. Pages that fail are skipped and reported.
func (c *converter) convertPages(ctx context.Context, planned []toc.Node) (map[string]book.Page, error) {
	log := zerolog.Ctx(ctx)
	pages := map[string]book.Page{}
	for i, node := range planned {
		if node.URL != c.opts.URL {
			if err := fetch.Sleep(ctx, c.opts.Delay); err != nil {
				return nil, err
			}
		}
		log.Info().Int("page", i+1).Int("total", len(planned)).Str("url", node.URL).Str("title", node.Title).Msg("converting page")

		page, mode, err := c.processPage(ctx, node, i+1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.skip(ctx, node, err.Error())
			continue
		}
		pages[node.URL] = page
		c.rep.AddPage(report.Page{
			URL:      node.URL,
			Title:    page.Title,
			FileName: page.FileName,
			Mode:     mode,
			Chars:    len(page.Content),
		})
	}
	return pages, nil
}

func (c *converter) skip(ctx context.Context, node toc.Node, reason string) {
	zerolog.Ctx(ctx).Warn().Str("url", node.URL).Str("reason", reason).Msg("skipping page")
	c.rep.Skip(node.URL, node.Title, reason)
}

// resolveLinks is the second link pass. It runs once every page has a file
// name so links between pages can point inside the book.
func (c *converter) resolveLinks(ctx context.Context, pages map[string]book.Page) {
	ix := links.NewIndex(c.opts.URL)
	for pageURL, p := range pages {
		ix.Add(pageURL, p.FileName)
	}
	zerolog.Ctx(ctx).Debug().Int("pages", ix.Len()).Msg("resolving links")
	for pageURL, p := range pages {
		content, stats, err := links.ResolveFragment(p.Content, pageURL, ix)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("url", pageURL).Msg("link resolution failed")
			continue
		}
		p.Content = content
		pages[pageURL] = p
		c.rep.Links.Resolved += stats.Resolved
		c.rep.Links.Unresolved += stats.Unresolved
		c.rep.Links.Fragments += stats.Fragments
	}
}

func (c *converter) buildCover(ctx context.Context, title string) []byte {
	if c.opts.NoCover {
		c.rep.Cover = "disabled"
		return nil
	}
	data, err := cover.Generate(ctx, c.src, title, c.opts.CoverLogo)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("cover generation failed, continuing without cover")
		c.rep.Cover = "failed: " + err.Error()
		return nil
	}
	c.rep.Cover = "generated"
	return data
}

func (c *converter) fetchPage(ctx context.Context, pageURL string) (fetch.Result, error) {
	if pageURL == c.opts.URL && c.start.HTML != "" {
		return c.start, nil
	}
	return c.src.Fetch(ctx, pageURL)
}

func newFragment(html string) (*goquery.Selection, error) {
	doc, err := extract.NewDocument(html)
	if err != nil {
		return nil, err
	}
	return doc.Find("body"), nil
}
