package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"guide2epub/internal/book"
	"guide2epub/internal/extract"
	"guide2epub/internal/links"
	"guide2epub/internal/sanitize"
	"guide2epub/internal/toc"
)

type pagePlan struct {
	// Pages are the unique links to convert, in navigation order.
	Pages []toc.Node
	// Tree is the navigation restricted to Pages.
	Tree []toc.Node
}

// planPages flattens the navigation, drops repeated URLs and applies the
// page cap before anything is fetched.
func planPages(nodes []toc.Node, maxPages int) pagePlan {
	seen := map[string]struct{}{}
	pages := []toc.Node{}
	for _, n := range toc.Flatten(nodes) {
		if _, dup := seen[n.URL]; dup {
			continue
		}
		if maxPages > 0 && len(pages) >= maxPages {
			break
		}
		seen[n.URL] = struct{}{}
		pages = append(pages, n)
	}
	return pagePlan{Pages: pages, Tree: toc.Filter(nodes, seen)}
}

// processPage turns one navigation link into a book page: article
// extraction, image localization, first link pass and sanitizing.
func (c *converter) processPage(ctx context.Context, node toc.Node, index int) (book.Page, string, error) {
	res, err := c.fetchPage(ctx, node.URL)
	if err != nil {
		return book.Page{}, "", fmt.Errorf("fetch failed: %w", err)
	}
	doc, err := extract.NewDocument(res.HTML)
	if err != nil {
		return book.Page{}, "", fmt.Errorf("parse failed: %w", err)
	}
	content, err := extract.Article(doc, extract.Options{
		Selector: c.opts.ContentSelector,
		Exclude:  c.opts.ExcludeSelector,
	})
	switch {
	case errors.Is(err, extract.ErrTooShort):
		return book.Page{}, "", errors.New("content too short")
	case errors.Is(err, extract.ErrNoContent):
		return book.Page{}, "", errors.New("no content found")
	case err != nil:
		return book.Page{}, "", err
	}

	body, err := newFragment(content)
	if err != nil {
		return book.Page{}, "", fmt.Errorf("parse content failed: %w", err)
	}
	imgStats := c.images.Rewrite(ctx, body, node.URL)
	c.rep.Images.Downloaded += imgStats.Downloaded
	c.rep.Images.Reused += imgStats.Reused
	c.rep.Images.Failed += imgStats.Failed

	linkStats := links.Localize(body, c.policy)
	c.rep.Links.Script += linkStats.Script
	c.rep.Links.Broken += linkStats.Broken
	c.rep.Links.DeadPage += linkStats.DeadPage
	c.rep.Links.Fragments += linkStats.Fragments
	c.rep.Links.External += linkStats.External

	html, err := body.Html()
	if err != nil {
		return book.Page{}, "", fmt.Errorf("serialize content failed: %w", err)
	}
	return book.Page{
		SourceURL: node.URL,
		Title:     node.Title,
		Content:   sanitize.Fragment(html),
		FileName:  book.ChapterFileName(index),
	}, res.SourceInfo, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
