package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"guide2epub/internal/book"
	"guide2epub/internal/epub"
	"guide2epub/internal/markdown"
	"guide2epub/internal/report"
)

// write stores the package and then its companions. Once the package is on
// disk a failing companion is logged and recorded in the report only.
func (c *converter) write(ctx context.Context, output string, b *book.Book) (Result, error) {
	res := Result{Output: output, Book: b, Report: c.rep}
	if err := epub.Write(output, b); err != nil {
		return Result{}, fmt.Errorf("unable to write epub: %w", err)
	}

	if c.opts.Markdown {
		path, err := writeMarkdown(output, b)
		if err != nil {
			c.warn(ctx, fmt.Errorf("unable to write markdown: %w", err))
		} else {
			res.MarkdownPath = path
		}
	}

	c.rep.FinishedAt = c.now().UTC()
	if c.opts.ReportPath != "" {
		if err := report.Write(c.opts.ReportPath, c.rep); err != nil {
			c.warn(ctx, fmt.Errorf("unable to write report: %w", err))
		} else {
			res.ReportPath = c.opts.ReportPath
		}
	}

	if err := runPostCommands(ctx, c.opts.PostCommands, res); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.warn(ctx, err)
		if res.ReportPath != "" {
			if err := report.Write(res.ReportPath, c.rep); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("unable to update report")
			}
		}
	}
	zerolog.Ctx(ctx).Debug().Str("output", output).Int("spine", len(b.Spine)).Msg("package written")
	return res, nil
}

func (c *converter) warn(ctx context.Context, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Msg("companion step failed")
	c.rep.Warn(err.Error())
}

// writeMarkdown writes <name>.md next to the package, with its images in
// an images directory beside it.
func writeMarkdown(output string, b *book.Book) (string, error) {
	dir := filepath.Dir(output)
	path := strings.TrimSuffix(output, filepath.Ext(output)) + ".md"

	chapters := []markdown.Chapter{}
	levels := navLevels(b.Nav)
	for _, p := range b.Spine {
		chapters = append(chapters, markdown.Chapter{Title: p.Title, Level: levels[p.FileName], HTML: p.Content})
	}
	text, err := markdown.NewConverter().Book(b.Title, chapters)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", err
	}

	for _, rec := range b.Assets {
		target := filepath.Join(dir, filepath.FromSlash(rec.LocalName))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(target, rec.Data, 0644); err != nil {
			return "", err
		}
	}
	return path, nil
}

// navLevels maps each file to its 1-based depth in the navigation.
func navLevels(points []book.NavPoint) map[string]int {
	levels := map[string]int{}
	var walk func([]book.NavPoint, int)
	walk = func(list []book.NavPoint, depth int) {
		for _, p := range list {
			if _, seen := levels[p.FileName]; p.FileName != "" && !seen {
				levels[p.FileName] = depth
			}
			walk(p.Children, depth+1)
		}
	}
	walk(points, 1)
	return levels
}
