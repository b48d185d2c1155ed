package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"guide2epub/internal/toc"
)

// printPlan shows what a run would convert without fetching any page but
// the guide itself.
func printPlan(w io.Writer, title, output string, plan pagePlan) {
	linkCount, sectionCount := toc.Count(plan.Tree)
	fmt.Fprintf(w, "Title: %s\n", title)
	fmt.Fprintf(w, "Output: %s\n", output)
	fmt.Fprintf(w, "Navigation: %d links in %d sections\n", linkCount, sectionCount)

	fmt.Fprintln(w, "\nTable of contents:")
	if len(plan.Tree) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	toc.Walk(plan.Tree, func(n toc.Node, depth int) {
		indent := strings.Repeat("  ", depth+1)
		if n.Kind == toc.KindSection {
			fmt.Fprintf(w, "%s+ %s\n", indent, n.Title)
			return
		}
		fmt.Fprintf(w, "%s- %s\n", indent, n.Title)
	})

	fmt.Fprintf(w, "\nPages to fetch (%d):\n", len(plan.Pages))
	for i, n := range plan.Pages {
		fmt.Fprintf(w, "  %3d. %s\n", i+1, n.URL)
	}
	fmt.Fprintln(w, "\nDry run complete (no files written).")
}

func printSummary(ctx context.Context, res Result) {
	log := zerolog.Ctx(ctx)
	rep := res.Report
	event := log.Info().
		Str("output", res.Output).
		Int("pages", len(rep.Pages)).
		Int("skipped", len(rep.Skipped)).
		Int("images", rep.Images.Downloaded).
		Int("images_failed", len(rep.FailedImages)).
		Int("links_resolved", rep.Links.Resolved).
		Int("links_stripped", rep.Links.Stripped())
	if res.MarkdownPath != "" {
		event = event.Str("markdown", res.MarkdownPath)
	}
	if res.ReportPath != "" {
		event = event.Str("report", res.ReportPath)
	}
	if len(rep.Warnings) > 0 {
		event = event.Int("warnings", len(rep.Warnings))
	}
	event.Msg("book written")

	for _, s := range rep.Skipped {
		log.Debug().Str("url", s.URL).Str("reason", s.Reason).Msg("skipped")
	}
}
