package markdown

import (
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// TablePlugin renders tables as pipe tables. Cells spanning several rows
// or columns are repeated into every slot they cover.
func TablePlugin() md.Plugin {
	return func(conv *md.Converter) []md.Rule {
		return []md.Rule{{
			Filter: []string{"table"},
			Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
				rows := selec.Find("tr")
				if rows.Length() == 0 {
					return nil
				}
				g := newGrid()
				rows.Each(func(r int, tr *goquery.Selection) {
					g.addRow(conv, r, tr)
				})
				out := g.render()
				return &out
			},
		}}
	}
}

type grid struct {
	cells map[[2]int]string
	rows  int
	cols  int
}

func newGrid() *grid {
	return &grid{cells: map[[2]int]string{}}
}

func (g *grid) addRow(conv *md.Converter, r int, tr *goquery.Selection) {
	g.rows = max(g.rows, r+1)
	c := 0
	tr.Children().Filter("td, th").Each(func(_ int, cell *goquery.Selection) {
		for g.taken(r, c) {
			c++
		}
		text := cellText(conv.Convert(cell))
		rowSpan, colSpan := span(cell, "rowspan"), span(cell, "colspan")
		for dr := 0; dr < rowSpan; dr++ {
			for dc := 0; dc < colSpan; dc++ {
				g.cells[[2]int{r + dr, c + dc}] = text
				g.cols = max(g.cols, c+dc+1)
			}
		}
		g.rows = max(g.rows, r+rowSpan)
		c += colSpan
	})
}

func (g *grid) taken(r, c int) bool {
	_, ok := g.cells[[2]int{r, c}]
	return ok
}

func (g *grid) render() string {
	var b strings.Builder
	b.WriteString("\n")
	for r := 0; r < g.rows; r++ {
		b.WriteString("|")
		for c := 0; c < g.cols; c++ {
			b.WriteString(" " + g.cells[[2]int{r, c}] + " |")
		}
		b.WriteString("\n")
		if r == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", g.cols) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func span(cell *goquery.Selection, attr string) int {
	if v, err := strconv.Atoi(cell.AttrOr(attr, "1")); err == nil && v > 1 {
		return v
	}
	return 1
}

func cellText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "|", `\|`)
	return strings.ReplaceAll(text, "\n", " ")
}
