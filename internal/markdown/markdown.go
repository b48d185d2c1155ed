// Package markdown renders converted guide pages as a single Markdown
// document, a companion to the EPUB for search and diffing.
package markdown

import (
	"regexp"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Chapter is one page of the book. Level 1 is a top-level entry.
type Chapter struct {
	Title string
	Level int
	HTML  string
}

type Converter struct {
	md *htmltomd.Converter
}

func NewConverter() *Converter {
	conv := htmltomd.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.Use(TablePlugin())
	conv.AddRules(codeBlockRule(), mathRule())
	return &Converter{md: conv}
}

// Chapter renders one page under a heading of the given level.
func (c *Converter) Chapter(ch Chapter) (string, error) {
	level := min(max(ch.Level, 1), 6)
	headingLine := strings.TrimSpace(strings.Repeat("#", level) + " " + ch.Title)

	body, err := c.md.ConvertString(ch.HTML)
	if err != nil {
		return "", err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return headingLine + "\n", nil
	}
	return headingLine + "\n\n" + body + "\n", nil
}

// Book renders the title and every chapter in order.
func (c *Converter) Book(title string, chapters []Chapter) (string, error) {
	var b strings.Builder
	b.WriteString("# " + strings.TrimSpace(title) + "\n")
	for _, ch := range chapters {
		ch.Level++
		out, err := c.Chapter(ch)
		if err != nil {
			return "", err
		}
		b.WriteString("\n")
		b.WriteString(out)
	}
	return b.String(), nil
}

func codeBlockRule() htmltomd.Rule {
	return htmltomd.Rule{
		Filter: []string{"pre"},
		Replacement: func(_ string, selec *goquery.Selection, _ *htmltomd.Options) *string {
			code := selec.Find("code").First()
			source := selec
			if code.Length() > 0 {
				source = code
			}
			text := strings.ReplaceAll(source.Text(), "\r\n", "\n")
			text = strings.TrimSuffix(text, "\n")

			fence := "```"
			for strings.Contains(text, fence) {
				fence += "`"
			}
			out := "\n" + fence + detectLanguage(code) + "\n" + text + "\n" + fence + "\n"
			return &out
		},
	}
}

// mathRule keeps MathML as its plain text content.
func mathRule() htmltomd.Rule {
	return htmltomd.Rule{
		Filter: []string{"math"},
		Replacement: func(_ string, selec *goquery.Selection, _ *htmltomd.Options) *string {
			text := "`" + strings.Join(strings.Fields(selec.Text()), " ") + "`"
			return &text
		},
	}
}

var languageClass = regexp.MustCompile(`(?:^|\s)(?:language|lang)-([a-zA-Z0-9_+-]+)(?:\s|$)`)

func detectLanguage(code *goquery.Selection) string {
	m := languageClass.FindStringSubmatch(code.AttrOr("class", ""))
	if len(m) != 2 {
		return ""
	}
	lang := strings.ToLower(m[1])
	if lang == "golang" {
		lang = "go"
	}
	return lang
}
