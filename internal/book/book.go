package book

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"

	"guide2epub/internal/assets"
	"guide2epub/internal/toc"
)

const (
	DefaultAuthor   = "IBM Think"
	DefaultLanguage = "en"
)

// Page is one processed guide page, or a generated section title page.
type Page struct {
	SourceURL   string `json:"source_url,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"-"`
	FileName    string `json:"file_name"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

func ChapterFileName(index int) string {
	return fmt.Sprintf("chapter_%03d.xhtml", index)
}

func SectionFileName(index int) string {
	return fmt.Sprintf("section_%03d.xhtml", index)
}

// Body is the XHTML body markup written for the page.
func (p Page) Body() string {
	title := html.EscapeString(p.Title)
	if p.Placeholder {
		return `<div class="section-title"><h1>` + title + `</h1></div>`
	}
	return "<h1>" + title + "</h1>\n" + p.Content
}

func (p Page) HasMathML() bool {
	return strings.Contains(p.Content, "<math")
}

// NavPoint is a navigation entry. FileName is empty for pure grouping
// sections.
type NavPoint struct {
	Title    string     `json:"title"`
	FileName string     `json:"file_name,omitempty"`
	Children []NavPoint `json:"children,omitempty"`
}

type Book struct {
	Identifier string
	Title      string
	Author     string
	Language   string
	Modified   time.Time
	Spine      []Page
	Nav        []NavPoint
	Assets     []assets.Record
	Stylesheet string
	Cover      []byte
}

type Input struct {
	SourceURL string
	Title     string
	Author    string
	Language  string
	Modified  time.Time
	TOC       []toc.Node
	// Pages holds the processed pages keyed by source URL.
	Pages      map[string]Page
	Assets     []assets.Record
	Stylesheet string
	Cover      []byte
}

// Assemble binds the TOC to the processed pages. Links without a page are
// dropped, sections left empty are pruned, and top-level sections with no
// page of the same title get a generated title page. The spine is the
// navigation in document order.
func Assemble(in Input) *Book {
	b := &Book{
		Identifier: Identifier(in.SourceURL),
		Title:      in.Title,
		Author:     in.Author,
		Language:   in.Language,
		Modified:   in.Modified,
		Assets:     in.Assets,
		Stylesheet: in.Stylesheet,
		Cover:      in.Cover,
	}
	if b.Author == "" {
		b.Author = DefaultAuthor
	}
	if b.Language == "" {
		b.Language = DefaultLanguage
	}
	if b.Stylesheet == "" {
		b.Stylesheet = Stylesheet
	}
	if b.Modified.IsZero() {
		b.Modified = time.Now().UTC()
	}

	a := assembler{
		pages:  in.Pages,
		byFile: map[string]Page{},
		titles: map[string]struct{}{},
	}
	for _, p := range in.Pages {
		a.titles[p.Title] = struct{}{}
		a.byFile[p.FileName] = p
	}

	b.Nav = a.nav(in.TOC, 0)
	b.Spine = a.spine(b.Nav)
	return b
}

// Identifier is stable per guide URL so re-converting a guide yields the
// same book identity.
func Identifier(sourceURL string) string {
	if sourceURL == "" {
		return "urn:uuid:" + uuid.NewString()
	}
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURL)).String()
}

type assembler struct {
	pages    map[string]Page
	byFile   map[string]Page
	titles   map[string]struct{}
	sections int
}

func (a *assembler) nav(nodes []toc.Node, depth int) []NavPoint {
	out := []NavPoint{}
	for _, n := range nodes {
		switch n.Kind {
		case toc.KindLink:
			page, ok := a.pages[n.URL]
			if !ok {
				continue
			}
			out = append(out, NavPoint{Title: n.Title, FileName: page.FileName})
		case toc.KindSection:
			children := a.nav(n.Children, depth+1)
			if len(children) == 0 {
				continue
			}
			point := NavPoint{Title: n.Title, Children: children}
			if depth == 0 {
				if _, ok := a.titles[n.Title]; !ok {
					point.FileName = a.placeholder(n.Title).FileName
				}
			}
			out = append(out, point)
		}
	}
	return out
}

func (a *assembler) placeholder(title string) Page {
	a.sections++
	p := Page{
		Title:       title,
		FileName:    SectionFileName(a.sections),
		Placeholder: true,
	}
	a.byFile[p.FileName] = p
	return p
}

func (a *assembler) spine(nav []NavPoint) []Page {
	out := []Page{}
	seen := map[string]struct{}{}
	var walk func([]NavPoint)
	walk = func(points []NavPoint) {
		for _, p := range points {
			if p.FileName != "" {
				if _, dup := seen[p.FileName]; !dup {
					seen[p.FileName] = struct{}{}
					out = append(out, a.byFile[p.FileName])
				}
			}
			walk(p.Children)
		}
	}
	walk(nav)
	return out
}
