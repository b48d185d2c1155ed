package toc

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Kind int

const (
	KindLink Kind = iota
	KindSection
)

func (k Kind) String() string {
	if k == KindSection {
		return "section"
	}
	return "link"
}

// Node is one entry of the navigation tree. Links carry URL and Href,
// sections carry Children.
type Node struct {
	Title    string `json:"title"`
	Kind     Kind   `json:"kind"`
	Level    int    `json:"level"`
	URL      string `json:"url,omitempty"`
	Href     string `json:"href,omitempty"`
	Children []Node `json:"children,omitempty"`
}

const (
	DefaultClassPrefix  = "cmp-side-navigation"
	DefaultExpandMarker = "Caret right"
)

var ErrNotFound = errors.New("navigation not found")

type Options struct {
	BaseURL      string
	ClassPrefix  string
	ExpandMarker string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ClassPrefix) == "" {
		o.ClassPrefix = DefaultClassPrefix
	}
	if o.ExpandMarker == "" {
		o.ExpandMarker = DefaultExpandMarker
	}
	return o
}

var navHint = regexp.MustCompile(`sidebar|nav|toc`)

// Parse builds the TOC tree from the page holding the navigation widget.
func Parse(doc *goquery.Document, opts Options) ([]Node, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	opts = opts.withDefaults()
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	p := parser{opts: opts, base: base}

	root := doc.Find("nav." + opts.ClassPrefix).First()
	if root.Length() > 0 {
		if nodes := p.level(root, 0); hasLinks(nodes) {
			return nodes, nil
		}
	}

	candidates := fallbackContainers(doc)
	for _, c := range candidates {
		if nodes := p.level(c, 0); hasLinks(nodes) {
			return nodes, nil
		}
	}
	for _, c := range candidates {
		list := c.Find("ul, ol").First()
		if list.Length() == 0 {
			continue
		}
		if nodes := p.genericList(list, 0); hasLinks(nodes) {
			return nodes, nil
		}
	}
	return nil, ErrNotFound
}

func fallbackContainers(doc *goquery.Document) []*goquery.Selection {
	primary := []*goquery.Selection{}
	rest := []*goquery.Selection{}
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		if !classMatches(s, navHint) {
			return
		}
		if s.Is("nav, aside") {
			primary = append(primary, s)
			return
		}
		rest = append(rest, s)
	})
	return append(primary, rest...)
}

func classMatches(s *goquery.Selection, re *regexp.Regexp) bool {
	for _, class := range strings.Fields(s.AttrOr("class", "")) {
		if re.MatchString(strings.ToLower(class)) {
			return true
		}
	}
	return false
}

type parser struct {
	opts Options
	base *url.URL
}

func (p parser) class(suffix string) string {
	return p.opts.ClassPrefix + "__" + suffix
}

func (p parser) level(container *goquery.Selection, level int) []Node {
	nodes := []Node{}
	list := container.Find(fmt.Sprintf("ul.%s", p.class(fmt.Sprintf("level%d", level)))).First()
	if list.Length() == 0 {
		return nodes
	}
	itemSel := fmt.Sprintf("li.%s", p.class(fmt.Sprintf("section--level%d", level)))
	list.ChildrenFiltered(itemSel).Each(func(_ int, li *goquery.Selection) {
		if node, ok := p.item(li, level); ok {
			nodes = append(nodes, node)
		}
	})
	return nodes
}

func (p parser) item(li *goquery.Selection, level int) (Node, bool) {
	a := li.ChildrenFiltered(fmt.Sprintf("a.%s", p.class(fmt.Sprintf("item--level%d", level)))).First()
	if a.Length() > 0 {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := collapseSpace(a.Text())
		if href != "" && title != "" {
			if abs, ok := p.resolve(href); ok {
				return Node{Title: title, Kind: KindLink, Level: level, URL: abs, Href: href}, true
			}
		}
	}

	span := li.ChildrenFiltered("span." + p.class("item--collapsible")).First()
	if span.Length() == 0 {
		return Node{}, false
	}
	title := p.sectionLabel(span)
	if title == "" {
		return Node{}, false
	}
	return Node{
		Title:    title,
		Kind:     KindSection,
		Level:    level,
		Children: p.level(li, level+1),
	}, true
}

func (p parser) sectionLabel(span *goquery.Selection) string {
	parts := []string{}
	span.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "svg" {
			return
		}
		text := strings.TrimSpace(child.Text())
		if text == "" {
			return
		}
		if len(parts) == 0 && text == p.opts.ExpandMarker {
			return
		}
		parts = append(parts, text)
	})
	return collapseSpace(strings.Join(parts, " "))
}

// genericList handles plain nested ul/li menus.
func (p parser) genericList(list *goquery.Selection, level int) []Node {
	nodes := []Node{}
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		a := ownAnchor(li)
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := collapseSpace(a.Text())
		var link *Node
		if href != "" && title != "" && !strings.HasPrefix(href, "#") {
			if abs, ok := p.resolve(href); ok {
				link = &Node{Title: title, Kind: KindLink, Level: level, URL: abs, Href: href}
			}
		}

		sub := li.ChildrenFiltered("ul, ol").First()
		if sub.Length() == 0 {
			if link != nil {
				nodes = append(nodes, *link)
			}
			return
		}

		label := title
		if label == "" {
			label = collapseSpace(li.Clone().Find("ul, ol").Remove().End().Text())
		}
		if label == "" {
			return
		}
		children := []Node{}
		if link != nil {
			link.Level = level + 1
			children = append(children, *link)
		}
		children = append(children, p.genericList(sub, level+1)...)
		nodes = append(nodes, Node{Title: label, Kind: KindSection, Level: level, Children: children})
	})
	return nodes
}

func ownAnchor(li *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	li.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.ParentsUntilSelection(li).Filter("ul, ol").Length() > 0 {
			return true
		}
		found = a
		return false
	})
	if found == nil {
		return li.Find("a[href]").Slice(0, 0)
	}
	return found
}

func (p parser) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return p.base.ResolveReference(ref).String(), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasLinks(nodes []Node) bool {
	return len(Flatten(nodes)) > 0
}
