// Package sanitize rewrites article HTML into markup that EPUB readers
// accept: no scripts, no remote resources, sane heading nesting.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const MathMLNamespace = "http://www.w3.org/1998/Math/MathML"

const (
	headings    = "h1, h2, h3, h4, h5, h6"
	inlineHosts = "p, span, a, strong, em, i, b, u"
	maxPasses   = 5
)

var deniedAttrs = map[string]struct{}{
	"slot":                     {},
	"viewbox":                  {},
	"driverlocation":           {},
	"cta-type":                 {},
	"icon-placement":           {},
	"data-cmp-hook-image":      {},
	"data-cmp-is":              {},
	"data-cmp-widths":          {},
	"data-cmp-dmimage":         {},
	"data-cmp-src":             {},
	"data-asset-id":            {},
	"data-cmp-filereference":   {},
	"data-cmp-data-layer":      {},
	"data-cmp-aspectratio":     {},
	"data-cmp-aspectratio-max": {},
	"data-cmp-aspectratio-xl":  {},
	"data-cmp-aspectratio-md":  {},
	"data-cmp-aspectratio-lg":  {},
	"data-cmp-aspectratio-sm":  {},
}

var deniedPrefixes = []string{"data-cmp", "data-asset"}

// Fragment cleans an HTML body fragment. It never fails; input that cannot
// be parsed is returned unchanged. The cleanup repeats until the output is
// stable, so Fragment(Fragment(x)) == Fragment(x).
func Fragment(fragment string) string {
	out := fragment
	for i := 0; i < maxPasses; i++ {
		next, ok := pass(out)
		if !ok || next == out {
			return next
		}
		out = next
	}
	return out
}

func pass(fragment string) (string, bool) {
	root, err := parseFragment(fragment)
	if err != nil {
		return fragment, false
	}
	doc := goquery.NewDocumentFromNode(root).Selection

	for _, step := range steps {
		step(doc)
	}

	out, err := doc.Html()
	if err != nil {
		return fragment, false
	}
	return out, true
}

var steps = []func(*goquery.Selection){
	removeSVG,
	normalizeMath,
	removeEmbeds,
	convertCodeSnippets,
	stripTableAttrs,
	unwrapPictures,
	dropUnresolvedImages,
	dropRemoteResources,
	repairHeadings,
	dropEmptyContainers,
	stripAttributes,
}

func parseFragment(fragment string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

func removeSVG(doc *goquery.Selection) {
	doc.Find("svg").Remove()
}

func normalizeMath(doc *goquery.Selection) {
	doc.Find("math").Each(func(_ int, m *goquery.Selection) {
		if m.AttrOr("xmlns", "") == "" {
			m.SetAttr("xmlns", MathMLNamespace)
		}
		m.Find("*").FilterFunction(func(_ int, el *goquery.Selection) bool {
			return len(el.Nodes[0].Attr) == 0 && strings.TrimSpace(el.Text()) == ""
		}).Remove()
	})
}

func removeEmbeds(doc *goquery.Selection) {
	doc.Find("iframe, video, audio, script").Remove()
}

func convertCodeSnippets(doc *goquery.Selection) {
	doc.Find("cds-code-snippet").Each(func(_ int, s *goquery.Selection) {
		code := &html.Node{Type: html.ElementNode, Data: "code", DataAtom: atom.Code}
		code.AppendChild(&html.Node{Type: html.TextNode, Data: s.Text()})
		if s.AttrOr("type", "") != "multi" {
			s.ReplaceWithNodes(code)
			return
		}
		pre := &html.Node{Type: html.ElementNode, Data: "pre", DataAtom: atom.Pre}
		pre.AppendChild(code)
		s.ReplaceWithNodes(pre)
	})
}

func stripTableAttrs(doc *goquery.Selection) {
	doc.Find("table").RemoveAttr("cellpadding").RemoveAttr("cellspacing").RemoveAttr("border")
}

func unwrapPictures(doc *goquery.Selection) {
	doc.Find("picture").Each(func(_ int, p *goquery.Selection) {
		img := p.Find("img").First()
		if img.Length() == 0 {
			p.Remove()
			return
		}
		p.ReplaceWithSelection(img)
	})
}

func dropUnresolvedImages(doc *goquery.Selection) {
	doc.Find("img").FilterFunction(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		return src == "" ||
			strings.HasPrefix(strings.ToLower(src), "data:") ||
			isRemote(src) ||
			strings.Contains(src, "%")
	}).Remove()
}

func dropRemoteResources(doc *goquery.Selection) {
	doc.Find("link").FilterFunction(func(_ int, l *goquery.Selection) bool {
		rel := strings.ToLower(l.AttrOr("rel", ""))
		return isRemote(l.AttrOr("href", "")) || strings.Contains(rel, "stylesheet")
	}).Remove()
	doc.Find("[src], [href]").Not("a").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return isRemote(el.AttrOr("src", "")) || isRemote(el.AttrOr("href", ""))
	}).Remove()
}

func isRemote(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "//")
}

func repairHeadings(doc *goquery.Selection) {
	// A heading inside a heading replaces its container.
	for {
		outer := doc.Find(headings).FilterFunction(func(_ int, h *goquery.Selection) bool {
			return h.Find(headings).Length() > 0
		}).First()
		if outer.Length() == 0 {
			break
		}
		outer.ReplaceWithSelection(outer.Find(headings).First())
	}

	// Headings move out in front of the outermost inline container.
	for {
		var heading, host *goquery.Selection
		doc.Find(headings).EachWithBreak(func(_ int, h *goquery.Selection) bool {
			parents := h.ParentsFiltered(inlineHosts)
			if parents.Length() == 0 {
				return true
			}
			heading, host = h, parents.Last()
			return false
		})
		if heading == nil {
			break
		}
		host.BeforeSelection(heading)
	}

	// Lists inside a heading follow it instead.
	doc.Find(headings).Each(func(_ int, h *goquery.Selection) {
		lists := h.Find("ul, ol").FilterFunction(func(_ int, l *goquery.Selection) bool {
			return l.ParentsUntilSelection(h).Filter("ul, ol").Length() == 0
		})
		if lists.Length() > 0 {
			h.AfterSelection(lists)
		}
	})
}

func dropEmptyContainers(doc *goquery.Selection) {
	doc.Find("p, div, span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0
	}).Remove()
}

func stripAttributes(doc *goquery.Selection) {
	for _, n := range doc.Find("*").Nodes {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if denied(a.Key) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
}

func denied(key string) bool {
	key = strings.ToLower(key)
	if _, ok := deniedAttrs[key]; ok {
		return true
	}
	for _, p := range deniedPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
