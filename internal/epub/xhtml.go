package epub

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"guide2epub/internal/book"
)

func pageDoc(p book.Page, lang string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	root := doc.CreateElement("html")
	root.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	root.CreateAttr("xmlns:epub", "http://www.idpf.org/2007/ops")
	root.CreateAttr("lang", lang)
	root.CreateAttr("xml:lang", lang)

	head := root.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")
	head.CreateElement("title").SetText(cleanText(p.Title))
	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", stylesheetPath)

	body := root.CreateElement("body")
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(p.Body()), context)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		appendNode(body, n)
	}
	return doc, nil
}

// appendNode copies an HTML node into the XML tree. Elements or attributes
// whose names are not valid XML are dropped; the children of a dropped
// element are kept.
func appendNode(parent *etree.Element, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := cleanText(n.Data); text != "" {
			parent.CreateText(text)
		}
	case html.ElementNode:
		target := parent
		if validName(n.Data) {
			target = parent.CreateElement(n.Data)
			seen := map[string]struct{}{}
			for _, a := range n.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				if !validAttrName(key) {
					continue
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				target.CreateAttr(key, cleanText(a.Val))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendNode(target, c)
		}
	}
}

func validAttrName(key string) bool {
	if prefix, local, ok := strings.Cut(key, ":"); ok {
		switch prefix {
		case "xml", "xlink", "epub", "xmlns":
			return validName(local)
		}
		return false
	}
	return validName(key)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// cleanText drops runes that XML 1.0 does not allow.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF, r >= 0xE000 && r <= 0xFFFD, r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, s)
}
