package extract

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultSelector = "div.body-article-8"
	MinContentChars = 100
	UntitledGuide   = "Untitled Guide"
)

var (
	ErrTooShort  = errors.New("content too short")
	ErrNoContent = errors.New("no content found")
)

var (
	chromeClasses = []string{"article-content-slot", "share-module", "author-signature"}
	noiseClasses  = []string{"advertisement", "ad-", "tracking", "social-share", "cookie-", "banner", "popup", "modal"}
	fallbackHints = []string{"content", "article", "body"}
)

const chromeTags = "script, style, nav, footer, aside, iframe, noscript"

type Options struct {
	Selector string
	Exclude  string
}

func NewDocument(htmlText string) (*goquery.Document, error) {
	if strings.TrimSpace(htmlText) == "" {
		return nil, errors.New("empty html")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlText))
}

// Article returns the cleaned outer HTML of the article region. Matching
// regions are cleaned in place, so callers pass a document they own.
func Article(doc *goquery.Document, opts Options) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}
	regions := Regions(doc, opts.Selector)
	if regions.Length() == 0 {
		return "", ErrNoContent
	}

	parts := []string{}
	regions.Each(func(_ int, s *goquery.Selection) {
		clean(s, opts.Exclude)
		html, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		parts = append(parts, html)
	})
	content := strings.TrimSpace(strings.Join(parts, "\n"))
	if utf8.RuneCountInString(content) < MinContentChars {
		return "", ErrTooShort
	}
	return content, nil
}

// Regions picks the selector matches, the first content-like container, or
// the body, in that order.
func Regions(doc *goquery.Document, selector string) *goquery.Selection {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultSelector
	}
	if sel := doc.Find(selector); sel.Length() > 0 {
		return sel
	}
	if sel := Candidates(doc).First(); sel.Length() > 0 {
		return sel
	}
	return doc.Find("body").First()
}

// Candidates lists containers whose class hints at article content.
func Candidates(doc *goquery.Document) *goquery.Selection {
	return doc.Find("article[class], main[class], div[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return classContains(s, fallbackHints)
	})
}

func clean(s *goquery.Selection, exclude string) {
	s.Find("[class]").FilterFunction(func(_ int, el *goquery.Selection) bool {
		for _, class := range chromeClasses {
			if el.HasClass(class) {
				return true
			}
		}
		return false
	}).Remove()
	s.Find(chromeTags).Remove()
	s.Find("[class]").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return classContains(el, noiseClasses)
	}).Remove()
	if strings.TrimSpace(exclude) != "" {
		s.Find(exclude).Remove()
	}
}

func classContains(s *goquery.Selection, needles []string) bool {
	for _, class := range strings.Fields(s.AttrOr("class", "")) {
		for _, n := range needles {
			if strings.Contains(class, n) {
				return true
			}
		}
	}
	return false
}

// Title picks the book title from the starting page.
func Title(doc *goquery.Document) string {
	if doc == nil {
		return UntitledGuide
	}
	if h1 := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " "); h1 != "" {
		return h1
	}
	if title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " "); title != "" {
		return title
	}
	return UntitledGuide
}
