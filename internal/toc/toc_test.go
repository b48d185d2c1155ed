package toc_test

import (
	"errors"
	"strings"
	"testing"

	"guide2epub/internal/toc"

	"github.com/PuerkitoBio/goquery"
)

const base = "https://www.example.com/think/topics/guide"

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

const guidesNav = `
<nav class="cmp-side-navigation">
  <ul class="cmp-side-navigation__level0">
    <li class="cmp-side-navigation__section--level0">
      <span class="cmp-side-navigation__item--collapsible"><svg><title>icon</title></svg>Caret right <b>Guides</b></span>
      <ul class="cmp-side-navigation__level1">
        <li class="cmp-side-navigation__section--level1">
          <a class="cmp-side-navigation__item--level1" href="/a">Intro</a>
        </li>
        <li class="cmp-side-navigation__section--level1">
          <a class="cmp-side-navigation__item--level1" href="/b">Setup</a>
        </li>
        <li class="cmp-side-navigation__section--level1">
          <span class="cmp-side-navigation__item--collapsible">Advanced</span>
        </li>
      </ul>
    </li>
  </ul>
</nav>`

func TestParse_SectionWithLinks(t *testing.T) {
	nodes, err := toc.Parse(mustDoc(t, guidesNav), toc.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 top-level node, got %d", len(nodes))
	}
	guides := nodes[0]
	if guides.Kind != toc.KindSection || guides.Title != "Guides" || guides.Level != 0 {
		t.Fatalf("unexpected section: %+v", guides)
	}
	if len(guides.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(guides.Children))
	}
	intro := guides.Children[0]
	if intro.Kind != toc.KindLink || intro.URL != "https://www.example.com/a" || intro.Href != "/a" || intro.Level != 1 {
		t.Fatalf("unexpected link: %+v", intro)
	}
	advanced := guides.Children[2]
	if advanced.Kind != toc.KindSection || advanced.Title != "Advanced" || len(advanced.Children) != 0 {
		t.Fatalf("unexpected empty section: %+v", advanced)
	}
}

func TestFlattenAndFilter_Scenario(t *testing.T) {
	nodes, err := toc.Parse(mustDoc(t, guidesNav), toc.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flat := toc.Flatten(nodes)
	if len(flat) != 2 || flat[0].Title != "Intro" || flat[1].Title != "Setup" {
		t.Fatalf("unexpected flatten result: %+v", flat)
	}

	filtered := toc.Filter(nodes, map[string]struct{}{"https://www.example.com/a": {}})
	if len(filtered) != 1 || filtered[0].Title != "Guides" {
		t.Fatalf("expected Guides to survive, got %+v", filtered)
	}
	if len(filtered[0].Children) != 1 || filtered[0].Children[0].Title != "Intro" {
		t.Fatalf("expected only Intro under Guides, got %+v", filtered[0].Children)
	}
	// The original tree is not modified.
	if len(nodes[0].Children) != 3 {
		t.Fatalf("filter mutated its input: %+v", nodes[0].Children)
	}
}

func TestFilter_NeverReturnsEmptySection(t *testing.T) {
	nodes := []toc.Node{
		{Title: "A", Kind: toc.KindSection, Children: []toc.Node{
			{Title: "B", Kind: toc.KindSection, Children: []toc.Node{
				{Title: "x", Kind: toc.KindLink, URL: "u1"},
			}},
			{Title: "y", Kind: toc.KindLink, URL: "u2"},
		}},
		{Title: "z", Kind: toc.KindLink, URL: "u3"},
	}
	for _, allow := range []map[string]struct{}{
		{},
		{"u1": {}},
		{"u2": {}},
		{"u3": {}},
		{"u1": {}, "u3": {}},
	} {
		toc.Walk(toc.Filter(nodes, allow), func(n toc.Node, _ int) {
			if n.Kind == toc.KindSection && len(n.Children) == 0 {
				t.Fatalf("empty section %q for allow set %v", n.Title, allow)
			}
		})
	}
}

func TestFlatten_DocumentOrder(t *testing.T) {
	html := `
<nav class="cmp-side-navigation">
  <ul class="cmp-side-navigation__level0">
    <li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="p1">One</a></li>
    <li class="cmp-side-navigation__section--level0">
      <span class="cmp-side-navigation__item--collapsible">Part</span>
      <ul class="cmp-side-navigation__level1">
        <li class="cmp-side-navigation__section--level1"><a class="cmp-side-navigation__item--level1" href="p2">Two</a></li>
        <li class="cmp-side-navigation__section--level1">
          <span class="cmp-side-navigation__item--collapsible">Deeper</span>
          <ul class="cmp-side-navigation__level2">
            <li class="cmp-side-navigation__section--level2"><a class="cmp-side-navigation__item--level2" href="p3">Three</a></li>
          </ul>
        </li>
      </ul>
    </li>
    <li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="p4">Four</a></li>
  </ul>
</nav>`
	nodes, err := toc.Parse(mustDoc(t, html), toc.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flat := toc.Flatten(nodes)
	got := []string{}
	for _, n := range flat {
		got = append(got, n.Title)
	}
	if strings.Join(got, ",") != "One,Two,Three,Four" {
		t.Fatalf("unexpected order: %v", got)
	}
	if flat[2].Level != 2 {
		t.Fatalf("expected depth 2 for Three, got %d", flat[2].Level)
	}
	if flat[0].URL != "https://www.example.com/think/topics/p1" {
		t.Fatalf("unexpected resolved url: %s", flat[0].URL)
	}
}

func TestParse_DropsIncompleteItems(t *testing.T) {
	html := `
<nav class="cmp-side-navigation">
  <ul class="cmp-side-navigation__level0">
    <li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="">No href</a></li>
    <li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="/x">  </a></li>
    <li class="cmp-side-navigation__section--level0">
      <span class="cmp-side-navigation__item--collapsible"><svg></svg>Caret right</span>
      <ul class="cmp-side-navigation__level1">
        <li class="cmp-side-navigation__section--level1"><a class="cmp-side-navigation__item--level1" href="/hidden">Hidden</a></li>
      </ul>
    </li>
    <li class="cmp-side-navigation__section--level0"><a class="cmp-side-navigation__item--level0" href="/ok">Ok</a></li>
  </ul>
</nav>`
	nodes, err := toc.Parse(mustDoc(t, html), toc.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Title != "Ok" {
		t.Fatalf("expected only the Ok link, got %+v", nodes)
	}
}

func TestParse_SectionLabelWhitespace(t *testing.T) {
	html := `
<nav class="cmp-side-navigation">
  <ul class="cmp-side-navigation__level0">
    <li class="cmp-side-navigation__section--level0">
      <span class="cmp-side-navigation__item--collapsible">
        Caret right
        <span>Getting
          started</span>   <em>now</em>
      </span>
      <ul class="cmp-side-navigation__level1">
        <li class="cmp-side-navigation__section--level1"><a class="cmp-side-navigation__item--level1" href="/s">Start</a></li>
      </ul>
    </li>
  </ul>
</nav>`
	nodes, err := toc.Parse(mustDoc(t, html), toc.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodes[0].Title != "Getting started now" {
		t.Fatalf("unexpected label: %q", nodes[0].Title)
	}
}

func TestParse_FallbackGenericSidebar(t *testing.T) {
	html := `
<aside class="docs-sidebar">
  <ul>
    <li><a href="/intro">Intro</a></li>
    <li><a href="/ref">Reference</a>
      <ul><li><a href="/ref/api">API</a></li></ul>
    </li>
  </ul>
</aside>`
	nodes, err := toc.Parse(mustDoc(t, html), toc.Options{BaseURL: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flat := toc.Flatten(nodes)
	if len(flat) != 3 {
		t.Fatalf("expected 3 links, got %+v", flat)
	}
	if nodes[1].Kind != toc.KindSection || nodes[1].Title != "Reference" {
		t.Fatalf("expected Reference section, got %+v", nodes[1])
	}
	if flat[2].URL != "https://www.example.com/ref/api" {
		t.Fatalf("unexpected url: %s", flat[2].URL)
	}
}

func TestParse_NotFound(t *testing.T) {
	_, err := toc.Parse(mustDoc(t, `<div><p>no navigation here</p></div>`), toc.Options{BaseURL: base})
	if !errors.Is(err, toc.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
