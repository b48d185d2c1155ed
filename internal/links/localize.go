package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const DefaultBrokenMarker = "adobe-cms"

var pageExts = []string{".html", ".htm"}

type Policy struct {
	// GuideHost is the host of the guide being converted. Links to other
	// hosts are external.
	GuideHost     string
	BrokenMarkers []string
	KeepExternal  bool
}

type Stats struct {
	Script    int
	Broken    int
	DeadPage  int
	Fragments int
	External  int
}

func (s Stats) Stripped() int {
	return s.Script + s.Broken + s.DeadPage + s.Fragments + s.External
}

// Localize is the first link pass. It only needs the page itself: dead,
// scripted and off-site links become plain text.
func Localize(sel *goquery.Selection, policy Policy) Stats {
	stats := Stats{}
	markers := policy.BrokenMarkers
	if len(markers) == 0 {
		markers = []string{DefaultBrokenMarker}
	}

	ids := collectIDs(sel)

	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)

		switch {
		case strings.HasPrefix(lower, "javascript:"), strings.HasPrefix(lower, "mailto:"):
			stats.Script++
		case containsAny(href, markers):
			stats.Broken++
		case strings.HasPrefix(href, "#"):
			if _, ok := ids[href[1:]]; ok {
				return
			}
			stats.Fragments++
		case isDeadPage(href, lower):
			stats.DeadPage++
		case !policy.KeepExternal && isExternal(href, policy.GuideHost):
			stats.External++
		default:
			return
		}
		unwrap(a)
	})
	return stats
}

func collectIDs(sel *goquery.Selection) map[string]struct{} {
	ids := map[string]struct{}{}
	sel.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id := s.AttrOr("id", ""); id != "" {
			ids[id] = struct{}{}
		}
	})
	return ids
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// isDeadPage reports scheme-less hrefs ending in a page extension. These
// are authoring leftovers that never resolve on the live site.
func isDeadPage(href, lower string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" {
		return false
	}
	for _, ext := range pageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isExternal(href, guideHost string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch {
	case u.Scheme == "http", u.Scheme == "https":
	case u.Scheme == "" && strings.HasPrefix(href, "//"):
	default:
		return false
	}
	return !sameSite(u.Hostname(), guideHost)
}

func sameSite(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a != "" && a == b
}

func unwrap(a *goquery.Selection) {
	contents := a.Contents()
	if contents.Length() == 0 {
		a.Remove()
		return
	}
	a.ReplaceWithSelection(contents)
}
