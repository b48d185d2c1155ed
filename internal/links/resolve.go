package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Index maps canonical page URLs of the guide to package file names.
type Index struct {
	host  string
	files map[string]string
}

func NewIndex(guideURL string) *Index {
	host := ""
	if u, err := url.Parse(guideURL); err == nil {
		host = u.Hostname()
	}
	return &Index{host: host, files: map[string]string{}}
}

func (ix *Index) Add(pageURL, fileName string) {
	if key, ok := canonical(pageURL); ok {
		ix.files[key] = fileName
	}
}

// Lookup returns the file name for rawURL, ignoring its fragment.
func (ix *Index) Lookup(rawURL string) (string, bool) {
	key, ok := canonical(rawURL)
	if !ok {
		return "", false
	}
	name, ok := ix.files[key]
	return name, ok
}

func (ix *Index) Len() int {
	return len(ix.files)
}

// canonical keys a page URL the way sameSite compares hosts: http and https
// are one site and a leading www. is ignored.
func canonical(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		u.Scheme = "https"
	default:
		return "", false
	}
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String(), true
}

type ResolveStats struct {
	Resolved   int
	Unresolved int
	// Fragments counts in-page links unwrapped because their target id is
	// no longer in the final content.
	Fragments int
}

// Resolve is the second link pass. Links found in the index are pointed at
// the packaged file and everything else is left alone, except in-page
// fragments whose target did not survive sanitizing, which become text.
func Resolve(sel *goquery.Selection, pageURL string, ix *Index) ResolveStats {
	stats := ResolveStats{}
	base, err := url.Parse(pageURL)
	if err != nil || ix == nil {
		return stats
	}
	ids := collectIDs(sel)

	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "#") {
			if _, ok := ids[href[1:]]; !ok {
				unwrap(a)
				stats.Fragments++
			}
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		name, ok := ix.Lookup(abs.String())
		if !ok {
			if sameSite(abs.Hostname(), ix.host) {
				stats.Unresolved++
			}
			return
		}
		if abs.Fragment != "" {
			name += "#" + abs.Fragment
		}
		a.SetAttr("href", name)
		stats.Resolved++
	})
	return stats
}

// ResolveFragment runs Resolve over an HTML fragment.
func ResolveFragment(html, pageURL string, ix *Index) (string, ResolveStats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, ResolveStats{}, err
	}
	body := doc.Find("body")
	stats := Resolve(body, pageURL, ix)
	out, err := body.Html()
	if err != nil {
		return html, ResolveStats{}, err
	}
	return out, stats, nil
}
