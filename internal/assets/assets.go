package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"guide2epub/internal/fetch"
)

const Dir = "images"

// Downloader fetches the raw bytes of an image.
type Downloader interface {
	Binary(ctx context.Context, rawURL string) (fetch.Binary, error)
}

type Record struct {
	SourceURL string `json:"source_url"`
	LocalName string `json:"local_name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
}

type Stats struct {
	Downloaded int
	Reused     int
	Failed     int
}

// Resolver owns the image cache for a whole run. Every absolute URL is
// attempted at most once, including failures.
type Resolver struct {
	dl      Downloader
	records map[string]*Record
	order   []string
	failed  map[string]string
}

func NewResolver(dl Downloader) *Resolver {
	return &Resolver{
		dl:      dl,
		records: map[string]*Record{},
		failed:  map[string]string{},
	}
}

// Rewrite points every img under sel at its local copy.
func (r *Resolver) Rewrite(ctx context.Context, sel *goquery.Selection, pageURL string) Stats {
	stats := Stats{}
	base, _ := url.Parse(pageURL)
	log := zerolog.Ctx(ctx)

	sel.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		abs := resolve(base, src)
		img.RemoveAttr("srcset")
		img.RemoveAttr("loading")

		if rec, ok := r.records[abs]; ok {
			img.SetAttr("src", rec.LocalName)
			stats.Reused++
			return
		}
		if _, ok := r.failed[abs]; ok {
			img.SetAttr("src", abs)
			stats.Failed++
			return
		}

		bin, err := r.dl.Binary(ctx, abs)
		if err != nil {
			r.failed[abs] = err.Error()
			img.SetAttr("src", abs)
			stats.Failed++
			log.Warn().Str("url", abs).Str("page", pageURL).Str("reason", err.Error()).Msg("image skipped")
			return
		}
		mediaType, ext := MediaType(bin.ContentType, abs)
		rec := &Record{
			SourceURL: abs,
			LocalName: LocalName(abs, ext),
			MediaType: mediaType,
			Data:      bin.Data,
		}
		r.records[abs] = rec
		r.order = append(r.order, abs)
		img.SetAttr("src", rec.LocalName)
		stats.Downloaded++
		log.Debug().Str("url", abs).Str("file", rec.LocalName).Msg("image stored")
	})
	return stats
}

// Records returns the downloaded images in first-seen order.
func (r *Resolver) Records() []Record {
	out := make([]Record, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, *r.records[key])
	}
	return out
}

// Failures maps each failed image URL to its error text.
func (r *Resolver) Failures() map[string]string {
	out := make(map[string]string, len(r.failed))
	for k, v := range r.failed {
		out[k] = v
	}
	return out
}

// LocalName derives the in-package path from the absolute URL.
func LocalName(absURL, ext string) string {
	sum := sha256.Sum256([]byte(absURL))
	return Dir + "/" + hex.EncodeToString(sum[:])[:12] + "." + ext
}

var byType = []struct {
	needle    string
	mediaType string
	ext       string
}{
	{"image/jpeg", "image/jpeg", "jpg"},
	{"image/jpg", "image/jpeg", "jpg"},
	{"image/png", "image/png", "png"},
	{"image/gif", "image/gif", "gif"},
	{"image/svg", "image/svg+xml", "svg"},
	{"image/webp", "image/webp", "webp"},
}

var byExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
}

// MediaType picks the media type and file extension for an image. The
// Content-Type header wins; otherwise the URL extension; otherwise JPEG.
func MediaType(contentType, absURL string) (string, string) {
	ct := strings.ToLower(contentType)
	for _, t := range byType {
		if strings.Contains(ct, t.needle) {
			return t.mediaType, t.ext
		}
	}
	if u, err := url.Parse(absURL); err == nil {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
		if mt, ok := byExt[ext]; ok {
			if ext == "jpeg" {
				ext = "jpg"
			}
			return mt, ext
		}
	}
	return "image/jpeg", "jpg"
}

func resolve(base *url.URL, src string) string {
	ref, err := url.Parse(src)
	if err != nil || base == nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
