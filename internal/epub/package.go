package epub

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"guide2epub/internal/assets"
	"guide2epub/internal/book"
)

func itemID(fileName string) string {
	var b strings.Builder
	for _, r := range fileName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" || !(id[0] >= 'a' && id[0] <= 'z' || id[0] >= 'A' && id[0] <= 'Z') {
		id = "item_" + id
	}
	return id
}

func imageID(rec assets.Record) string {
	return "img_" + itemID(strings.TrimPrefix(rec.LocalName, assets.Dir+"/"))
}

func opfDoc(b *book.Book) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", "BookId")
	pkg.CreateAttr("xml:lang", b.Language)

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	metadata.CreateAttr("xmlns:opf", "http://www.idpf.org/2007/opf")

	dcIdentifier := metadata.CreateElement("dc:identifier")
	dcIdentifier.CreateAttr("id", "BookId")
	dcIdentifier.SetText(b.Identifier)

	metadata.CreateElement("dc:title").SetText(cleanText(b.Title))
	metadata.CreateElement("dc:language").SetText(b.Language)

	creator := metadata.CreateElement("dc:creator")
	creator.CreateAttr("id", "creator")
	creator.SetText(cleanText(b.Author))

	modified := metadata.CreateElement("meta")
	modified.CreateAttr("property", "dcterms:modified")
	modified.SetText(b.Modified.UTC().Format("2006-01-02T15:04:05Z"))

	if len(b.Cover) > 0 {
		meta := metadata.CreateElement("meta")
		meta.CreateAttr("name", "cover")
		meta.CreateAttr("content", "cover-image")
	}

	manifest := pkg.CreateElement("manifest")
	addItem(manifest, "nav", navPath, xhtmlMediaType, "nav")
	addItem(manifest, "ncx", ncxPath, "application/x-dtbncx+xml", "")
	addItem(manifest, "style", stylesheetPath, "text/css", "")
	if len(b.Cover) > 0 {
		addItem(manifest, "cover-image", coverPath, "image/png", "cover-image")
	}
	for _, p := range b.Spine {
		props := ""
		if p.HasMathML() {
			props = "mathml"
		}
		addItem(manifest, itemID(p.FileName), p.FileName, xhtmlMediaType, props)
	}
	for _, rec := range b.Assets {
		addItem(manifest, imageID(rec), rec.LocalName, rec.MediaType, "")
	}

	spine := pkg.CreateElement("spine")
	spine.CreateAttr("toc", "ncx")
	spine.CreateElement("itemref").CreateAttr("idref", "nav")
	for _, p := range b.Spine {
		spine.CreateElement("itemref").CreateAttr("idref", itemID(p.FileName))
	}

	doc.Indent(2)
	return doc
}

func addItem(manifest *etree.Element, id, href, mediaType, properties string) {
	item := manifest.CreateElement("item")
	item.CreateAttr("id", id)
	item.CreateAttr("href", href)
	item.CreateAttr("media-type", mediaType)
	if properties != "" {
		item.CreateAttr("properties", properties)
	}
}

func navDoc(b *book.Book) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	html.CreateAttr("xmlns:epub", "http://www.idpf.org/2007/ops")
	html.CreateAttr("lang", b.Language)
	html.CreateAttr("xml:lang", b.Language)

	head := html.CreateElement("head")
	head.CreateElement("title").SetText(cleanText(b.Title))

	body := html.CreateElement("body")
	nav := body.CreateElement("nav")
	nav.CreateAttr("epub:type", "toc")
	nav.CreateAttr("id", "toc")
	nav.CreateElement("h1").SetText("Table of Contents")
	buildNavOL(nav, b.Nav)

	doc.Indent(2)
	return doc
}

func buildNavOL(parent *etree.Element, points []book.NavPoint) {
	if len(points) == 0 {
		return
	}
	ol := parent.CreateElement("ol")
	for _, p := range points {
		li := ol.CreateElement("li")
		if p.FileName != "" {
			a := li.CreateElement("a")
			a.CreateAttr("href", p.FileName)
			a.SetText(cleanText(p.Title))
		} else {
			li.CreateElement("span").SetText(cleanText(p.Title))
		}
		buildNavOL(li, p.Children)
	}
}

func ncxDoc(b *book.Book) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", "http://www.daisy.org/z3986/2005/ncx/")
	ncx.CreateAttr("version", "2005-1")

	head := ncx.CreateElement("head")
	addNCXMeta(head, "dtb:uid", b.Identifier)
	addNCXMeta(head, "dtb:depth", strconv.Itoa(max(1, navDepth(b.Nav))))
	addNCXMeta(head, "dtb:totalPageCount", "0")
	addNCXMeta(head, "dtb:maxPageNumber", "0")

	ncx.CreateElement("docTitle").CreateElement("text").SetText(cleanText(b.Title))

	order := map[string]int{}
	for i, p := range b.Spine {
		order[p.FileName] = i + 1
	}
	w := ncxWriter{order: order}
	w.points(ncx.CreateElement("navMap"), b.Nav)

	doc.Indent(2)
	return doc
}

func addNCXMeta(head *etree.Element, name, content string) {
	meta := head.CreateElement("meta")
	meta.CreateAttr("name", name)
	meta.CreateAttr("content", content)
}

type ncxWriter struct {
	order map[string]int
	count int
}

// points writes navPoints. NCX requires a target for every entry, so
// grouping sections point at their first page.
func (w *ncxWriter) points(parent *etree.Element, points []book.NavPoint) {
	for _, p := range points {
		src := p.FileName
		if src == "" {
			src = firstFile(p.Children)
		}
		if src == "" {
			continue
		}
		w.count++
		np := parent.CreateElement("navPoint")
		np.CreateAttr("id", "navpoint-"+strconv.Itoa(w.count))
		np.CreateAttr("playOrder", strconv.Itoa(w.order[src]))
		np.CreateElement("navLabel").CreateElement("text").SetText(cleanText(p.Title))
		np.CreateElement("content").CreateAttr("src", src)
		w.points(np, p.Children)
	}
}

func firstFile(points []book.NavPoint) string {
	for _, p := range points {
		if p.FileName != "" {
			return p.FileName
		}
		if f := firstFile(p.Children); f != "" {
			return f
		}
	}
	return ""
}

func navDepth(points []book.NavPoint) int {
	depth := 0
	for _, p := range points {
		if d := 1 + navDepth(p.Children); d > depth {
			depth = d
		}
	}
	return depth
}
