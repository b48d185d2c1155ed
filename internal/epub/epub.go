// Package epub writes an assembled book as an EPUB 3 container with an
// EPUB 2 NCX for older readers.
package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/beevik/etree"

	"guide2epub/internal/book"
)

const (
	mimetypeContent = "application/epub+zip"
	contentDir      = "EPUB"
	stylesheetPath  = "style/book.css"
	coverPath       = "cover.png"
	navPath         = "nav.xhtml"
	ncxPath         = "toc.ncx"
	xhtmlMediaType  = "application/xhtml+xml"
)

// Write renders b into the EPUB file at outputPath. The file is written
// next to its destination first and renamed into place.
func Write(outputPath string, b *book.Book) error {
	if b == nil {
		return errors.New("nil book")
	}
	if len(b.Spine) == 0 {
		return errors.New("book has no pages")
	}
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".guide2epub-*.epub")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeArchive(tmp, b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		return fmt.Errorf("unable to move output file: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, b *book.Book) error {
	zw := zip.NewWriter(w)

	if err := writeMimetype(zw); err != nil {
		return fmt.Errorf("unable to write mimetype: %w", err)
	}
	if err := writeXMLToZip(zw, "META-INF/container.xml", containerDoc()); err != nil {
		return fmt.Errorf("unable to write container: %w", err)
	}

	for _, p := range b.Spine {
		doc, err := pageDoc(p, b.Language)
		if err != nil {
			return fmt.Errorf("unable to convert page %s: %w", p.FileName, err)
		}
		if err := writeXMLToZip(zw, contentPath(p.FileName), doc); err != nil {
			return fmt.Errorf("unable to write page %s: %w", p.FileName, err)
		}
	}
	for _, rec := range b.Assets {
		if err := writeDataToZip(zw, contentPath(rec.LocalName), rec.Data); err != nil {
			return fmt.Errorf("unable to write image %s: %w", rec.LocalName, err)
		}
	}
	if err := writeDataToZip(zw, contentPath(stylesheetPath), []byte(b.Stylesheet)); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	if len(b.Cover) > 0 {
		if err := writeDataToZip(zw, contentPath(coverPath), b.Cover); err != nil {
			return fmt.Errorf("unable to write cover: %w", err)
		}
	}

	if err := writeXMLToZip(zw, contentPath(navPath), navDoc(b)); err != nil {
		return fmt.Errorf("unable to write NAV: %w", err)
	}
	if err := writeXMLToZip(zw, contentPath(ncxPath), ncxDoc(b)); err != nil {
		return fmt.Errorf("unable to write NCX: %w", err)
	}
	if err := writeXMLToZip(zw, contentPath("content.opf"), opfDoc(b)); err != nil {
		return fmt.Errorf("unable to write OPF: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	return nil
}

func contentPath(name string) string {
	return path.Join(contentDir, name)
}

func writeMimetype(zw *zip.Writer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, mimetypeContent)
	return err
}

func containerDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", contentPath("content.opf"))
	rootfile.CreateAttr("media-type", "application/oebps-package+xml")
	doc.Indent(2)
	return doc
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
