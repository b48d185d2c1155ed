package cover

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"net/http"
	"os"

	"golang.org/x/image/draw"
)

const (
	RenderWidth  = 800
	RenderHeight = 1200
	MaxWidth     = 600
	MaxHeight    = 800
)

// Renderer turns an HTML document into a PNG screenshot of the given size.
type Renderer interface {
	Render(ctx context.Context, html string, width, height int) ([]byte, error)
}

var page = template.Must(template.New("cover").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body {
  margin: 0;
  padding: 40px;
  background: linear-gradient(135deg, #ffffff 0%, #f8f9fa 100%);
  font-family: Arial, sans-serif;
  display: flex;
  flex-direction: column;
  justify-content: center;
  align-items: center;
  height: calc(100vh - 80px);
  text-align: center;
}
.logo {
  max-width: 200px;
  max-height: 200px;
  margin-bottom: 40px;
}
.title {
  font-size: 36px;
  font-weight: bold;
  color: #1f2937;
  line-height: 1.2;
  max-width: 600px;
  margin: 0;
}
</style>
</head>
<body>
{{if .Logo}}<img src="{{.Logo}}" class="logo" alt="Logo">{{end}}
<h1 class="title">{{.Title}}</h1>
</body>
</html>`))

// HTML builds the cover document. The logo, when given, is inlined as a
// data URI so the renderer needs no file access.
func HTML(title, logoPath string) (string, error) {
	data := struct {
		Title string
		Logo  template.URL
	}{Title: title}

	if logoPath != "" {
		raw, err := os.ReadFile(logoPath)
		if err != nil {
			return "", fmt.Errorf("unable to read logo: %w", err)
		}
		mediaType := http.DetectContentType(raw)
		data.Logo = template.URL("data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw))
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Generate renders the cover and scales it to fit MaxWidth x MaxHeight,
// keeping the aspect ratio.
func Generate(ctx context.Context, r Renderer, title, logoPath string) ([]byte, error) {
	if r == nil {
		return nil, errors.New("no cover renderer")
	}
	doc, err := HTML(title, logoPath)
	if err != nil {
		return nil, err
	}
	shot, err := r.Render(ctx, doc, RenderWidth, RenderHeight)
	if err != nil {
		return nil, fmt.Errorf("unable to render cover: %w", err)
	}
	src, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("unable to decode cover screenshot: %w", err)
	}

	out := Fit(src, MaxWidth, MaxHeight)
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("unable to encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales src down so it fits inside maxW x maxH. Smaller images are
// returned unchanged.
func Fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}
	nw, nh := maxW, h*maxW/w
	if nh > maxH {
		nw, nh = w*maxH/h, maxH
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
