package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/park285/age-of-ai-chess/internal/rules"
)

type tokenStyle struct {
	Fill   color.NRGBA
	Stroke color.NRGBA
	Letter color.NRGBA
}

type tokenKey struct {
	code  string
	style tokenStyle
	size  int
}

var (
	tokenCache   = map[tokenKey]image.Image{}
	tokenCacheMu sync.RWMutex

	letterFaces   = map[int]font.Face{}
	letterFacesMu sync.Mutex
)

// tokenSVG draws a piece as a stroked disc; the letter is added after rasterizing.
func tokenSVG(style tokenStyle) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100" viewBox="0 0 100 100">`)
	fmt.Fprintf(&b, `<circle cx="50" cy="52" r="40" fill="%s"/>`, hexColor(color.NRGBA{A: 255}))
	fmt.Fprintf(&b, `<circle cx="50" cy="50" r="38" fill="%s" stroke="%s" stroke-width="6"/>`,
		hexColor(style.Fill), hexColor(style.Stroke))
	b.WriteString(`</svg>`)
	return b.String()
}

func renderToken(p rules.Piece, style tokenStyle, size int) (image.Image, error) {
	key := tokenKey{code: p.Code(), style: style, size: size}

	tokenCacheMu.RLock()
	if img, ok := tokenCache[key]; ok {
		tokenCacheMu.RUnlock()
		return img, nil
	}
	tokenCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(strings.NewReader(tokenSVG(style)))
	if err != nil {
		return nil, fmt.Errorf("parse token svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	face, err := letterFace(size * 9 / 20)
	if err != nil {
		return nil, err
	}
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(style.Letter), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	drawCenteredText(drawer, strings.ToUpper(p.Type.String()), size/2, size/2+ascent*7/20)

	tokenCacheMu.Lock()
	tokenCache[key] = img
	tokenCacheMu.Unlock()

	return img, nil
}

func letterFace(px int) (font.Face, error) {
	letterFacesMu.Lock()
	defer letterFacesMu.Unlock()
	if f, ok := letterFaces[px]; ok {
		return f, nil
	}
	parsed, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	letterFaces[px] = f
	return f, nil
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Ceil()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
