package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/age-of-ai-chess/internal/rules"
	"github.com/park285/age-of-ai-chess/internal/theme"
)

const (
	defaultSquareSize = 64
	boardMargin       = 24
)

type BoardRenderer interface {
	RenderPNG(ctx context.Context, f Frame, th theme.Theme) ([]byte, error)
}

type Option func(*pngRenderer)

// WithSquareSize sets the edge length of one square in pixels.
func WithSquareSize(px int) Option {
	return func(r *pngRenderer) {
		if px >= 16 {
			r.squareSize = px
		}
	}
}

type pngRenderer struct {
	squareSize int
}

func NewPNGRenderer(opts ...Option) BoardRenderer {
	r := &pngRenderer{squareSize: defaultSquareSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fallbacks when a theme leaves a colour out.
var (
	fallbackBackground = color.NRGBA{R: 6, G: 6, B: 16, A: 255}
	fallbackLight      = color.NRGBA{R: 233, G: 207, B: 163, A: 255}
	fallbackDark       = color.NRGBA{R: 187, G: 136, B: 96, A: 255}
	fallbackSelected   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	fallbackAccent     = color.NRGBA{R: 0, G: 243, B: 255, A: 255}
	fallbackAlert      = color.NRGBA{R: 255, G: 0, B: 85, A: 255}
	fallbackText       = color.NRGBA{R: 212, G: 212, B: 216, A: 255}
	fallbackTextDim    = color.NRGBA{R: 107, G: 114, B: 128, A: 255}
)

type palette struct {
	background  color.NRGBA
	light, dark color.NRGBA
	selected    color.NRGBA
	lastMove    color.NRGBA
	destination color.NRGBA
	check       color.NRGBA
	coordinates color.NRGBA
	white       tokenStyle
	black       tokenStyle
}

func paletteFor(th theme.Theme) palette {
	bg := opaque(th.Color("--bg-deep", fallbackBackground))
	accent := opaque(th.Color("--accent-1", fallbackAccent))
	alert := opaque(th.Color("--accent-2", fallbackAlert))
	text := opaque(th.Color("--text-primary", fallbackText))
	return palette{
		background:  bg,
		light:       th.Color("--sq-light", fallbackLight),
		dark:        th.Color("--sq-dark", fallbackDark),
		selected:    th.Color("--sq-selected", fallbackSelected),
		lastMove:    withAlpha(accent, 70),
		destination: withAlpha(accent, 150),
		check:       withAlpha(alert, 120),
		coordinates: th.Color("--text-dim", fallbackTextDim),
		white:       tokenStyle{Fill: text, Stroke: accent, Letter: bg},
		black:       tokenStyle{Fill: bg, Stroke: alert, Letter: alert},
	}
}

func (r *pngRenderer) RenderPNG(ctx context.Context, f Frame, th theme.Theme) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	size := r.squareSize
	total := size*8 + boardMargin*2
	origin := image.Point{X: boardMargin, Y: boardMargin}
	pal := paletteFor(th)

	img := image.NewRGBA(image.Rect(0, 0, total, total))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(pal.background), image.Point{}, imagedraw.Src)

	drawSquares(img, size, origin, pal)
	if f.LastFrom.Valid() && f.LastTo.Valid() {
		drawSquareOverlay(img, f.LastFrom, size, origin, pal.lastMove)
		drawSquareOverlay(img, f.LastTo, size, origin, pal.lastMove)
	}
	if f.Selected.Valid() {
		drawSquareOverlay(img, f.Selected, size, origin, pal.selected)
	}
	if f.CheckSquare.Valid() {
		drawSquareOverlay(img, f.CheckSquare, size, origin, pal.check)
	}
	if err := drawPieces(img, f, size, origin, pal); err != nil {
		return nil, err
	}
	drawDestinations(img, f, size, origin, pal.destination)
	drawCoordinates(img, size, origin, pal.coordinates)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst *image.RGBA, size int, origin image.Point, pal palette) {
	for i := 0; i < 64; i++ {
		sq := rules.Square(i)
		clr := pal.dark
		if (sq.File()+sq.Rank())%2 == 1 {
			clr = pal.light
		}
		imagedraw.Draw(dst, squareRect(sq, size, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
	}
}

func drawPieces(dst *image.RGBA, f Frame, size int, origin image.Point, pal palette) error {
	for i, p := range f.Pieces {
		if p.Empty() {
			continue
		}
		style := pal.white
		if p.Side == rules.Black {
			style = pal.black
		}
		tok, err := renderToken(p, style, size)
		if err != nil {
			return err
		}
		rect := squareRect(rules.Square(i), size, origin)
		imagedraw.Draw(dst, rect, tok, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawDestinations marks empty targets with a dot and captures with a tinted square.
func drawDestinations(dst *image.RGBA, f Frame, size int, origin image.Point, clr color.NRGBA) {
	if len(f.Destinations) == 0 {
		return
	}
	bounds := dst.Bounds()
	scanner := rasterx.NewScannerGV(bounds.Dx(), bounds.Dy(), dst, bounds)
	filler := rasterx.NewFiller(bounds.Dx(), bounds.Dy(), scanner)

	for _, sq := range f.Destinations {
		if !sq.Valid() {
			continue
		}
		if !f.Pieces[sq].Empty() {
			drawSquareOverlay(dst, sq, size, origin, withAlpha(clr, clr.A/2))
			continue
		}
		rect := squareRect(sq, size, origin)
		filler.Clear()
		filler.SetColor(clr)
		rasterx.AddCircle(float64(rect.Min.X)+float64(size)/2, float64(rect.Min.Y)+float64(size)/2, float64(size)/7, filler)
		filler.Draw()
	}
}

func drawCoordinates(dst *image.RGBA, size int, origin image.Point, clr color.NRGBA) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(clr), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + 8*size

	for i := 0; i < 8; i++ {
		rank := strconv.Itoa(8 - i)
		drawCenteredText(drawer, rank, origin.X-boardMargin/2, origin.Y+i*size+size/2+ascent/2)
		file := string(rune('a' + i))
		drawCenteredText(drawer, file, origin.X+i*size+size/2, boardEnd+(boardMargin+ascent)/2)
	}
}

func drawSquareOverlay(dst *image.RGBA, sq rules.Square, size int, origin image.Point, clr color.Color) {
	imagedraw.Draw(dst, squareRect(sq, size, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func squareRect(sq rules.Square, size int, origin image.Point) image.Rectangle {
	row := 7 - sq.Rank()
	col := sq.File()
	x := origin.X + col*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 255
	return c
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}
