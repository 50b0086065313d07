// Package panel draws key/value status panels as bitmaps.
//
// A [Panel] has no export capability of its own. It implements
// [capture.Renderable] and is rasterized by the capture service.
package panel

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/report"
)

const (
	padding = 8
	rowGap  = 6
	colGap  = 16
)

var (
	ink    = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	muted  = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	accent = color.RGBA{R: 0x2b, G: 0x6c, B: 0xb0, A: 0xff}
	rule   = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// Panel is a titled list of labelled values.
type Panel struct {
	Title string
	Rows  []report.Pair
}

// Render draws the panel on a transparent background sized to its content.
func (p *Panel) Render(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil() + rowGap

	keyW, valW := 0, 0
	for _, r := range p.Rows {
		keyW = max(keyW, font.MeasureString(face, r.Key).Ceil())
		valW = max(valW, font.MeasureString(face, r.Value).Ceil())
	}
	titleW := font.MeasureString(face, p.Title).Ceil()

	w := max(titleW, keyW+colGap+valW) + 2*padding
	h := 2*padding + lineH*(len(p.Rows)+1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	ascent := face.Metrics().Ascent.Ceil()
	y := padding + ascent
	drawString(img, face, accent, padding, y, p.Title)
	draw.Draw(img, image.Rect(padding, y+rowGap/2, w-padding, y+rowGap/2+1), image.NewUniform(rule), image.Point{}, draw.Src)

	for _, r := range p.Rows {
		y += lineH
		drawString(img, face, muted, padding, y, r.Key)
		drawString(img, face, ink, padding+keyW+colGap, y, r.Value)
	}
	return img, nil
}

func drawString(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

var _ capture.Renderable = (*Panel)(nil)
