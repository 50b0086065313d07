package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/stackreport/pkg/errors"
)

// Rasterize composites src onto an opaque white canvas scaled by scale and
// encodes it as PNG. It returns the encoded data and its pixel size.
func Rasterize(src image.Image, scale float64) ([]byte, int, int, error) {
	if src == nil {
		return nil, 0, 0, errors.New(errors.ErrCodeCapture, "nothing rendered")
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, 0, 0, errors.New(errors.ErrCodeCapture, "rendered image is %dx%d", b.Dx(), b.Dy())
	}
	if scale <= 0 {
		scale = 1
	}

	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, 0, 0, errors.Wrap(errors.ErrCodeCapture, err, "encode png")
	}
	return buf.Bytes(), w, h, nil
}
