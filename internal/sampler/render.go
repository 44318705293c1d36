package sampler

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Render draws the image into a viewport-sized canvas through the current
// transform with nearest-neighbour sampling. Each canvas pixel is read at its
// centre, so the pixel at (x, y) is the source pixel Pick(x+0.5, y+0.5)
// returns. Pick(x, y) addresses the pixel's top-left corner, which can fall in
// the previous source pixel at fractional scales.
func (s *Sampler) Render() (*image.NRGBA, error) {
	if s.buf == nil {
		return nil, ErrNoImage
	}
	w, h := s.ViewportSize()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	k := s.view.Scale * s.baseScale
	s2d := f64.Aff3{
		k, 0, s.view.TranslateX,
		0, k, s.view.TranslateY,
	}
	xdraw.NearestNeighbor.Transform(dst, s2d, s.buf, s.buf.Bounds(), xdraw.Src, nil)
	return dst, nil
}
