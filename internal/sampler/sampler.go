// Package sampler keeps a reference image at native resolution and maps
// pointer positions on a pan/zoom viewport back to exact source pixels.
package sampler

import (
	"errors"
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/jmylchreest/tincture/internal/colour"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no reference image loaded")

	// ErrEmptyImage is returned when loading an image with no pixels.
	ErrEmptyImage = errors.New("reference image has no pixels")
)

// Config bounds the on-screen viewport and the interactive zoom.
type Config struct {
	// MaxViewportWidth and MaxViewportHeight bound the fitted viewport, in canvas pixels.
	MaxViewportWidth  int
	MaxViewportHeight int
	// MinScale and MaxScale bound the interactive zoom.
	MinScale float64
	MaxScale float64
	// ZoomStep is the factor applied per wheel step.
	ZoomStep float64
}

// DefaultConfig returns a 640x420 viewport with zoom between 0.5x and 8x.
func DefaultConfig() Config {
	return Config{
		MaxViewportWidth:  640,
		MaxViewportHeight: 420,
		MinScale:          0.5,
		MaxScale:          8,
		ZoomStep:          1.1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxViewportWidth < 1 || c.MaxViewportHeight < 1 {
		return fmt.Errorf("viewport must be at least 1x1, got %dx%d", c.MaxViewportWidth, c.MaxViewportHeight)
	}
	if c.MinScale <= 0 || c.MaxScale < c.MinScale {
		return fmt.Errorf("invalid zoom range: %g-%g", c.MinScale, c.MaxScale)
	}
	if c.ZoomStep <= 1 {
		return fmt.Errorf("zoom step must be greater than 1, got %g", c.ZoomStep)
	}
	return nil
}

// ViewTransform positions the image on the viewport. Scale is the interactive
// zoom, applied on top of the fit-to-viewport base scale.
type ViewTransform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// Identity is the transform every new image starts with.
func Identity() ViewTransform {
	return ViewTransform{Scale: 1}
}

type dragState struct {
	active       bool
	lastX, lastY float64
}

// Sampler owns the native-resolution buffer and its view transform.
// It is not safe for concurrent use.
type Sampler struct {
	cfg       Config
	buf       *image.NRGBA
	baseScale float64
	view      ViewTransform
	drag      dragState
}

// New creates an empty Sampler.
func New(cfg Config) *Sampler {
	return &Sampler{
		cfg:       cfg,
		baseScale: 1,
		view:      Identity(),
	}
}

// Load replaces the current buffer with a copy of img at native resolution
// and resets the view to identity.
func (s *Sampler) Load(img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return ErrEmptyImage
	}

	s.buf = nativeCopy(img)
	s.baseScale = fitScale(b.Dx(), b.Dy(), s.cfg.MaxViewportWidth, s.cfg.MaxViewportHeight)
	s.view = Identity()
	s.drag = dragState{}
	return nil
}

// nativeCopy copies img into a zero-origin NRGBA buffer. NRGBA sources are
// copied row by row so straight-alpha pixels survive unchanged.
func nativeCopy(img image.Image) *image.NRGBA {
	b := img.Bounds()
	buf := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			from := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*buf.Stride:y*buf.Stride+b.Dx()*4], src.Pix[from:from+b.Dx()*4])
		}
		return buf
	}
	xdraw.Copy(buf, image.Point{}, img, b, xdraw.Src, nil)
	return buf
}

// fitScale shrinks, never enlarges, an image to fit the viewport bounds.
func fitScale(w, h, maxW, maxH int) float64 {
	return math.Min(1, math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h)))
}

// Loaded reports whether an image is available for sampling.
func (s *Sampler) Loaded() bool { return s.buf != nil }

// Size returns the native image dimensions, or zero when nothing is loaded.
func (s *Sampler) Size() (width, height int) {
	if s.buf == nil {
		return 0, 0
	}
	b := s.buf.Bounds()
	return b.Dx(), b.Dy()
}

// BaseScale returns the fit-to-viewport ratio of the current image.
func (s *Sampler) BaseScale() float64 { return s.baseScale }

// ViewportSize returns the on-screen canvas size for the current image.
func (s *Sampler) ViewportSize() (width, height int) {
	w, h := s.Size()
	if w == 0 {
		return 0, 0
	}
	width = max(1, int(math.Round(float64(w)*s.baseScale)))
	height = max(1, int(math.Round(float64(h)*s.baseScale)))
	return width, height
}

// View returns the current transform.
func (s *Sampler) View() ViewTransform { return s.view }

// ResetView returns to identity without reloading the image.
func (s *Sampler) ResetView() { s.view = Identity() }

// Pan moves the image by (dx, dy) canvas pixels. Panning is unbounded.
func (s *Sampler) Pan(dx, dy float64) {
	s.view.TranslateX += dx
	s.view.TranslateY += dy
}

// ZoomAt multiplies the zoom by factor, clamped to the configured range,
// keeping the image point under (pointerX, pointerY) fixed on screen.
func (s *Sampler) ZoomAt(pointerX, pointerY, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	s0 := s.view.Scale
	k0 := s0 * s.baseScale
	wx := (pointerX - s.view.TranslateX) / k0
	wy := (pointerY - s.view.TranslateY) / k0

	s1 := math.Max(s.cfg.MinScale, math.Min(s.cfg.MaxScale, s0*factor))
	k1 := s1 * s.baseScale

	s.view.Scale = s1
	s.view.TranslateX = pointerX - wx*k1
	s.view.TranslateY = pointerY - wy*k1
}

// ZoomIn zooms one wheel step in around the pointer.
func (s *Sampler) ZoomIn(pointerX, pointerY float64) {
	s.ZoomAt(pointerX, pointerY, s.cfg.ZoomStep)
}

// ZoomOut zooms one wheel step out around the pointer.
func (s *Sampler) ZoomOut(pointerX, pointerY float64) {
	s.ZoomAt(pointerX, pointerY, 1/s.cfg.ZoomStep)
}

// Wheel zooms in for negative deltaY (scrolling up) and out for positive.
func (s *Sampler) Wheel(pointerX, pointerY, deltaY float64) {
	switch {
	case deltaY < 0:
		s.ZoomIn(pointerX, pointerY)
	case deltaY > 0:
		s.ZoomOut(pointerX, pointerY)
	}
}

// SetScale sets an absolute zoom, as a direct scale control would, anchored
// at (pointerX, pointerY).
func (s *Sampler) SetScale(pointerX, pointerY, target float64) {
	s.ZoomAt(pointerX, pointerY, target/s.view.Scale)
}

// PointerToImageCoords maps a viewport position in canvas pixels to native
// image pixel indices. The result may lie outside the image. Positions are
// continuous: canvas pixel (x, y) spans [x, x+1) and its centre is x+0.5.
func (s *Sampler) PointerToImageCoords(pointerX, pointerY float64) (ix, iy int) {
	k := s.view.Scale * s.baseScale
	ix = int(math.Floor((pointerX - s.view.TranslateX) / k))
	iy = int(math.Floor((pointerY - s.view.TranslateY) / k))
	return ix, iy
}

// CSSPointerToImageCoords is PointerToImageCoords for input in CSS pixels on a
// display with the given device pixel ratio. A non-positive ratio means 1.
func (s *Sampler) CSSPointerToImageCoords(cssX, cssY, devicePixelRatio float64) (ix, iy int) {
	if devicePixelRatio <= 0 || math.IsNaN(devicePixelRatio) {
		devicePixelRatio = 1
	}
	return s.PointerToImageCoords(cssX*devicePixelRatio, cssY*devicePixelRatio)
}

// SampleAt returns the native pixel at (ix, iy), or false when the point is
// outside the image or nothing is loaded.
func (s *Sampler) SampleAt(ix, iy int) (colour.Color, bool) {
	if s.buf == nil {
		return colour.Color{}, false
	}
	b := s.buf.Bounds()
	if ix < 0 || iy < 0 || ix >= b.Dx() || iy >= b.Dy() {
		return colour.Color{}, false
	}
	return colour.FromNRGBA(s.buf.NRGBAAt(ix, iy)), true
}

// Pick samples the pixel under a canvas-pixel pointer position. Clicks that
// miss the image report false.
func (s *Sampler) Pick(pointerX, pointerY float64) (colour.Color, bool) {
	return s.SampleAt(s.PointerToImageCoords(pointerX, pointerY))
}

// BeginDrag starts a drag-to-pan gesture at the pointer position.
func (s *Sampler) BeginDrag(x, y float64) {
	s.drag = dragState{active: true, lastX: x, lastY: y}
}

// DragTo pans by the pointer movement since the last drag position.
func (s *Sampler) DragTo(x, y float64) {
	if !s.drag.active {
		return
	}
	s.Pan(x-s.drag.lastX, y-s.drag.lastY)
	s.drag.lastX, s.drag.lastY = x, y
}

// EndDrag finishes the current drag gesture.
func (s *Sampler) EndDrag() { s.drag = dragState{} }

// Dragging reports whether a drag gesture is in progress.
func (s *Sampler) Dragging() bool { return s.drag.active }
