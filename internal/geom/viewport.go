package geom

import "math"

const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 5.0
	ZoomStep        = 1.1
)

// Viewport maps world coordinates to screen pixels:
//
//	screen = world*Scale + Pan
type Viewport struct {
	Pan   Point
	Scale float64
}

func NewViewport() Viewport {
	return Viewport{Scale: 1}
}

func (v Viewport) scale() float64 {
	if v.Scale == 0 {
		return 1
	}
	return v.Scale
}

func (v Viewport) ScreenToWorld(p Point) Point {
	return p.Sub(v.Pan).Div(v.scale())
}

func (v Viewport) WorldToScreen(p Point) Point {
	return p.Mul(v.scale()).Add(v.Pan)
}

// ScreenDeltaToWorld converts a pointer delta; pan does not apply to deltas.
func (v Viewport) ScreenDeltaToWorld(d Point) Point {
	return d.Div(v.scale())
}

func (v Viewport) RectToScreen(r Rect) Rect {
	tl := v.WorldToScreen(r.Min())
	s := v.scale()
	return Rect{X: tl.X, Y: tl.Y, W: r.W * s, H: r.H * s}
}

// ClampScale returns s limited to [minScale, maxScale].
func ClampScale(s, minScale, maxScale float64) float64 {
	return math.Max(minScale, math.Min(maxScale, s))
}

// ZoomAt scales the viewport by factor around the screen point pivot. The
// world point under pivot stays under pivot.
func (v Viewport) ZoomAt(pivot Point, factor, minScale, maxScale float64) Viewport {
	old := v.scale()
	next := ClampScale(old*factor, minScale, maxScale)
	if next == old {
		return v
	}
	world := v.ScreenToWorld(pivot)
	return Viewport{
		Scale: next,
		Pan:   pivot.Sub(world.Mul(next)),
	}
}
