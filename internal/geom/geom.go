// Package geom holds the coordinate model of the board: points, rectangles,
// the viewport transform between screen and world space, and the edge
// intersection used to anchor connector curves.
package geom

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Mul(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func (p Point) Div(k float64) Point {
	return Point{X: p.X / k, Y: p.Y / k}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

func (r Rect) Min() Point {
	return Point{X: r.X, Y: r.Y}
}

func (r Rect) Max() Point {
	return Point{X: r.X + r.W, Y: r.Y + r.H}
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ContainsRect reports whether o lies fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Inset grows (d > 0) or shrinks (d < 0) the rectangle on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Bounds returns the tight bounding rectangle of pts. ok is false for an
// empty set.
func Bounds(pts []Point) (r Rect, ok bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// RectEdgeIntersection returns the point where the ray from center toward
// the target point leaves r. Only r's extents are used; center is expected
// to be r's center. A zero-length ray returns center unchanged.
func RectEdgeIntersection(center, toward Point, r Rect) Point {
	d := toward.Sub(center)
	if d.X == 0 && d.Y == 0 {
		return center
	}
	halfW, halfH := r.W/2, r.H/2

	best := math.Inf(1)
	if d.X != 0 {
		for _, edge := range [2]float64{halfW, -halfW} {
			t := edge / d.X
			if t >= 0 && math.Abs(t*d.Y) <= halfH && t < best {
				best = t
			}
		}
	}
	if d.Y != 0 {
		for _, edge := range [2]float64{halfH, -halfH} {
			t := edge / d.Y
			if t >= 0 && math.Abs(t*d.X) <= halfW && t < best {
				best = t
			}
		}
	}
	if math.IsInf(best, 1) {
		return center
	}
	return center.Add(d.Mul(best))
}
