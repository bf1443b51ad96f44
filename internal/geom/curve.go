package geom

// Cubic is a cubic Bézier segment.
type Cubic struct {
	P0, C1, C2, P3 Point
}

// At evaluates the curve at t in [0, 1].
func (c Cubic) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.C1.X + d*c.C2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.C1.Y + d*c.C2.Y + e*c.P3.Y,
	}
}

// Flatten samples the curve into n+1 points, endpoints included.
func (c Cubic) Flatten(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, c.At(float64(i)/float64(n)))
	}
	return pts
}

// HorizontalCurve builds an S-curve between start and end whose tangents at
// both ends are horizontal. The control offset is half the horizontal span,
// so vertically aligned endpoints produce a straight segment.
func HorizontalCurve(start, end Point) Cubic {
	dx := (end.X - start.X) / 2
	return Cubic{
		P0: start,
		C1: Point{X: start.X + dx, Y: start.Y},
		C2: Point{X: end.X - dx, Y: end.Y},
		P3: end,
	}
}

// ConnectorCurve anchors a curve on the boundaries of two rectangles, along
// the line joining their centers.
func ConnectorCurve(from, to Rect) Cubic {
	fc, tc := from.Center(), to.Center()
	start := RectEdgeIntersection(fc, tc, from)
	end := RectEdgeIntersection(tc, fc, to)
	return HorizontalCurve(start, end)
}

// PreviewCurve is the curve drawn while a connection is being dragged from
// a rectangle toward a free cursor position.
func PreviewCurve(from Rect, cursor Point) Cubic {
	start := RectEdgeIntersection(from.Center(), cursor, from)
	return HorizontalCurve(start, cursor)
}
