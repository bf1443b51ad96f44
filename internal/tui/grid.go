package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"boardr/internal/board"
	"boardr/internal/geom"
	"boardr/internal/router"
)

// One terminal cell covers cellWidth x cellHeight screen pixels.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// cellToScreen maps a cell to the screen pixel at its center.
func cellToScreen(x, y int) geom.Point {
	return geom.Pt((float64(x)+0.5)*cellWidth, (float64(y)+0.5)*cellHeight)
}

func screenToCell(p geom.Point) (int, int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

// Grid is a rune canvas with an optional color per cell.
type Grid struct {
	w, h   int
	cells  [][]rune
	colors [][]string
}

func NewGrid(w, h int) *Grid {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	g := &Grid{w: w, h: h, cells: make([][]rune, h), colors: make([][]string, h)}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", w))
		g.colors[y] = make([]string, w)
	}
	return g
}

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

func (g *Grid) Set(x, y int, r rune, color string) {
	if !g.inside(x, y) {
		return
	}
	g.cells[y][x] = r
	g.colors[y][x] = color
}

func (g *Grid) At(x, y int) rune {
	if !g.inside(x, y) {
		return 0
	}
	return g.cells[y][x]
}

// Text writes s from (x, y) and stops before column limit.
func (g *Grid) Text(x, y int, s string, limit int, color string) {
	for _, r := range s {
		if x >= limit {
			return
		}
		g.Set(x, y, r, color)
		x++
	}
}

func (g *Grid) Fill(x0, y0, x1, y1 int, r rune) {
	c, ok := g.clip(cellRect{x0, y0, x1, y1})
	if !ok {
		return
	}
	for y := c.y0; y <= c.y1; y++ {
		for x := c.x0; x <= c.x1; x++ {
			g.Set(x, y, r, "")
		}
	}
}

// Lines returns the grid as plain text.
func (g *Grid) Lines() []string {
	out := make([]string, g.h)
	for y, row := range g.cells {
		out[y] = string(row)
	}
	return out
}

// Styled returns the grid with colored runs rendered through lipgloss.
func (g *Grid) Styled() string {
	var b strings.Builder
	for y, row := range g.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.colors[y][x] == g.colors[y][start] {
				continue
			}
			run := string(row[start:x])
			if c := g.colors[y][start]; c != "" {
				run = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(run)
			}
			b.WriteString(run)
			start = x
		}
	}
	return b.String()
}

// cellRect is an item's rectangle in cells, inclusive on both ends.
type cellRect struct{ x0, y0, x1, y1 int }

// clip limits c to the grid. ok is false when nothing of c is on it.
func (g *Grid) clip(c cellRect) (cellRect, bool) {
	if c.x1 < 0 || c.y1 < 0 || c.x0 >= g.w || c.y0 >= g.h || c.x1 < c.x0 || c.y1 < c.y0 {
		return c, false
	}
	return cellRect{max(c.x0, 0), max(c.y0, 0), min(c.x1, g.w-1), min(c.y1, g.h-1)}, true
}

// pixelBounds is the screen area the grid covers, one cell larger on every
// side so lines leaving the edge still reach the border cells.
func (g *Grid) pixelBounds() (lo, hi geom.Point) {
	return geom.Pt(-cellWidth, -cellHeight), geom.Pt(float64(g.w+1)*cellWidth, float64(g.h+1)*cellHeight)
}

// maxSteps bounds how finely a curve or ellipse is sampled.
func (g *Grid) maxSteps() int {
	return 4 * (g.w + g.h)
}

func toCells(vp geom.Viewport, r geom.Rect) cellRect {
	s := vp.RectToScreen(r)
	x0, y0 := screenToCell(s.Min())
	x1, y1 := screenToCell(s.Max())
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return cellRect{x0, y0, x1, y1}
}

// drawOptions.interactive adds selection marks, handles and the rubber
// band; exports leave it off.
type drawOptions struct {
	preview     *geom.Cubic
	interactive bool
}

// drawBoard paints connections, items, the selection box and any connect
// preview onto g.
func drawBoard(g *Grid, doc *board.Document, opts drawOptions) {
	vp := doc.Viewport
	for _, p := range router.Route(doc) {
		drawCurve(g, router.Screen(vp, p.Curve), '·', p.Color, true)
	}
	if opts.preview != nil {
		drawCurve(g, router.Screen(vp, *opts.preview), '~', "", false)
	}
	for _, it := range doc.PaintOrder() {
		drawItem(g, vp, it, opts.interactive && doc.Selection.Has(it.ID))
	}
	if box := doc.Selection.Box; box != nil && opts.interactive {
		c := toCells(vp, box.Rect())
		drawFrame(g, c, '.', '.', '.', "")
	}
}

func drawCurve(g *Grid, c geom.Cubic, r rune, color string, arrow bool) {
	// The curve lies inside the hull of its control points.
	hull, _ := geom.Bounds([]geom.Point{c.P0, c.C1, c.C2, c.P3})
	lo, hi := g.pixelBounds()
	if hull.X > hi.X || hull.Y > hi.Y || hull.X+hull.W < lo.X || hull.Y+hull.H < lo.Y {
		return
	}
	span := math.Abs(c.P3.X-c.P0.X)/cellWidth + math.Abs(c.P3.Y-c.P0.Y)/cellHeight
	n := min(int(span*2), g.maxSteps()) + 2
	pts := c.Flatten(n)
	for i := 1; i < len(pts); i++ {
		plotLine(g, pts[i-1], pts[i], r, color)
	}
	if !arrow {
		return
	}
	from := c.C2
	if from == c.P3 {
		from = c.P0
	}
	x, y := screenToCell(c.P3)
	g.Set(x, y, arrowHead(c.P3.Sub(from)), color)
}

func arrowHead(d geom.Point) rune {
	if math.Abs(d.X)/cellWidth >= math.Abs(d.Y)/cellHeight {
		if d.X < 0 {
			return '<'
		}
		return '>'
	}
	if d.Y < 0 {
		return '^'
	}
	return 'v'
}

func plotLine(g *Grid, a, b geom.Point, r rune, color string) {
	lo, hi := g.pixelBounds()
	a, b, ok := clipSegment(a, b, lo, hi)
	if !ok {
		return
	}
	x0, y0 := screenToCell(a)
	x1, y1 := screenToCell(b)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	for {
		g.Set(x0, y0, r, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

// clipSegment trims a-b to the rectangle lo-hi (Liang-Barsky). ok is false
// when no part of the segment lies inside.
func clipSegment(a, b, lo, hi geom.Point) (geom.Point, geom.Point, bool) {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-d.X, a.X - lo.X},
		{d.X, hi.X - a.X},
		{-d.Y, a.Y - lo.Y},
		{d.Y, hi.Y - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = min(t1, t)
		}
	}
	if t0 == 0 && t1 == 1 {
		return a, b, true
	}
	return a.Add(d.Mul(t0)), a.Add(d.Mul(t1)), true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func drawFrame(g *Grid, c cellRect, corner, horizontal, vertical rune, color string) {
	v, ok := g.clip(c)
	if !ok {
		return
	}
	for x := v.x0; x <= v.x1; x++ {
		g.Set(x, c.y0, horizontal, color)
		g.Set(x, c.y1, horizontal, color)
	}
	for y := v.y0; y <= v.y1; y++ {
		g.Set(c.x0, y, vertical, color)
		g.Set(c.x1, y, vertical, color)
	}
	g.Set(c.x0, c.y0, corner, color)
	g.Set(c.x1, c.y0, corner, color)
	g.Set(c.x0, c.y1, corner, color)
	g.Set(c.x1, c.y1, corner, color)
}

// drawLines writes content lines inside a frame, clipped to its interior.
func drawLines(g *Grid, c cellRect, lines []string, color string) {
	for i, line := range lines {
		y := c.y0 + 1 + i
		if y >= c.y1 {
			return
		}
		g.Text(c.x0+1, y, line, c.x1, color)
	}
}

func drawItem(g *Grid, vp geom.Viewport, it *board.Item, selected bool) {
	c := toCells(vp, it.Rect())
	// The reactions row sits just below the frame.
	if _, ok := g.clip(cellRect{c.x0, c.y0, c.x1, c.y1 + 1}); !ok {
		return
	}
	corner, horizontal, vertical := '+', '-', '|'
	if selected {
		corner, horizontal, vertical = '#', '#', '#'
	}

	switch p := it.Payload.(type) {
	case *board.Shape:
		g.Fill(c.x0+1, c.y0+1, c.x1-1, c.y1-1, ' ')
		if p.Shape == board.ShapeCircle {
			drawEllipse(g, c, selected, it.Style.Fill)
		} else {
			drawFrame(g, c, corner, horizontal, vertical, it.Style.Fill)
		}

	case *board.Text:
		g.Fill(c.x0+1, c.y0+1, c.x1-1, c.y1-1, ' ')
		drawFrame(g, c, corner, horizontal, vertical, "")
		drawLines(g, c, strings.Split(p.Content, "\n"), it.Style.Color)

	case *board.Todo:
		g.Fill(c.x0+1, c.y0+1, c.x1-1, c.y1-1, ' ')
		drawFrame(g, c, corner, horizontal, vertical, "")
		lines := []string{it.Label()}
		for i, e := range p.Entries {
			mark := " "
			if e.Done {
				mark = "x"
			}
			lines = append(lines, strconv.Itoa(i+1)+"["+mark+"] "+e.Text+urgencyMark(e.Urgency))
		}
		drawLines(g, c, lines, it.Style.Color)

	case *board.Image:
		g.Fill(c.x0+1, c.y0+1, c.x1-1, c.y1-1, ' ')
		drawFrame(g, c, corner, horizontal, vertical, "")
		drawLines(g, c, []string{"[image]", p.Src}, "")

	case *board.Drawing:
		for _, path := range p.Paths {
			if len(path) == 0 {
				continue
			}
			prev := vp.WorldToScreen(it.Origin().Add(path[0]))
			x, y := screenToCell(prev)
			g.Set(x, y, '•', it.Style.Color)
			for _, pt := range path[1:] {
				next := vp.WorldToScreen(it.Origin().Add(pt))
				plotLine(g, prev, next, '•', it.Style.Color)
				prev = next
			}
		}
		if selected {
			drawFrame(g, c, '#', '.', '.', "")
		}
	}

	if len(it.Reactions) > 0 {
		var b strings.Builder
		for _, r := range it.Reactions {
			b.WriteString(r.Emoji + strconv.Itoa(r.Count) + " ")
		}
		g.Text(c.x0, c.y1+1, b.String(), c.x1+1, "")
	}

	if selected && it.Kind() != board.KindDrawing {
		g.Set(c.x1, c.y1, '◢', "")
		mx, my := (c.x0+c.x1)/2, (c.y0+c.y1)/2
		g.Set(mx, c.y0, 'o', "")
		g.Set(c.x1, my, 'o', "")
		g.Set(mx, c.y1, 'o', "")
		g.Set(c.x0, my, 'o', "")
	}
}

func drawEllipse(g *Grid, c cellRect, selected bool, color string) {
	r := 'o'
	if selected {
		r = '#'
	}
	cx, cy := float64(c.x0+c.x1)/2, float64(c.y0+c.y1)/2
	rx, ry := float64(c.x1-c.x0)/2, float64(c.y1-c.y0)/2
	steps := min(int(4*(rx+ry)), g.maxSteps()) + 8
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		g.Set(int(math.Round(cx+rx*math.Cos(a))), int(math.Round(cy+ry*math.Sin(a))), r, color)
	}
}

func urgencyMark(u board.Urgency) string {
	switch u {
	case board.UrgencyHigh:
		return " !!"
	case board.UrgencyMedium:
		return " !"
	default:
		return ""
	}
}
