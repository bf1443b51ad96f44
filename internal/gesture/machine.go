// Package gesture turns a pointer-down, move*, up sequence plus the active
// tool into one structured edit of a board document.
package gesture

import (
	"math"
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"

	"boardr/internal/board"
	"boardr/internal/geom"
)

type Machine struct {
	doc    *board.Document
	cfg    Config
	tool   Tool
	active Gesture
	rng    *rand.Rand
}

type Option func(*Machine)

func WithRand(r *rand.Rand) Option {
	return func(m *Machine) { m.rng = r }
}

func New(doc *board.Document, cfg Config, opts ...Option) *Machine {
	def := DefaultConfig()
	if cfg.MinItemSize <= 0 {
		cfg.MinItemSize = def.MinItemSize
	}
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale < cfg.MinScale {
		cfg.MaxScale = math.Max(def.MaxScale, cfg.MinScale)
	}
	if cfg.HandleSize <= 0 {
		cfg.HandleSize = def.HandleSize
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = def.Palette
	}
	m := &Machine{doc: doc, cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		seed := uint64(time.Now().UnixNano())
		m.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return m
}

func (m *Machine) Config() Config { return m.cfg }

func (m *Machine) Tool() Tool { return m.tool }

func (m *Machine) SetTool(t Tool) { m.tool = t }

func (m *Machine) Active() Gesture { return m.active }

func (m *Machine) State() State {
	if m.active == nil {
		return StateIdle
	}
	return m.active.State()
}

// ConnectPreview returns the source item and cursor of a connect drag.
func (m *Machine) ConnectPreview() (fromID string, cursor geom.Point, ok bool) {
	g, ok := m.active.(*Connect)
	if !ok {
		return "", geom.Point{}, false
	}
	return g.FromID, g.Cursor, true
}

// HitTest resolves the topmost item under a screen point and which of its
// handles was hit. The resize handle is the bottom-right square; the
// connect dots sit on the four edge midpoints.
func (m *Machine) HitTest(screen geom.Point) (*board.Item, Handle) {
	vp := m.doc.Viewport
	world := vp.ScreenToWorld(screen)
	half := m.cfg.HandleSize / 2

	if it := m.doc.TopmostWithin(world, vp.ScreenDeltaToWorld(geom.Pt(half, 0)).X); it != nil {
		r := vp.RectToScreen(it.Rect())
		corner := r.Max()
		if math.Abs(screen.X-corner.X) <= half && math.Abs(screen.Y-corner.Y) <= half {
			return it, HandleResize
		}
		dots := [4]geom.Point{
			{X: r.X + r.W/2, Y: r.Y},
			{X: r.X + r.W, Y: r.Y + r.H/2},
			{X: r.X + r.W/2, Y: r.Y + r.H},
			{X: r.X, Y: r.Y + r.H/2},
		}
		for _, dot := range dots {
			if math.Hypot(screen.X-dot.X, screen.Y-dot.Y) <= half {
				return it, HandleConnect
			}
		}
		if r.Contains(screen) {
			return it, HandleBody
		}
	}
	if it := m.doc.TopmostAt(world); it != nil {
		return it, HandleBody
	}
	return nil, HandleNone
}

// PointerDown classifies and starts a gesture. A down that arrives while a
// gesture is still active cancels that gesture first.
func (m *Machine) PointerDown(p Pointer) State {
	if m.active != nil {
		m.Cancel()
	}
	world := m.doc.Viewport.ScreenToWorld(p.Pos)
	target, handle := m.HitTest(p.Pos)

	switch {
	case m.tool == ToolHand || p.Button == ButtonMiddle:
		m.start(&Pan{Last: p.Pos})
	case p.Button == ButtonSecondary:
		if target == nil {
			m.start(&Pan{Last: p.Pos})
		}
	case m.tool == ToolPen:
		it := m.doc.Add(board.NewDrawing(world))
		m.start(&Draw{ID: it.ID})
	case target == nil:
		g := &Select{Additive: p.Shift}
		if p.Shift {
			g.Base = m.doc.Selection.Sorted()
		} else {
			m.doc.Selection.Clear()
		}
		m.doc.Selection.Box = &board.SelectionBox{Start: world, End: world}
		m.start(g)
	case handle == HandleResize:
		m.start(&Resize{ID: target.ID, Last: p.Pos})
	case handle == HandleConnect:
		m.start(&Connect{FromID: target.ID, Cursor: world})
	default:
		if p.Shift {
			m.doc.Selection.Toggle(target.ID)
			break
		}
		if !m.doc.Selection.Has(target.ID) {
			m.doc.Selection.Set(target.ID)
		}
		g := &Move{ID: target.ID, Last: p.Pos}
		if target.Kind() == board.KindShape {
			g.Children = m.doc.ContainedIn(target.Rect(), target.ID)
		}
		m.start(g)
	}
	return m.State()
}

func (m *Machine) start(g Gesture) {
	m.active = g
	log.WithFields(log.Fields{"state": g.State(), "tool": m.tool}).Debug("gesture started")
}

// PointerMove applies one incremental step of the active gesture.
func (m *Machine) PointerMove(p Pointer) {
	vp := m.doc.Viewport
	world := vp.ScreenToWorld(p.Pos)

	switch g := m.active.(type) {
	case nil:
	case *Pan:
		m.doc.Viewport.Pan = vp.Pan.Add(p.Pos.Sub(g.Last))
		g.Last = p.Pos
	case *Move:
		delta := vp.ScreenDeltaToWorld(p.Pos.Sub(g.Last))
		g.Last = p.Pos
		if err := m.doc.MoveBy(g.ID, delta); err != nil {
			m.active = nil
			return
		}
		for _, id := range g.Children {
			_ = m.doc.MoveBy(id, delta)
		}
	case *Resize:
		delta := vp.ScreenDeltaToWorld(p.Pos.Sub(g.Last))
		g.Last = p.Pos
		if err := m.doc.ResizeBy(g.ID, delta, m.cfg.MinItemSize); err != nil {
			m.active = nil
		}
	case *Connect:
		g.Cursor = world
	case *Draw:
		if err := m.doc.AppendStrokePoint(g.ID, world); err != nil {
			m.active = nil
		}
	case *Select:
		box := m.doc.Selection.Box
		if box == nil {
			box = &board.SelectionBox{Start: world}
			m.doc.Selection.Box = box
		}
		box.End = world
		ids := m.doc.CentersIn(box.Rect())
		if g.Additive {
			ids = append(ids, g.Base...)
		}
		m.doc.Selection.Set(ids...)
	}
}

// PointerUp ends the active gesture. Moves and resizes are already
// committed; a connect drag commits its edge here when released over an
// item other than its source.
func (m *Machine) PointerUp(p Pointer) Outcome {
	out := Outcome{Ended: m.State()}
	switch g := m.active.(type) {
	case *Connect:
		world := m.doc.Viewport.ScreenToWorld(p.Pos)
		if target := m.doc.FirstAt(world, g.FromID); target != nil {
			color := m.cfg.Palette[m.rng.IntN(len(m.cfg.Palette))]
			if c, ok := m.doc.Connect(g.FromID, target.ID, color); ok {
				out.Connection = &c
				log.WithFields(log.Fields{"from": c.FromID, "to": c.ToID}).Debug("connection created")
			}
		}
		out.ItemID = g.FromID
	case *Draw:
		_ = m.doc.FinishDrawing(g.ID)
		out.ItemID = g.ID
	case *Move:
		out.ItemID = g.ID
	case *Resize:
		out.ItemID = g.ID
	case *Select:
		m.doc.Selection.Box = nil
	}
	m.active = nil
	return out
}

// Cancel drops the gesture bookkeeping, keeping whatever was committed.
func (m *Machine) Cancel() {
	if g, ok := m.active.(*Draw); ok {
		_ = m.doc.FinishDrawing(g.ID)
	}
	m.doc.Selection.Box = nil
	m.active = nil
}

// Zoom scales the viewport by steps zoom increments around a screen point.
// Positive steps zoom in.
func (m *Machine) Zoom(pivot geom.Point, steps float64) {
	factor := math.Pow(geom.ZoomStep, steps)
	m.doc.Viewport = m.doc.Viewport.ZoomAt(pivot, factor, m.cfg.MinScale, m.cfg.MaxScale)
}

// Key handles editor shortcuts. Nothing fires while a text field has focus.
// It reports whether the key was consumed.
func (m *Machine) Key(key string, textFocus bool) bool {
	if textFocus {
		return false
	}
	switch key {
	case "delete", "backspace":
		if m.doc.Selection.Len() == 0 {
			return false
		}
		m.Cancel()
		n := m.doc.DeleteSelection()
		log.WithField("items", n).Debug("selection deleted")
		return true
	case "esc":
		m.Cancel()
		m.doc.Selection.Clear()
		return true
	case "v", "h", "p":
		t, _ := ParseTool(key)
		m.SetTool(t)
		return true
	}
	return false
}
