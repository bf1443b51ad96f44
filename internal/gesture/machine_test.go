package gesture

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardr/internal/board"
	"boardr/internal/geom"
)

func newMachine(t *testing.T) (*Machine, *board.Document) {
	t.Helper()
	doc := board.NewDocument()
	m := New(doc, DefaultConfig(), WithRand(rand.New(rand.NewPCG(1, 2))))
	return m, doc
}

func place(doc *board.Document, it *board.Item, x, y, w, h float64) *board.Item {
	it.X, it.Y, it.Width, it.Height = x, y, w, h
	return doc.Add(it)
}

func down(x, y float64) Pointer { return Pointer{Pos: geom.Pt(x, y)} }

func TestPanAddsRawScreenDelta(t *testing.T) {
	m, doc := newMachine(t)
	doc.Viewport = geom.Viewport{Pan: geom.Pt(5, 5), Scale: 2}
	m.SetTool(ToolHand)

	require.Equal(t, StatePanning, m.PointerDown(down(10, 10)))
	m.PointerMove(down(30, 50))
	m.PointerMove(down(40, 40))
	m.PointerUp(down(40, 40))

	assert.Equal(t, geom.Pt(35, 35), doc.Viewport.Pan)
	assert.Equal(t, 2.0, doc.Viewport.Scale)
	assert.Equal(t, StateIdle, m.State())
}

func TestMiddleButtonPansOverItems(t *testing.T) {
	m, doc := newMachine(t)
	it := place(doc, board.NewText(0, 0, "x"), 0, 0, 100, 100)

	assert.Equal(t, StatePanning, m.PointerDown(Pointer{Pos: geom.Pt(50, 50), Button: ButtonMiddle}))
	m.PointerMove(Pointer{Pos: geom.Pt(60, 50), Button: ButtonMiddle})
	assert.Equal(t, geom.Pt(10, 0), doc.Viewport.Pan)
	assert.Equal(t, 0.0, it.X)
}

func TestSecondaryButtonPansOnlyOnEmptyCanvas(t *testing.T) {
	m, doc := newMachine(t)
	place(doc, board.NewText(0, 0, "x"), 0, 0, 100, 100)

	assert.Equal(t, StateIdle, m.PointerDown(Pointer{Pos: geom.Pt(50, 50), Button: ButtonSecondary}))
	assert.Equal(t, StatePanning, m.PointerDown(Pointer{Pos: geom.Pt(500, 500), Button: ButtonSecondary}))
}

func TestRubberBandSelectsByCenter(t *testing.T) {
	m, doc := newMachine(t)
	small := place(doc, board.NewText(0, 0, ""), 20, 20, 50, 50)
	big := place(doc, board.NewText(0, 0, ""), 100, 0, 400, 400)

	require.Equal(t, StateSelecting, m.PointerDown(down(0, 0)))
	require.NotNil(t, doc.Selection.Box)
	m.PointerMove(down(150, 150))

	assert.True(t, doc.Selection.Has(small.ID))
	assert.False(t, doc.Selection.Has(big.ID), "overlap alone must not select")
	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 150, H: 150}, doc.Selection.Box.Rect())

	m.PointerUp(down(150, 150))
	assert.Nil(t, doc.Selection.Box)
	assert.Equal(t, []string{small.ID}, doc.Selection.Sorted())
}

func TestRubberBandNormalizesBackwardsDrag(t *testing.T) {
	m, doc := newMachine(t)
	it := place(doc, board.NewText(0, 0, ""), 20, 20, 50, 50)

	m.PointerDown(down(200, 200))
	m.PointerMove(down(0, 0))
	assert.True(t, doc.Selection.Has(it.ID))
}

func TestMoveDividesByScale(t *testing.T) {
	m, doc := newMachine(t)
	doc.Viewport.Scale = 2
	it := place(doc, board.NewText(0, 0, "x"), 0, 0, 100, 100)

	require.Equal(t, StateMoving, m.PointerDown(down(100, 100)))
	assert.True(t, doc.Selection.Has(it.ID))
	m.PointerMove(down(110, 104))
	m.PointerMove(down(120, 110))
	out := m.PointerUp(down(120, 110))

	assert.Equal(t, geom.Pt(10, 5), it.Origin())
	assert.Equal(t, StateMoving, out.Ended)
	assert.Equal(t, it.ID, out.ItemID)
}

func TestShapeMovesChildrenSnapshot(t *testing.T) {
	m, doc := newMachine(t)
	shape := place(doc, board.NewShape(0, 0, board.ShapeRectangle), 0, 0, 400, 400)
	child := place(doc, board.NewText(0, 0, "in"), 50, 50, 100, 100)
	outsider := place(doc, board.NewText(0, 0, "out"), 500, 0, 100, 100)

	require.Equal(t, StateMoving, m.PointerDown(down(300, 300)))
	m.PointerMove(down(400, 300))
	m.PointerMove(down(500, 300))
	// outsider now lies inside the shape but was not part of the snapshot
	assert.True(t, shape.Rect().ContainsRect(outsider.Rect()))
	m.PointerMove(down(520, 310))
	m.PointerUp(down(520, 310))

	assert.Equal(t, geom.Pt(220, 10), shape.Origin())
	assert.Equal(t, geom.Pt(270, 60), child.Origin())
	assert.Equal(t, geom.Pt(500, 0), outsider.Origin())
}

func TestChildrenReevaluatedPerGesture(t *testing.T) {
	m, doc := newMachine(t)
	shape := place(doc, board.NewShape(0, 0, board.ShapeRectangle), 0, 0, 400, 400)
	other := place(doc, board.NewText(0, 0, "later"), 500, 0, 100, 100)

	m.PointerDown(down(300, 300))
	m.PointerMove(down(500, 300))
	m.PointerUp(down(500, 300))

	m.PointerDown(down(500, 300))
	m.PointerMove(down(510, 300))
	m.PointerUp(down(510, 300))

	assert.Equal(t, geom.Pt(210, 0), shape.Origin())
	assert.Equal(t, geom.Pt(510, 0), other.Origin())
}

func TestNonShapeDoesNotCarryContainedItems(t *testing.T) {
	m, doc := newMachine(t)
	host := place(doc, board.NewTodo(0, 0), 0, 0, 400, 400)
	inner := place(doc, board.NewText(0, 0, ""), 50, 50, 60, 60)
	host.ZIndex = inner.ZIndex + 1

	m.PointerDown(down(300, 300))
	m.PointerMove(down(310, 300))

	assert.Equal(t, geom.Pt(50, 50), inner.Origin())
}

func TestResizeClampsToFloor(t *testing.T) {
	m, doc := newMachine(t)
	it := place(doc, board.NewText(0, 0, "x"), 0, 0, 100, 100)

	require.Equal(t, StateResizing, m.PointerDown(down(100, 100)))
	m.PointerMove(down(140, 120))
	assert.Equal(t, 140.0, it.Width)
	assert.Equal(t, 120.0, it.Height)

	m.PointerMove(down(-900, -900))
	assert.Equal(t, board.MinItemSize, it.Width)
	assert.Equal(t, board.MinItemSize, it.Height)

	m.PointerMove(down(-880, -890))
	assert.GreaterOrEqual(t, it.Width, board.MinItemSize)
	assert.GreaterOrEqual(t, it.Height, board.MinItemSize)
	assert.Equal(t, geom.Pt(0, 0), it.Origin())
}

func TestConnectCreatesEdgeToDropTarget(t *testing.T) {
	m, doc := newMachine(t)
	a := place(doc, board.NewText(0, 0, "a"), 0, 0, 100, 100)
	b := place(doc, board.NewText(0, 0, "b"), 300, 0, 100, 100)

	require.Equal(t, StateConnecting, m.PointerDown(down(100, 50)))
	m.PointerMove(down(250, 60))
	from, cursor, ok := m.ConnectPreview()
	require.True(t, ok)
	assert.Equal(t, a.ID, from)
	assert.Equal(t, geom.Pt(250, 60), cursor)

	out := m.PointerUp(down(350, 50))
	require.NotNil(t, out.Connection)
	assert.Equal(t, a.ID, out.Connection.FromID)
	assert.Equal(t, b.ID, out.Connection.ToID)
	assert.Contains(t, DefaultPalette, out.Connection.Color)
	assert.Len(t, doc.Connections, 1)
	_, _, ok = m.ConnectPreview()
	assert.False(t, ok)
}

func TestConnectReleasedOnNothingIsNoop(t *testing.T) {
	m, doc := newMachine(t)
	place(doc, board.NewText(0, 0, "a"), 0, 0, 100, 100)

	m.PointerDown(down(100, 50))
	out := m.PointerUp(down(700, 700))
	assert.Nil(t, out.Connection)
	assert.Empty(t, doc.Connections)
	assert.Equal(t, StateIdle, m.State())

	m.PointerDown(down(100, 50))
	out = m.PointerUp(down(40, 40))
	assert.Nil(t, out.Connection, "source is never its own target")
	assert.Empty(t, doc.Connections)
}

func TestTargetingPrefersHighestZIndex(t *testing.T) {
	m, doc := newMachine(t)
	first := place(doc, board.NewText(0, 0, "first"), 0, 0, 200, 200)
	second := place(doc, board.NewText(0, 0, "second"), 50, 50, 200, 200)
	first.ZIndex = second.ZIndex + 5

	m.PointerDown(down(120, 120))
	m.PointerMove(down(130, 120))

	assert.Equal(t, 10.0, first.X)
	assert.Equal(t, 50.0, second.X)
}

func TestPenDrawsAndReflows(t *testing.T) {
	m, doc := newMachine(t)
	m.SetTool(ToolPen)

	require.Equal(t, StateDrawing, m.PointerDown(down(100, 100)))
	require.Len(t, doc.Items, 1)
	it := doc.Items[0]
	assert.Equal(t, board.KindDrawing, it.Kind())

	m.PointerMove(down(90, 105))
	m.PointerMove(down(105, 80))
	out := m.PointerUp(down(105, 80))

	assert.Equal(t, it.ID, out.ItemID)
	assert.Equal(t, geom.Pt(90, 80), it.Origin())
	d := it.Payload.(*board.Drawing)
	assert.True(t, d.Done)
	for _, p := range d.Paths[0] {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
	}
}

func TestPenUsesWorldCoordinates(t *testing.T) {
	m, doc := newMachine(t)
	doc.Viewport = geom.Viewport{Pan: geom.Pt(100, 0), Scale: 0.5}
	m.SetTool(ToolPen)

	m.PointerDown(down(100, 0))
	m.PointerMove(down(150, 50))
	it := doc.Items[0]
	assert.Equal(t, geom.Pt(0, 0), it.Origin())
	assert.Equal(t, 100.0, it.Width)
	assert.Equal(t, 100.0, it.Height)
}

func TestShiftClickTogglesSelectionWithoutMoving(t *testing.T) {
	m, doc := newMachine(t)
	a := place(doc, board.NewText(0, 0, "a"), 0, 0, 100, 100)
	b := place(doc, board.NewText(0, 0, "b"), 300, 0, 100, 100)

	m.PointerDown(down(50, 50))
	m.PointerUp(down(50, 50))
	assert.Equal(t, StateIdle, m.PointerDown(Pointer{Pos: geom.Pt(350, 50), Shift: true}))
	assert.ElementsMatch(t, []string{a.ID, b.ID}, doc.Selection.Sorted())

	m.PointerDown(Pointer{Pos: geom.Pt(350, 50), Shift: true})
	assert.Equal(t, []string{a.ID}, doc.Selection.Sorted())
}

func TestInterruptedGestureKeepsCommittedSteps(t *testing.T) {
	m, doc := newMachine(t)
	it := place(doc, board.NewText(0, 0, "x"), 0, 0, 100, 100)

	m.PointerDown(down(50, 50))
	m.PointerMove(down(60, 50))
	m.Cancel()
	m.PointerMove(down(90, 50))

	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 10.0, it.X)
}

func TestZoomKeepsWorldPointUnderCursor(t *testing.T) {
	m, doc := newMachine(t)
	doc.Viewport = geom.Viewport{Pan: geom.Pt(-40, 25), Scale: 1.3}
	pivot := geom.Pt(321, 123)
	before := doc.Viewport.ScreenToWorld(pivot)

	m.Zoom(pivot, 3)
	m.Zoom(pivot, -7)

	after := doc.Viewport.ScreenToWorld(pivot)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestDeleteKeyRespectsTextFocus(t *testing.T) {
	m, doc := newMachine(t)
	a := place(doc, board.NewText(0, 0, "a"), 0, 0, 100, 100)
	b := place(doc, board.NewText(0, 0, "b"), 300, 0, 100, 100)
	doc.Connect(a.ID, b.ID, "red")
	doc.Selection.Set(a.ID)

	assert.False(t, m.Key("delete", true))
	assert.Len(t, doc.Items, 2)

	assert.True(t, m.Key("backspace", false))
	assert.Len(t, doc.Items, 1)
	assert.Empty(t, doc.Connections)
}

func TestToolShortcuts(t *testing.T) {
	m, _ := newMachine(t)
	assert.True(t, m.Key("p", false))
	assert.Equal(t, ToolPen, m.Tool())
	assert.True(t, m.Key("h", false))
	assert.Equal(t, ToolHand, m.Tool())
	assert.False(t, m.Key("v", true))
	assert.Equal(t, ToolHand, m.Tool())
}
