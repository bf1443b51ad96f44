package tui

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardr/internal/ai"
	"boardr/internal/board"
	"boardr/internal/config"
	"boardr/internal/editor"
	"boardr/internal/gesture"
	"boardr/internal/store"
)

type memClipboard struct{ text string }

func (c *memClipboard) ReadAll() (string, error) { return c.text, nil }

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type stubGenerator struct{ res ai.Result }

func (s stubGenerator) Generate(context.Context, string, ai.Mode) (ai.Result, error) {
	return s.res, nil
}

func newTestModel(t *testing.T, cfg *config.Config, opts ...editor.Option) model {
	t.Helper()
	p, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	if cfg == nil {
		cfg = config.Default()
		cfg.StartMenu = false
		cfg.Confirmations = false
	}
	cfg.SaveDirectory = t.TempDir()
	opts = append([]editor.Option{
		editor.WithRand(rand.New(rand.NewPCG(3, 4))),
		editor.WithClipboard(&memClipboard{}),
	}, opts...)
	ed := editor.New(p, gesture.DefaultConfig(), opts...)

	m := newModel(context.Background(), ed, cfg)
	return send(t, m, tea.WindowSizeMsg{Width: 100, Height: 31})
}

func send(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func keys(s string) []tea.Msg {
	var out []tea.Msg
	for _, r := range s {
		if r == ' ' {
			out = append(out, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

func key(k tea.KeyType) tea.Msg { return tea.KeyMsg{Type: k} }

func mouse(x, y int, action tea.MouseAction, button tea.MouseButton) tea.Msg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func TestWindowSizeSetsScreen(t *testing.T) {
	m := newTestModel(t, nil)
	assert.Equal(t, 800.0, m.ed.Screen().X)
	assert.Equal(t, 480.0, m.ed.Screen().Y)
	assert.Equal(t, 30, m.canvasHeight())
}

func TestAddAndEditText(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, keys("t")...)
	require.Equal(t, ModeEditing, m.mode)
	doc := m.ed.Document()
	require.Len(t, doc.Items, 1)
	it := doc.Items[0]
	assert.Equal(t, 300.0, it.X)
	assert.Equal(t, 190.0, it.Y)

	m = send(t, m, keys("hi yo")...)
	m = send(t, m, key(tea.KeyBackspace), key(tea.KeyEnter), key(tea.KeyCtrlS))
	assert.Equal(t, ModeNormal, m.mode)
	txt := it.Payload.(*board.Text)
	assert.Equal(t, "hi y\n", txt.Content)
	assert.False(t, txt.Editing)
}

func TestEscapeRestoresText(t *testing.T) {
	m := newTestModel(t, nil)
	it := m.ed.Document().Add(board.NewText(0, 0, "keep"))
	m = send(t, m, keys("e")...)
	require.Equal(t, ModeEditing, m.mode)
	m = send(t, m, keys("xyz")...)
	m = send(t, m, key(tea.KeyEsc))
	assert.Equal(t, "keep", it.Payload.(*board.Text).Content)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestClickAwayCommitsText(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, keys("t")...)
	require.Equal(t, ModeEditing, m.mode)
	it := m.ed.Document().Items[0]

	m = send(t, m, keys("draft")...)
	m = send(t, m, mouse(1, 1, tea.MouseActionPress, tea.MouseButtonLeft))
	assert.Equal(t, ModeNormal, m.mode)
	txt := it.Payload.(*board.Text)
	assert.Equal(t, "draft", txt.Content)
	assert.False(t, txt.Editing)
	assert.Equal(t, gesture.StateSelecting, m.ed.Machine().State(), "the press still reaches the canvas")

	m = send(t, m, mouse(1, 1, tea.MouseActionRelease, tea.MouseButtonNone), key(tea.KeyEsc))
	assert.Equal(t, "draft", txt.Content)
}

func TestMouseDragMovesItem(t *testing.T) {
	m := newTestModel(t, nil)
	it := m.ed.Document().Add(board.NewShape(0, 0, board.ShapeRectangle))

	m = send(t, m,
		mouse(5, 5, tea.MouseActionPress, tea.MouseButtonLeft),
		mouse(10, 7, tea.MouseActionMotion, tea.MouseButtonLeft),
	)
	assert.Equal(t, gesture.StateMoving, m.ed.Machine().State())
	m = send(t, m, mouse(10, 7, tea.MouseActionRelease, tea.MouseButtonNone))

	assert.Equal(t, 40.0, it.X)
	assert.Equal(t, 32.0, it.Y)
	assert.Equal(t, gesture.StateIdle, m.ed.Machine().State())
	assert.True(t, m.ed.Document().Selection.Has(it.ID))
}

func TestMouseIgnoresStatusLine(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, mouse(5, 30, tea.MouseActionPress, tea.MouseButtonLeft))
	assert.Equal(t, gesture.StateIdle, m.ed.Machine().State())
}

func TestMouseWheelZoomsAtPointer(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, mouse(0, 0, tea.MouseActionPress, tea.MouseButtonWheelUp))
	vp := m.ed.Document().Viewport
	assert.InDelta(t, 1.1, vp.Scale, 1e-9)
	assert.InDelta(t, -0.4, vp.Pan.X, 1e-9)
	assert.InDelta(t, -0.8, vp.Pan.Y, 1e-9)
}

func TestKeyboardConnect(t *testing.T) {
	m := newTestModel(t, nil)
	doc := m.ed.Document()
	a := textItem(doc, 0, 0, "a")
	b := textItem(doc, 240, 0, "b")

	m.cursorX, m.cursorY = 2, 1
	m = send(t, m, keys("a")...)
	require.Equal(t, gesture.StateConnecting, m.ed.Machine().State())
	for i := 0; i < 30; i++ {
		m = send(t, m, keys("l")...)
	}
	assert.Contains(t, m.View(), "~")
	m = send(t, m, keys(" ")...)

	require.Len(t, doc.Connections, 1)
	assert.Equal(t, a.ID, doc.Connections[0].FromID)
	assert.Equal(t, b.ID, doc.Connections[0].ToID)
	assert.Equal(t, "Connected", m.successMessage)
}

func TestKeyboardResizeKeepsHandleOffset(t *testing.T) {
	m := newTestModel(t, nil)
	it := board.NewShape(0, 0, board.ShapeRectangle)
	it.Width, it.Height = 160, 160
	m.ed.Document().Add(it)

	m.cursorX, m.cursorY = 2, 2
	m = send(t, m, keys("r")...)
	require.Equal(t, gesture.StateResizing, m.ed.Machine().State())
	m = send(t, m, keys("lllll")...)
	m = send(t, m, key(tea.KeyEnter))

	assert.Equal(t, 200.0, it.Width)
	assert.Equal(t, 160.0, it.Height)
	assert.False(t, m.keyGesture)
}

func TestPanModeScrollsBoard(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, keys("zlJ")...)
	vp := m.ed.Document().Viewport
	assert.Equal(t, -8.0, vp.Pan.X)
	assert.Equal(t, -32.0, vp.Pan.Y)
	assert.Equal(t, 0, m.cursorX)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	cfg := config.Default()
	cfg.StartMenu = false
	m := newTestModel(t, cfg)
	doc := m.ed.Document()
	textItem(doc, 0, 0, "a")

	m = send(t, m, keys("x")...)
	require.Equal(t, ModeConfirm, m.mode)
	assert.Contains(t, m.View(), "Delete this item?")
	m = send(t, m, keys("n")...)
	assert.Len(t, doc.Items, 1)

	m = send(t, m, keys("xy")...)
	assert.Empty(t, doc.Items)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestQuitConfirmation(t *testing.T) {
	cfg := config.Default()
	cfg.StartMenu = false
	m := newTestModel(t, cfg)
	m = send(t, m, keys("q")...)
	require.Equal(t, ModeConfirm, m.mode)

	_, cmd := m.Update(keys("y")[0])
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestProjectFlow(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, keys("n")...)
	require.Equal(t, ModeInput, m.mode)
	m = send(t, m, keys("Demo")...)
	m = send(t, m, key(tea.KeyEnter))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Demo", m.ed.Project().Name)

	textItem(m.ed.Document(), 0, 0, "saved")
	m = send(t, m, keys("s")...)
	assert.Equal(t, "saved Demo", m.successMessage)

	m = send(t, m, keys("o")...)
	require.Equal(t, ModeProjects, m.mode)
	require.Len(t, m.projects, 1)
	assert.Contains(t, m.View(), "Demo")
	m = send(t, m, key(tea.KeyEnter))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Len(t, m.ed.Document().Items, 1)
}

func TestStartupMenu(t *testing.T) {
	cfg := config.Default()
	m := newTestModel(t, cfg)
	require.Equal(t, ModeStartup, m.mode)
	assert.Contains(t, m.View(), "New project")

	m = send(t, m, keys("n")...)
	m = send(t, m, key(tea.KeyEsc))
	assert.Equal(t, ModeStartup, m.mode)

	m = send(t, m, keys("c")...)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestGenerateRunsOffTheUpdateLoop(t *testing.T) {
	gen := stubGenerator{res: ai.Result{Snippets: []string{"one", "two"}}}
	m := newTestModel(t, nil, editor.WithGenerator(gen))

	m = send(t, m, keys("g")...)
	m = send(t, m, keys("ideas")...)
	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(model)
	require.NotNil(t, cmd)
	assert.True(t, m.generating)
	assert.Empty(t, m.ed.Document().Items)

	m = send(t, m, cmd())
	assert.False(t, m.generating)
	assert.Len(t, m.ed.Document().Items, 2)
	assert.Equal(t, 2, m.ed.Document().Selection.Len())
}

func TestTodoKeys(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, keys("T")...)
	require.Equal(t, ModeInput, m.mode)
	m = send(t, m, keys("first")...)
	m = send(t, m, key(tea.KeyEnter))
	m = send(t, m, keys("second")...)
	m = send(t, m, key(tea.KeyEnter), key(tea.KeyEnter))
	require.Equal(t, ModeNormal, m.mode)

	doc := m.ed.Document()
	it := doc.Items[0]
	todo := it.Payload.(*board.Todo)
	require.Len(t, todo.Entries, 2)

	c := doc.Viewport.RectToScreen(it.Rect()).Center()
	m.cursorX, m.cursorY = screenToCell(c)
	m = send(t, m, keys("1u#")...)
	require.Len(t, todo.Entries, 1)
	assert.Equal(t, "second", todo.Entries[0].Text)
	assert.Equal(t, board.UrgencyMedium, todo.Entries[0].Urgency)
}

func TestPasteAndCopy(t *testing.T) {
	clip := &memClipboard{text: "<p>from the web</p>"}
	m := newTestModel(t, nil, editor.WithClipboard(clip))
	m = send(t, m, key(tea.KeyCtrlV))
	doc := m.ed.Document()
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "from the web", doc.Items[0].Payload.(*board.Text).Content)

	clip.text = ""
	m = send(t, m, keys("y")...)
	assert.Equal(t, "from the web", clip.text)
	assert.Equal(t, "Copied", m.successMessage)
}

func TestExportVisualTXT(t *testing.T) {
	m := newTestModel(t, nil)
	doc := m.ed.Document()
	it := textItem(doc, 0, 0, "hello")
	doc.Selection.Set(it.ID)

	path := filepath.Join(t.TempDir(), "board.txt")
	require.NoError(t, m.exportVisualTXT(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "+---------+")
	assert.Contains(t, out, "|hello")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "█")
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, keys("?")...)
	assert.True(t, m.help)
	assert.Contains(t, m.View(), "boardr help")
	m = send(t, m, keys("jj")...)
	assert.Equal(t, 2, m.helpScroll)
	m = send(t, m, keys("?")...)
	assert.False(t, m.help)
}

func TestLineEditor(t *testing.T) {
	e := newLineEditor("héllo")
	e.handle(tea.KeyMsg{Type: tea.KeyLeft}, false)
	e.handle(tea.KeyMsg{Type: tea.KeyBackspace}, false)
	e.handle(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")}, false)
	assert.Equal(t, "hélLo", e.String())
	assert.Equal(t, "hélL█", e.display())
	assert.False(t, e.handle(tea.KeyMsg{Type: tea.KeyEnter}, false))
	assert.True(t, e.handle(tea.KeyMsg{Type: tea.KeyEnter}, true))
	assert.Equal(t, "hélL\no", e.String())
}

func TestDisconnectKey(t *testing.T) {
	m := newTestModel(t, nil)
	doc := m.ed.Document()
	a := textItem(doc, 0, 0, "a")
	b := textItem(doc, 240, 0, "b")
	c := textItem(doc, 480, 0, "c")
	_, ok := doc.Connect(a.ID, b.ID, "red")
	require.True(t, ok)
	_, ok = doc.Connect(b.ID, c.ID, "red")
	require.True(t, ok)

	m.cursorX, m.cursorY = 2, 1
	m = send(t, m, keys("D")...)
	require.Len(t, doc.Connections, 1)
	assert.Equal(t, b.ID, doc.Connections[0].FromID)
	assert.Equal(t, "Removed 1 connection(s)", m.successMessage)

	m = send(t, m, keys("D")...)
	assert.Equal(t, "No connections to remove", m.errorMessage)
	assert.Len(t, doc.Connections, 1)
}

func TestEditTodoEntryKey(t *testing.T) {
	m := newTestModel(t, nil)
	doc := m.ed.Document()
	it := board.NewTodo(0, 0)
	it.Width, it.Height = 160, 160
	doc.Add(it)
	_, err := doc.AddTodo(it.ID, "milk")
	require.NoError(t, err)
	_, err = doc.AddTodo(it.ID, "eggs")
	require.NoError(t, err)

	m.cursorX, m.cursorY = 3, 1
	m = send(t, m, keys("w")...)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Move the cursor onto a to-do entry", m.errorMessage)

	m.cursorY = 3
	m = send(t, m, keys("w")...)
	require.Equal(t, ModeInput, m.mode)
	m = send(t, m, keys("s")...)
	m = send(t, m, key(tea.KeyEnter))
	assert.Equal(t, ModeNormal, m.mode)

	todo := it.Payload.(*board.Todo)
	assert.Equal(t, "milk", todo.Entries[0].Text)
	assert.Equal(t, "eggss", todo.Entries[1].Text)
}

func TestOpacityKeyCycles(t *testing.T) {
	m := newTestModel(t, nil)
	it := board.NewShape(0, 0, board.ShapeRectangle)
	it.Width, it.Height = 160, 160
	m.ed.Document().Add(it)

	m.cursorX, m.cursorY = 2, 2
	var seen []float64
	for i := 0; i < 4; i++ {
		m = send(t, m, keys("O")...)
		seen = append(seen, it.Style.Opacity)
	}
	assert.Equal(t, []float64{0.75, 0.5, 0.25, 1}, seen)
	assert.Equal(t, "Opacity: 100%", m.successMessage)

	textItem(m.ed.Document(), 400, 0, "t")
	m.cursorX = 52
	m = send(t, m, keys("O")...)
	assert.Equal(t, "No shape under cursor", m.errorMessage)
}
