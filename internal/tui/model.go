// Package tui is the terminal front end. It draws the board as a
// character grid and feeds mouse and keyboard input to the session's
// gesture machine.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"boardr/internal/ai"
	"boardr/internal/board"
	"boardr/internal/config"
	"boardr/internal/editor"
	"boardr/internal/geom"
	"boardr/internal/store"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ed *editor.Editor, cfg *config.Config) error {
	p := tea.NewProgram(
		newModel(ctx, ed, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

type generatedMsg struct {
	res ai.Result
	err error
}

type model struct {
	ctx context.Context
	ed  *editor.Editor
	cfg *config.Config

	width      int
	height     int
	cursorX    int
	cursorY    int
	zPanMode   bool
	mode       Mode
	help       bool
	helpScroll int

	// keyGesture is set while a gesture started from the keyboard is live.
	keyGesture    bool
	gestureOffset geom.Point

	editID       string
	editOriginal string
	edit         lineEditor

	inputOp  InputOperation
	input    lineEditor
	targetID string
	entryID  string

	projects        []store.ProjectMeta
	selectedProject int
	fromStartup     bool

	confirmAction ConfirmAction
	confirmID     string

	generating     bool
	errorMessage   string
	successMessage string
}

func newModel(ctx context.Context, ed *editor.Editor, cfg *config.Config) model {
	if cfg == nil {
		cfg = config.Default()
	}
	m := model{ctx: ctx, ed: ed, cfg: cfg, mode: ModeNormal}
	if cfg.StartMenu {
		m.mode = ModeStartup
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ed.SetScreen(float64(m.width)*cellWidth, float64(m.canvasHeight())*cellHeight)
		m.ensureCursorInBounds()

	case generatedMsg:
		m.generating = false
		items := m.ed.Apply(msg.res, msg.err)
		m.selectItems(items)
		if msg.err == nil {
			m.successMessage = fmt.Sprintf("Inserted %d item(s)", len(items))
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}
	m.collectNotices()
	return m, cmd
}

// canvasHeight is the number of rows the board gets; the last row is the
// status line.
func (m *model) canvasHeight() int {
	return max(m.height-1, 1)
}

// collectNotices moves the editor's pending notices into the status line.
// The latest one wins.
func (m *model) collectNotices() {
	for _, n := range m.ed.Notices() {
		switch n.Level {
		case editor.LevelError:
			m.errorMessage, m.successMessage = n.Message, ""
		case editor.LevelWarn:
			m.errorMessage, m.successMessage = "", "Warning: "+n.Message
		default:
			m.errorMessage, m.successMessage = "", n.Message
		}
	}
}

func (m *model) itemAtCursor() *board.Item {
	return m.ed.Document().TopmostAt(m.cursorWorld())
}

func (m *model) selectItems(items []*board.Item) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	m.ed.Document().Selection.Set(ids...)
}

func (m *model) generate(prompt string, mode ai.Mode) tea.Cmd {
	m.generating = true
	gen, ctx := m.ed.Generator(), m.ctx
	return func() tea.Msg {
		res, err := gen.Generate(ctx, prompt, mode)
		return generatedMsg{res: res, err: err}
	}
}
