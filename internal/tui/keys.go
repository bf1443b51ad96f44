package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"boardr/internal/ai"
	"boardr/internal/board"
	"boardr/internal/geom"
	"boardr/internal/gesture"
	"boardr/internal/render"
	"boardr/internal/store"
)

const defaultReaction = "👍"

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.help && m.mode != ModeStartup {
		m.handleHelpKey(msg.String())
		return nil
	}
	switch m.mode {
	case ModeStartup:
		return m.handleStartupKey(msg)
	case ModeEditing:
		m.handleEditKey(msg)
		return nil
	case ModeInput:
		return m.handleInputKey(msg)
	case ModeProjects:
		m.handleProjectsKey(msg)
		return nil
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	}
	return m.handleNormalKey(msg)
}

func (m *model) handleHelpKey(key string) {
	switch key {
	case "esc", "q", "?":
		m.help = false
		m.helpScroll = 0
	case "j", "down":
		if m.helpScroll < len(helpLines)-1 {
			m.helpScroll++
		}
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	}
}

func (m *model) handleStartupKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "n":
		m.fromStartup = true
		m.startInput(InputNewProject, "")
	case "o":
		m.openProjects(true)
	case "enter", "c":
		m.mode = ModeNormal
	case "q", "esc":
		return tea.Quit
	}
	return nil
}

func (m *model) handleNormalKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	m.errorMessage = ""
	m.successMessage = ""
	doc := m.ed.Document()
	mach := m.ed.Machine()

	if isNavKey(key) {
		m.handleNavigation(key, m.getMoveSpeed(key))
		return nil
	}
	if m.keyGesture {
		switch key {
		case " ", "enter", "m", "r", "a":
			m.finishKeyGesture()
		case "esc":
			mach.Cancel()
			m.keyGesture = false
			m.gestureOffset = geom.Point{}
		}
		return nil
	}

	switch key {
	case "q":
		if m.cfg.Confirmations {
			m.confirm(ConfirmQuit, "")
			return nil
		}
		return tea.Quit
	case "?":
		m.help = true
		m.helpScroll = 0
	case "z":
		m.zPanMode = !m.zPanMode

	// Pointer gestures driven from the keyboard.
	case " ":
		m.startKeyGesture(m.cursorScreen(), geom.Point{})
	case "m":
		if m.itemAtCursor() == nil {
			m.errorMessage = "No item under cursor"
			return nil
		}
		m.startKeyGesture(m.cursorScreen(), geom.Point{})
	case "r":
		it := m.itemAtCursor()
		if it == nil {
			m.errorMessage = "No item under cursor"
			return nil
		}
		corner := doc.Viewport.RectToScreen(it.Rect()).Max()
		m.startKeyGesture(corner, corner.Sub(m.cursorScreen()))
	case "a":
		it := m.itemAtCursor()
		if it == nil {
			m.errorMessage = "No item under cursor"
			return nil
		}
		r := doc.Viewport.RectToScreen(it.Rect())
		if m.startKeyGesture(geom.Pt(r.X+r.W, r.Y+r.H/2), geom.Point{}) == gesture.StateConnecting {
			mach.PointerMove(m.keyPointer())
		}

	case "tab":
		mach.SetTool((mach.Tool() + 1) % 3)
	case "v", "p", "esc":
		mach.Key(key, false)
	case "x", "delete", "backspace":
		m.requestDelete()

	case "enter", "e":
		m.editAtCursor()
	case "t":
		if it := m.add(board.KindText); it != nil {
			m.beginEdit(it)
		}
	case "b":
		m.add(board.KindShape)
	case "c":
		if it := m.add(board.KindShape); it != nil {
			circle := board.ShapeCircle
			_ = doc.StyleShape(it.ID, board.ShapeStyle{Shape: &circle})
		}
	case "T":
		if it := m.add(board.KindTodo); it != nil {
			m.targetID = it.ID
			m.startInput(InputTodo, "")
		}
	case "i":
		m.startInput(InputImage, "")
	case "g":
		m.startInput(InputPrompt, "")
	case "G":
		m.startInput(InputImagePrompt, "")
	case "C":
		m.cycleColor()
	case "f":
		if it := m.itemAtCursor(); it != nil {
			_ = doc.BringToFront(it.ID)
		}
	case "R":
		m.react(true)
	case "U":
		m.react(false)
	case "u":
		m.cycleUrgency()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.toggleTodo(int(key[0] - '1'))
	case "#":
		m.clearDoneTodos()
	case "w":
		m.editTodoEntry()
	case "D":
		m.disconnect()
	case "O":
		m.cycleOpacity()

	case "+", "=":
		mach.Zoom(m.cursorScreen(), 1)
	case "-", "_":
		mach.Zoom(m.cursorScreen(), -1)
	case "0":
		doc.Viewport = geom.NewViewport()

	case "s", "ctrl+s":
		_ = m.ed.Save(m.ctx)
	case "o":
		m.openProjects(false)
	case "n":
		m.startInput(InputNewProject, "")
	case "P":
		m.startInput(InputExportPNG, m.defaultFilename(".png"))
	case "E":
		m.startInput(InputExportTXT, m.defaultFilename(".txt"))
	case "X":
		m.startInput(InputExportBundle, m.defaultFilename(".json"))
	case "I":
		m.startInput(InputImportBundle, "")
	case "ctrl+v":
		if it, err := m.ed.Paste(); err == nil && it != nil {
			doc.Selection.Set(it.ID)
			m.successMessage = "Pasted"
		}
	case "y":
		if doc.Selection.Len() == 0 {
			if it := m.itemAtCursor(); it != nil {
				doc.Selection.Set(it.ID)
			}
		}
		if err := m.ed.Copy(); err == nil && doc.Selection.Len() > 0 {
			m.successMessage = "Copied"
		}
	}
	return nil
}

// startKeyGesture presses the primary button at a screen point. Later
// cursor moves are reported at cursor+offset until the gesture ends.
func (m *model) startKeyGesture(at, offset geom.Point) gesture.State {
	st := m.ed.Machine().PointerDown(gesture.Pointer{Pos: at, Button: gesture.ButtonPrimary})
	if st == gesture.StateIdle {
		return st
	}
	m.keyGesture = true
	m.gestureOffset = offset
	return st
}

func (m *model) finishKeyGesture() {
	out := m.ed.Machine().PointerUp(m.keyPointer())
	m.keyGesture = false
	m.gestureOffset = geom.Point{}
	m.reportOutcome(out)
}

func (m *model) reportOutcome(out gesture.Outcome) {
	switch {
	case out.Connection != nil:
		m.successMessage = "Connected"
	case out.Ended == gesture.StateConnecting:
		m.errorMessage = "Release over another item to connect"
	case out.Ended == gesture.StateDrawing:
		m.successMessage = "Drawing added"
	}
}

func (m *model) add(kind board.Kind) *board.Item {
	it, err := m.ed.Add(kind)
	if err != nil {
		m.errorMessage = err.Error()
		return nil
	}
	m.ed.Document().Selection.Set(it.ID)
	return it
}

func (m *model) requestDelete() {
	doc := m.ed.Document()
	if doc.Selection.Len() == 0 {
		it := m.itemAtCursor()
		if it == nil {
			return
		}
		doc.Selection.Set(it.ID)
	}
	if m.cfg.Confirmations {
		m.confirm(ConfirmDelete, "")
		return
	}
	m.ed.Machine().Key("delete", false)
}

func (m *model) editAtCursor() {
	it := m.itemAtCursor()
	if it == nil {
		m.errorMessage = "No item under cursor"
		return
	}
	doc := m.ed.Document()
	doc.Selection.Set(it.ID)
	switch p := it.Payload.(type) {
	case *board.Text:
		m.beginEdit(it)
	case *board.Todo:
		m.targetID = it.ID
		m.startInput(InputTodo, "")
	case *board.Shape:
		next := board.ShapeCircle
		if p.Shape == board.ShapeCircle {
			next = board.ShapeRectangle
		}
		_ = doc.StyleShape(it.ID, board.ShapeStyle{Shape: &next})
	default:
		m.errorMessage = fmt.Sprintf("%s items are not editable", it.Kind())
	}
}

func (m *model) beginEdit(it *board.Item) {
	t, ok := it.Payload.(*board.Text)
	if !ok || m.ed.Document().BeginEdit(it.ID) != nil {
		return
	}
	m.editID = it.ID
	m.editOriginal = t.Content
	m.edit = newLineEditor(t.Content)
	m.mode = ModeEditing
}

func (m *model) handleEditKey(msg tea.KeyMsg) {
	doc := m.ed.Document()
	switch msg.Type {
	case tea.KeyEsc:
		_ = doc.CommitText(m.editID, m.editOriginal)
	case tea.KeyCtrlS:
		m.commitEdit()
		return
	default:
		m.edit.handle(msg, true)
		return
	}
	m.endEdit()
}

func (m *model) commitEdit() {
	_ = m.ed.Document().CommitText(m.editID, m.edit.String())
	m.endEdit()
}

func (m *model) endEdit() {
	m.mode = ModeNormal
	m.editID = ""
	m.edit = lineEditor{}
}

func (m *model) startInput(op InputOperation, initial string) {
	m.inputOp = op
	m.input = newLineEditor(initial)
	m.mode = ModeInput
}

func (m *model) leaveInput() {
	m.input = lineEditor{}
	if m.fromStartup {
		m.fromStartup = false
		m.mode = ModeStartup
		return
	}
	m.mode = ModeNormal
}

func (m *model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.errorMessage = ""
		m.leaveInput()
		return nil
	case tea.KeyEnter:
		return m.submitInput()
	}
	m.input.handle(msg, false)
	return nil
}

func (m *model) submitInput() tea.Cmd {
	text := strings.TrimSpace(m.input.String())
	doc := m.ed.Document()
	m.errorMessage = ""

	switch m.inputOp {
	case InputNewProject:
		if err := m.ed.NewProject(m.ctx, text); err != nil {
			return nil
		}

	case InputExportPNG, InputExportTXT, InputExportBundle, InputImportBundle:
		if text == "" {
			m.errorMessage = "Filename required"
			return nil
		}
		if err := m.fileOperation(m.inputOp, text); err != nil {
			m.errorMessage = err.Error()
			return nil
		}

	case InputImage:
		if text != "" {
			doc.Selection.Set(m.ed.InsertImage(text).ID)
		}

	case InputTodoEdit:
		if text == "" {
			m.errorMessage = "To-do text required"
			return nil
		}
		if err := doc.EditTodo(m.targetID, m.entryID, text); err != nil {
			m.errorMessage = err.Error()
			return nil
		}

	case InputTodo:
		if text == "" {
			break
		}
		if _, err := doc.AddTodo(m.targetID, text); err != nil {
			m.errorMessage = err.Error()
			break
		}
		// Stay in the prompt so several entries can be added in a row.
		m.input = lineEditor{}
		return nil

	case InputPrompt, InputImagePrompt:
		if text == "" {
			m.errorMessage = "Prompt required"
			return nil
		}
		mode := ai.ModeText
		if m.inputOp == InputImagePrompt {
			mode = ai.ModeImage
		}
		m.leaveInput()
		m.successMessage = "Generating..."
		return m.generate(text, mode)
	}
	m.fromStartup = false
	m.leaveInput()
	return nil
}

func (m *model) fileOperation(op InputOperation, name string) error {
	switch op {
	case InputExportPNG:
		path := m.cfg.GetSavePath(withExt(name, ".png"))
		if err := render.PNG(m.ed.Document(), path); err != nil {
			return err
		}
		m.successMessage = "Exported to " + path

	case InputExportTXT:
		path := m.cfg.GetSavePath(withExt(name, ".txt"))
		if err := m.exportVisualTXT(path); err != nil {
			return err
		}
		m.successMessage = "Exported to " + path

	case InputExportBundle:
		if err := m.ed.Save(m.ctx); err != nil {
			return err
		}
		path := m.cfg.GetSavePath(name)
		data, err := store.Export(m.ctx, m.ed.Store(), m.ed.Project().ID, store.FormatForPath(path))
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		m.successMessage = "Exported to " + path

	case InputImportBundle:
		data, err := os.ReadFile(m.cfg.GetSavePath(name))
		if err != nil {
			return err
		}
		meta, err := store.Import(m.ctx, m.ed.Store(), data, store.FormatForPath(name))
		if err != nil {
			return err
		}
		if err := m.ed.Open(m.ctx, meta.ID); err != nil {
			return err
		}
		m.successMessage = "Imported " + meta.Name
	}
	return nil
}

func withExt(name, ext string) string {
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

func (m *model) defaultFilename(ext string) string {
	name := m.ed.Project().Name
	if name == "" {
		name = "board"
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "-") + ext
}

func (m *model) openProjects(fromStartup bool) {
	list, err := m.ed.Projects(m.ctx)
	if err != nil {
		return
	}
	m.projects = list
	m.selectedProject = 0
	m.fromStartup = fromStartup
	m.mode = ModeProjects
}

func (m *model) handleProjectsKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "q":
		m.leaveInput()
	case "up", "k":
		if m.selectedProject > 0 {
			m.selectedProject--
		} else if len(m.projects) > 0 {
			m.selectedProject = len(m.projects) - 1
		}
	case "down", "j":
		if m.selectedProject < len(m.projects)-1 {
			m.selectedProject++
		} else {
			m.selectedProject = 0
		}
	case "n":
		m.startInput(InputNewProject, "")
	case "d", "x":
		if len(m.projects) > 0 {
			m.confirm(ConfirmDeleteProject, m.projects[m.selectedProject].ID)
		}
	case "enter":
		if len(m.projects) == 0 {
			return
		}
		if err := m.ed.Open(m.ctx, m.projects[m.selectedProject].ID); err != nil {
			return
		}
		m.fromStartup = false
		m.mode = ModeNormal
		m.successMessage = "Opened " + m.ed.Project().Name
	}
}

func (m *model) confirm(action ConfirmAction, id string) {
	m.confirmAction = action
	m.confirmID = id
	m.mode = ModeConfirm
}

func (m *model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	back := ModeNormal
	if m.confirmAction == ConfirmDeleteProject {
		back = ModeProjects
	}
	switch msg.String() {
	case "y", "Y":
		switch m.confirmAction {
		case ConfirmQuit:
			return tea.Quit
		case ConfirmDelete:
			m.ed.Machine().Key("delete", false)
		case ConfirmDeleteProject:
			if err := m.ed.DeleteProject(m.ctx, m.confirmID); err == nil {
				m.projects = slices.DeleteFunc(m.projects, func(p store.ProjectMeta) bool { return p.ID == m.confirmID })
				m.selectedProject = min(m.selectedProject, max(len(m.projects)-1, 0))
				m.successMessage = "Project deleted"
			}
		}
		m.mode = back
	case "n", "N", "esc":
		m.mode = back
	}
	return nil
}

func (m *model) cycleColor() {
	doc := m.ed.Document()
	ids := doc.Selection.Sorted()
	if len(ids) == 0 {
		if it := m.itemAtCursor(); it != nil {
			ids = []string{it.ID}
		}
	}
	palette := m.ed.Machine().Config().Palette
	if len(palette) == 0 {
		return
	}
	for _, id := range ids {
		it := doc.Item(id)
		if it == nil {
			continue
		}
		if it.Kind() == board.KindShape {
			fill := palette[(slices.Index(palette, it.Style.Fill)+1)%len(palette)]
			_ = doc.StyleShape(id, board.ShapeStyle{Fill: &fill})
			continue
		}
		_ = doc.SetColor(id, palette[(slices.Index(palette, it.Style.Color)+1)%len(palette)])
	}
}

func (m *model) react(add bool) {
	doc := m.ed.Document()
	it := m.itemAtCursor()
	if it == nil {
		return
	}
	var (
		n   int
		err error
	)
	if add {
		n, err = doc.React(it.ID, defaultReaction)
	} else {
		n, err = doc.Unreact(it.ID, defaultReaction)
	}
	if err == nil {
		m.successMessage = fmt.Sprintf("%s %d", defaultReaction, n)
	}
}

func (m *model) todoAtCursor() (*board.Item, *board.Todo) {
	it := m.itemAtCursor()
	if it == nil {
		return nil, nil
	}
	t, ok := it.Payload.(*board.Todo)
	if !ok {
		return nil, nil
	}
	return it, t
}

func (m *model) toggleTodo(n int) {
	it, t := m.todoAtCursor()
	if t == nil || n >= len(t.Entries) {
		return
	}
	_ = m.ed.Document().ToggleTodo(it.ID, t.Entries[n].ID)
}

// cycleUrgency bumps the first open entry of the to-do under the cursor.
func (m *model) cycleUrgency() {
	it, t := m.todoAtCursor()
	if t == nil {
		return
	}
	for _, e := range t.Entries {
		if e.Done {
			continue
		}
		if u, err := m.ed.Document().CycleUrgency(it.ID, e.ID); err == nil {
			m.successMessage = "Urgency: " + u.String()
		}
		return
	}
}

func (m *model) clearDoneTodos() {
	it, t := m.todoAtCursor()
	if t == nil {
		return
	}
	var done []string
	for _, e := range t.Entries {
		if e.Done {
			done = append(done, e.ID)
		}
	}
	for _, id := range done {
		_ = m.ed.Document().DeleteTodo(it.ID, id)
	}
}

// editTodoEntry opens a prompt for the to-do entry on the cursor row.
func (m *model) editTodoEntry() {
	it, t := m.todoAtCursor()
	if t == nil {
		m.errorMessage = "No to-do under cursor"
		return
	}
	// Entries are drawn one per row below the frame's top border and label.
	c := toCells(m.ed.Document().Viewport, it.Rect())
	n := m.cursorY - c.y0 - 2
	if n < 0 || n >= len(t.Entries) {
		m.errorMessage = "Move the cursor onto a to-do entry"
		return
	}
	m.targetID = it.ID
	m.entryID = t.Entries[n].ID
	m.startInput(InputTodoEdit, t.Entries[n].Text)
}

// disconnect removes every connection touching the selection, or the item
// under the cursor when nothing is selected.
func (m *model) disconnect() {
	doc := m.ed.Document()
	ids := doc.Selection.Sorted()
	if len(ids) == 0 {
		if it := m.itemAtCursor(); it != nil {
			ids = []string{it.ID}
		}
	}
	var gone []string
	for _, c := range doc.Connections {
		if slices.Contains(ids, c.FromID) || slices.Contains(ids, c.ToID) {
			gone = append(gone, c.ID)
		}
	}
	n := 0
	for _, id := range gone {
		if doc.Disconnect(id) {
			n++
		}
	}
	if n == 0 {
		m.errorMessage = "No connections to remove"
		return
	}
	m.successMessage = fmt.Sprintf("Removed %d connection(s)", n)
}

var opacitySteps = []float64{1, 0.75, 0.5, 0.25}

// cycleOpacity steps the opacity of the shape under the cursor.
func (m *model) cycleOpacity() {
	it := m.itemAtCursor()
	if it == nil || it.Kind() != board.KindShape {
		m.errorMessage = "No shape under cursor"
		return
	}
	next := opacitySteps[0]
	for i, o := range opacitySteps {
		if it.Style.Opacity >= o-0.01 {
			next = opacitySteps[(i+1)%len(opacitySteps)]
			break
		}
	}
	if err := m.ed.Document().StyleShape(it.ID, board.ShapeStyle{Opacity: &next}); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.successMessage = fmt.Sprintf("Opacity: %d%%", int(next*100))
}
