package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"boardr/internal/geom"
	"boardr/internal/gesture"
)

func mouseButton(b tea.MouseButton) (gesture.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return gesture.ButtonPrimary, true
	case tea.MouseButtonMiddle:
		return gesture.ButtonMiddle, true
	case tea.MouseButtonRight:
		return gesture.ButtonSecondary, true
	}
	return 0, false
}

// handleMouse maps cell events onto screen pixels for the gesture machine.
// Only normal mode takes pointer input; a press while editing text
// commits the edit first.
func (m *model) handleMouse(msg tea.MouseMsg) {
	if m.mode == ModeEditing && !m.help && msg.Action == tea.MouseActionPress && msg.Y < m.canvasHeight() {
		// Clicking away from the text being edited keeps what was typed.
		m.commitEdit()
	}
	if m.mode != ModeNormal || m.help || msg.Y >= m.canvasHeight() {
		return
	}
	mach := m.ed.Machine()
	pos := cellToScreen(msg.X, msg.Y)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		mach.Zoom(pos, 1)
		return
	case tea.MouseButtonWheelDown:
		mach.Zoom(pos, -1)
		return
	}

	m.cursorX, m.cursorY = msg.X, msg.Y
	if m.keyGesture {
		// The mouse takes over from a keyboard gesture.
		m.keyGesture = false
		m.gestureOffset = geom.Point{}
	}

	switch msg.Action {
	case tea.MouseActionPress:
		btn, ok := mouseButton(msg.Button)
		if !ok {
			return
		}
		m.errorMessage = ""
		m.successMessage = ""
		mach.PointerDown(gesture.Pointer{Pos: pos, Button: btn, Shift: msg.Shift})
	case tea.MouseActionMotion:
		mach.PointerMove(gesture.Pointer{Pos: pos, Shift: msg.Shift})
	case tea.MouseActionRelease:
		m.reportOutcome(mach.PointerUp(gesture.Pointer{Pos: pos, Shift: msg.Shift}))
	}
}
