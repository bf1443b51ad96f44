package tui

import (
	"boardr/internal/geom"
	"boardr/internal/gesture"
)

func isNavKey(key string) bool {
	switch key {
	case "h", "j", "k", "l", "H", "J", "K", "L",
		"left", "right", "up", "down",
		"shift+left", "shift+right", "shift+up", "shift+down":
		return true
	}
	return false
}

func (m *model) handleNavigation(key string, speed int) {
	if m.zPanMode && !m.keyGesture {
		m.handlePan(key, speed)
		return
	}
	m.handleCursorMove(key, speed)
	if m.keyGesture {
		m.ed.Machine().PointerMove(m.keyPointer())
	}
}

// handlePan scrolls the board by whole cells.
func (m *model) handlePan(key string, speed int) {
	doc := m.ed.Document()
	d := geom.Point{}
	switch key {
	case "h", "left", "H", "shift+left":
		d.X = float64(speed) * cellWidth
	case "l", "right", "L", "shift+right":
		d.X = -float64(speed) * cellWidth
	case "k", "up", "K", "shift+up":
		d.Y = float64(speed) * cellHeight
	case "j", "down", "J", "shift+down":
		d.Y = -float64(speed) * cellHeight
	}
	doc.Viewport.Pan = doc.Viewport.Pan.Add(d)
}

func (m *model) handleCursorMove(key string, speed int) {
	switch key {
	case "h", "left", "H", "shift+left":
		m.cursorX -= speed
	case "l", "right", "L", "shift+right":
		m.cursorX += speed
	case "k", "up", "K", "shift+up":
		m.cursorY -= speed
	case "j", "down", "J", "shift+down":
		m.cursorY += speed
	}
	m.ensureCursorInBounds()
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}

func (m *model) ensureCursorInBounds() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.width > 0 && m.cursorX >= m.width {
		m.cursorX = m.width - 1
	}
	if maxY := m.canvasHeight() - 1; m.cursorY > maxY {
		m.cursorY = max(maxY, 0)
	}
}

// cursorScreen is the screen point under the keyboard cursor.
func (m *model) cursorScreen() geom.Point {
	return cellToScreen(m.cursorX, m.cursorY)
}

func (m *model) cursorWorld() geom.Point {
	return m.ed.Document().Viewport.ScreenToWorld(m.cursorScreen())
}

// keyPointer is the primary-button pointer a keyboard gesture reports,
// shifted by the offset between the grabbed handle and the cursor.
func (m *model) keyPointer() gesture.Pointer {
	return gesture.Pointer{Pos: m.cursorScreen().Add(m.gestureOffset), Button: gesture.ButtonPrimary}
}
