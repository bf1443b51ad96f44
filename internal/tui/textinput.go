package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// lineEditor is the text buffer behind edit and input modes. Positions
// count runes.
type lineEditor struct {
	text []rune
	pos  int
}

func newLineEditor(s string) lineEditor {
	r := []rune(s)
	return lineEditor{text: r, pos: len(r)}
}

func (e *lineEditor) String() string { return string(e.text) }

func (e *lineEditor) insert(s string) {
	r := []rune(s)
	out := make([]rune, 0, len(e.text)+len(r))
	out = append(out, e.text[:e.pos]...)
	out = append(out, r...)
	out = append(out, e.text[e.pos:]...)
	e.text = out
	e.pos += len(r)
}

// handle applies an editing key and reports whether it was one.
func (e *lineEditor) handle(msg tea.KeyMsg, multiline bool) bool {
	switch msg.Type {
	case tea.KeyLeft:
		if e.pos > 0 {
			e.pos--
		}
	case tea.KeyRight:
		if e.pos < len(e.text) {
			e.pos++
		}
	case tea.KeyHome, tea.KeyCtrlA:
		e.pos = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		e.pos = len(e.text)
	case tea.KeyBackspace:
		if e.pos > 0 {
			e.text = append(e.text[:e.pos-1], e.text[e.pos:]...)
			e.pos--
		}
	case tea.KeyDelete:
		if e.pos < len(e.text) {
			e.text = append(e.text[:e.pos], e.text[e.pos+1:]...)
		}
	case tea.KeySpace:
		e.insert(" ")
	case tea.KeyEnter:
		if !multiline {
			return false
		}
		e.insert("\n")
	case tea.KeyRunes:
		e.insert(string(msg.Runes))
	default:
		return false
	}
	return true
}

// display renders the buffer on one line with a block cursor.
func (e *lineEditor) display() string {
	runes := []rune(strings.ReplaceAll(string(e.text), "\n", "⏎"))
	if e.pos >= len(runes) {
		return string(runes) + "█"
	}
	runes[e.pos] = '█'
	return string(runes)
}
