package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"boardr/internal/router"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	modeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ac("255", "235")).
			Background(ac("27", "62")).
			Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(ac("240", "245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ac("27", "75"))
	pickedStyle  = lipgloss.NewStyle().Bold(true).Foreground(ac("235", "255")).Background(ac("#e9e9e9", "#262626"))
)

func (m model) View() string {
	if m.help && m.mode != ModeStartup {
		return m.helpView()
	}
	switch m.mode {
	case ModeStartup:
		return m.startupView()
	case ModeProjects:
		return m.projectsView()
	}
	return m.renderGrid(true).Styled() + "\n" + m.statusLine()
}

// renderGrid draws the visible part of the board. Interactive grids also
// carry selection, handles, the connect preview and the keyboard cursor.
func (m *model) renderGrid(interactive bool) *Grid {
	g := NewGrid(max(m.width, 1), m.canvasHeight())
	doc := m.ed.Document()
	opts := drawOptions{interactive: interactive}
	if interactive {
		if from, cursor, ok := m.ed.Machine().ConnectPreview(); ok {
			if c, ok := router.Preview(doc, from, cursor); ok {
				opts.preview = &c
			}
		}
	}
	drawBoard(g, doc, opts)
	if interactive && (m.mode == ModeNormal || m.mode == ModeConfirm) {
		g.Set(m.cursorX, m.cursorY, '█', "")
	}
	return g
}

func (m *model) projectName() string {
	if name := m.ed.Project().Name; name != "" {
		return name
	}
	return "unsaved"
}

func (m *model) statusLine() string {
	mach := m.ed.Machine()
	var parts []string

	switch m.mode {
	case ModeEditing:
		parts = append(parts,
			"Text: "+m.edit.display(),
			"←/→=move cursor, Enter=newline, Ctrl+S=save, Esc=cancel")
	case ModeInput:
		parts = append(parts,
			m.inputOp.prompt()+": "+m.input.display(),
			"Enter=confirm, Esc=cancel")
	case ModeConfirm:
		parts = append(parts, m.confirmMessage())
	default:
		zoom := int(math.Round(m.ed.Document().Viewport.Scale * 100))
		parts = append(parts,
			"Tool: "+mach.Tool().String(),
			mach.State().String(),
			fmt.Sprintf("Zoom: %d%%", zoom),
			"Project: "+m.projectName())
		if m.zPanMode {
			parts = append(parts, "PAN")
		}
		if m.generating {
			parts = append(parts, "generating…")
		}
	}

	switch {
	case m.errorMessage != "":
		parts = append(parts, errorStyle.Render("ERROR: "+m.errorMessage))
	case m.successMessage != "":
		parts = append(parts, successStyle.Render(m.successMessage))
	}
	if m.mode == ModeNormal {
		parts = append(parts, mutedStyle.Render("? for help | q to quit"))
	}

	line := modeStyle.Render(m.mode.String()) + " " + strings.Join(parts, " | ")
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}

func (m *model) confirmMessage() string {
	switch m.confirmAction {
	case ConfirmDelete:
		n := m.ed.Document().Selection.Len()
		if n == 1 {
			return "Delete this item? (y/n)"
		}
		return fmt.Sprintf("Delete %d items? (y/n)", n)
	case ConfirmDeleteProject:
		return "Delete this project? It cannot be recovered. (y/n)"
	case ConfirmQuit:
		return "Quit boardr? Unsaved changes will be lost. (y/n)"
	}
	return "Are you sure? (y/n)"
}

func (m model) startupView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("boardr") + "\n\n")
	b.WriteString("  n  New project\n")
	b.WriteString("  o  Open project\n")
	b.WriteString("  c  Continue with a blank board\n")
	b.WriteString("  q  Quit\n")
	if m.errorMessage != "" {
		b.WriteString("\n" + errorStyle.Render(m.errorMessage) + "\n")
	}
	return b.String()
}

func (m model) projectsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Projects") + "\n\n")
	if len(m.projects) == 0 {
		b.WriteString(mutedStyle.Render("  No projects yet. Press n to create one.") + "\n")
	}
	for i, p := range m.projects {
		line := fmt.Sprintf("%-32s %s", p.Name, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		if p.Recovered {
			line += "  (recovered)"
		}
		if i == m.selectedProject {
			b.WriteString(pickedStyle.Render("> "+line+" <") + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n")
	switch {
	case m.errorMessage != "":
		b.WriteString(errorStyle.Render("ERROR: "+m.errorMessage) + "\n")
	case m.successMessage != "":
		b.WriteString(successStyle.Render(m.successMessage) + "\n")
	}
	b.WriteString(mutedStyle.Render("↑/↓=navigate, Enter=open, n=new, d=delete, Esc=back"))
	return b.String()
}

var helpLines = []string{
	"boardr help",
	"===========",
	"",
	"Navigation:",
	"-----------",
	"  h/←/j/↓/k/↑/l/→  Move cursor (Shift for 2x)",
	"  z                Toggle pan mode: direction keys scroll the board",
	"  + / -            Zoom in / out around the cursor",
	"  0                Reset zoom and pan",
	"  mouse wheel      Zoom around the pointer",
	"",
	"Tools:",
	"------",
	"  v / p / Tab      Select tool / pen tool / cycle select, hand, pen",
	"  Space            Press or release the pointer at the cursor",
	"  Esc              Cancel the gesture and clear the selection",
	"",
	"Items:",
	"------",
	"  t                New text (opens the editor)",
	"  b / c            New rectangle / circle",
	"  T                New to-do list",
	"  i                New image from a URL or data URI",
	"  e / Enter        Edit text, add to-dos, or flip a shape",
	"  m                Move the item under the cursor",
	"  r                Resize the item under the cursor",
	"  a                Connect from the item under the cursor",
	"  f                Bring to front",
	"  C                Cycle color",
	"  O                Cycle shape opacity",
	"  D                Remove connections of the selection or item",
	"  R / U            Add / remove a 👍 reaction",
	"  x / Delete       Delete the selection",
	"",
	"To-dos:",
	"-------",
	"  1-9              Toggle entry",
	"  u                Cycle urgency of the first open entry",
	"  #                Remove finished entries",
	"  w                Edit the entry under the cursor",
	"",
	"Projects and files:",
	"-------------------",
	"  s / Ctrl+S       Save",
	"  o                Open a project",
	"  n                New project",
	"  P                Export PNG",
	"  E                Export the view as text",
	"  X / I            Export / import a JSON or YAML bundle",
	"",
	"Clipboard and generation:",
	"-------------------------",
	"  Ctrl+V           Paste text as a new item",
	"  y                Copy the selection",
	"  g                Generate idea snippets",
	"  G                Generate an image",
	"",
	"Mouse:",
	"------",
	"  left drag        Move, resize from ◢, connect from o, or select",
	"  Shift+click      Add to or remove from the selection",
	"  middle drag      Pan",
	"  right drag       Pan over empty canvas",
}

func (m model) helpView() string {
	height := max(m.height-1, 1)
	start := min(m.helpScroll, max(len(helpLines)-height, 0))
	end := min(start+height, len(helpLines))
	body := strings.Join(helpLines[start:end], "\n")
	status := mutedStyle.Render(fmt.Sprintf("Help %d-%d of %d | j/k=scroll, ?/Esc=close", start+1, end, len(helpLines)))
	return body + "\n" + status
}
