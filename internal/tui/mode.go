package tui

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModeEditing
	ModeInput
	ModeProjects
	ModeConfirm
)

func (m Mode) String() string {
	switch m {
	case ModeStartup:
		return "START"
	case ModeEditing:
		return "EDIT"
	case ModeInput:
		return "INPUT"
	case ModeProjects:
		return "PROJECTS"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "NORMAL"
	}
}

// InputOperation is what a line typed in ModeInput will be used for.
type InputOperation int

const (
	InputNewProject InputOperation = iota
	InputExportPNG
	InputExportTXT
	InputExportBundle
	InputImportBundle
	InputImage
	InputTodo
	InputTodoEdit
	InputPrompt
	InputImagePrompt
)

func (op InputOperation) prompt() string {
	switch op {
	case InputNewProject:
		return "Project name"
	case InputExportPNG:
		return "Export PNG filename"
	case InputExportTXT:
		return "Export TXT filename"
	case InputExportBundle:
		return "Export bundle filename (.json/.yaml)"
	case InputImportBundle:
		return "Import bundle filename"
	case InputImage:
		return "Image URL or data URI"
	case InputTodo:
		return "New to-do"
	case InputTodoEdit:
		return "Edit to-do"
	case InputPrompt:
		return "Generate ideas for"
	case InputImagePrompt:
		return "Generate image of"
	default:
		return "Input"
	}
}

type ConfirmAction int

const (
	ConfirmDelete ConfirmAction = iota
	ConfirmDeleteProject
	ConfirmQuit
)
