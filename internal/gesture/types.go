package gesture

import (
	"fmt"
	"strings"

	"boardr/internal/board"
	"boardr/internal/geom"
)

type Tool int

const (
	ToolSelect Tool = iota
	ToolHand
	ToolPen
)

func (t Tool) String() string {
	switch t {
	case ToolHand:
		return "hand"
	case ToolPen:
		return "pen"
	default:
		return "select"
	}
}

func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "select", "v":
		return ToolSelect, nil
	case "hand", "h":
		return ToolHand, nil
	case "pen", "p":
		return ToolPen, nil
	}
	return ToolSelect, fmt.Errorf("unknown tool %q", s)
}

type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

type State int

const (
	StateIdle State = iota
	StatePanning
	StateMoving
	StateResizing
	StateConnecting
	StateDrawing
	StateSelecting
)

func (s State) String() string {
	switch s {
	case StatePanning:
		return "panning"
	case StateMoving:
		return "moving"
	case StateResizing:
		return "resizing"
	case StateConnecting:
		return "connecting"
	case StateDrawing:
		return "drawing"
	case StateSelecting:
		return "selecting"
	default:
		return "idle"
	}
}

// Handle is the interactive region of an item hit by a pointer-down.
type Handle int

const (
	HandleNone Handle = iota
	HandleBody
	HandleResize
	HandleConnect
)

// Pointer is one pointer event in screen pixels.
type Pointer struct {
	Pos    geom.Point
	Button Button
	Shift  bool
}

// Gesture is the bookkeeping of the one gesture in progress. Each
// implementation belongs to exactly one non-idle state.
type Gesture interface {
	State() State
}

type Pan struct {
	Last geom.Point
}

type Move struct {
	ID   string
	Last geom.Point
	// Children is the containment snapshot taken when a shape starts
	// moving; it is not re-evaluated during the gesture.
	Children []string
}

type Resize struct {
	ID   string
	Last geom.Point
}

type Connect struct {
	FromID string
	// Cursor is the live endpoint in world coordinates.
	Cursor geom.Point
}

type Draw struct {
	ID string
}

type Select struct {
	Additive bool
	Base     []string
}

func (*Pan) State() State     { return StatePanning }
func (*Move) State() State    { return StateMoving }
func (*Resize) State() State  { return StateResizing }
func (*Connect) State() State { return StateConnecting }
func (*Draw) State() State    { return StateDrawing }
func (*Select) State() State  { return StateSelecting }

// Outcome reports what a pointer-up committed.
type Outcome struct {
	Ended      State
	Connection *board.Connection
	ItemID     string
}

type Config struct {
	MinItemSize float64
	MinScale    float64
	MaxScale    float64
	// HandleSize is the edge length, in screen pixels, of the resize
	// square and the diameter of the connect dots.
	HandleSize float64
	Palette    []string
}

var DefaultPalette = []string{"#6366f1", "#ec4899", "#14b8a6", "#f59e0b", "#ef4444", "#22c55e"}

func DefaultConfig() Config {
	return Config{
		MinItemSize: board.MinItemSize,
		MinScale:    geom.DefaultMinScale,
		MaxScale:    geom.DefaultMaxScale,
		HandleSize:  12,
		Palette:     DefaultPalette,
	}
}
