package board

import (
	"fmt"
	"math"
	"strings"

	"boardr/internal/geom"
)

type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
)

// Next cycles low -> medium -> high -> low.
func (u Urgency) Next() Urgency {
	return (u + 1) % 3
}

func (u Urgency) String() string {
	switch u {
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	default:
		return "low"
	}
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "low":
		*u = UrgencyLow
	case "medium":
		*u = UrgencyMedium
	case "high":
		*u = UrgencyHigh
	default:
		return fmt.Errorf("unknown urgency %q", b)
	}
	return nil
}

type TodoEntry struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Done    bool    `json:"completed"`
	Urgency Urgency `json:"urgency"`
}

type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

func payloadOf[T Payload](d *Document, id string, want Kind) (*Item, T, error) {
	var zero T
	it, err := d.mustItem(id)
	if err != nil {
		return nil, zero, err
	}
	p, ok := it.Payload.(T)
	if !ok {
		return it, zero, KindError{ID: id, Want: want, Got: it.Kind()}
	}
	return it, p, nil
}

// Editable reports whether the item has in-place content editing.
func (it *Item) Editable() bool {
	switch it.Payload.(type) {
	case *Text, *Todo:
		return true
	case *Image, *Shape, *Drawing:
		return false
	default:
		return false
	}
}

// Label is a one-line summary of the item's content.
func (it *Item) Label() string {
	switch p := it.Payload.(type) {
	case *Text:
		line, _, _ := strings.Cut(p.Content, "\n")
		return line
	case *Image:
		return "[image]"
	case *Shape:
		return ""
	case *Todo:
		done := 0
		for _, e := range p.Entries {
			if e.Done {
				done++
			}
		}
		return fmt.Sprintf("to-do %d/%d", done, len(p.Entries))
	case *Drawing:
		return ""
	default:
		return ""
	}
}

// Text items.

func (d *Document) BeginEdit(id string) error {
	_, p, err := payloadOf[*Text](d, id, KindText)
	if err != nil {
		return err
	}
	p.Editing = true
	return nil
}

// CommitText stores content and leaves edit mode.
func (d *Document) CommitText(id, content string) error {
	_, p, err := payloadOf[*Text](d, id, KindText)
	if err != nil {
		return err
	}
	p.Content = content
	p.Editing = false
	return nil
}

// Todo items.

func (d *Document) AddTodo(id, text string) (TodoEntry, error) {
	_, p, err := payloadOf[*Todo](d, id, KindTodo)
	if err != nil {
		return TodoEntry{}, err
	}
	e := TodoEntry{ID: NewID(), Text: text, Urgency: UrgencyLow}
	p.Entries = append(p.Entries, e)
	return e, nil
}

func (d *Document) todoEntry(id, entryID string) (*Todo, int, error) {
	_, p, err := payloadOf[*Todo](d, id, KindTodo)
	if err != nil {
		return nil, -1, err
	}
	for i := range p.Entries {
		if p.Entries[i].ID == entryID {
			return p, i, nil
		}
	}
	return nil, -1, NotFoundError{Kind: "todo entry", ID: entryID}
}

func (d *Document) EditTodo(id, entryID, text string) error {
	p, i, err := d.todoEntry(id, entryID)
	if err != nil {
		return err
	}
	p.Entries[i].Text = text
	return nil
}

func (d *Document) ToggleTodo(id, entryID string) error {
	p, i, err := d.todoEntry(id, entryID)
	if err != nil {
		return err
	}
	p.Entries[i].Done = !p.Entries[i].Done
	return nil
}

func (d *Document) CycleUrgency(id, entryID string) (Urgency, error) {
	p, i, err := d.todoEntry(id, entryID)
	if err != nil {
		return UrgencyLow, err
	}
	p.Entries[i].Urgency = p.Entries[i].Urgency.Next()
	return p.Entries[i].Urgency, nil
}

func (d *Document) DeleteTodo(id, entryID string) error {
	p, i, err := d.todoEntry(id, entryID)
	if err != nil {
		return err
	}
	p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
	return nil
}

// Shape items.

// ShapeStyle is a partial update; nil fields are left unchanged.
type ShapeStyle struct {
	Fill    *string
	Opacity *float64
	Shape   *ShapeKind
}

func (d *Document) StyleShape(id string, s ShapeStyle) error {
	it, p, err := payloadOf[*Shape](d, id, KindShape)
	if err != nil {
		return err
	}
	if s.Fill != nil {
		it.Style.Fill = *s.Fill
	}
	if s.Opacity != nil {
		it.Style.Opacity = math.Max(0, math.Min(1, *s.Opacity))
	}
	if s.Shape != nil {
		switch *s.Shape {
		case ShapeRectangle, ShapeCircle:
			p.Shape = *s.Shape
		default:
			return fmt.Errorf("unknown shape %q", *s.Shape)
		}
	}
	return nil
}

// SetColor sets the stroke/text color of any item.
func (d *Document) SetColor(id, color string) error {
	it, err := d.mustItem(id)
	if err != nil {
		return err
	}
	it.Style.Color = color
	return nil
}

// Drawing items.

// AppendStrokePoint adds a world point to the drawing's last path and
// keeps the item box tight around all points. When the point lies left of
// or above the origin, the origin moves and every stored point is
// re-expressed against it before returning.
func (d *Document) AppendStrokePoint(id string, world geom.Point) error {
	it, p, err := payloadOf[*Drawing](d, id, KindDrawing)
	if err != nil {
		return err
	}
	if p.Done {
		return ErrFinished
	}
	if len(p.Paths) == 0 {
		p.Paths = append(p.Paths, nil)
	}
	last := len(p.Paths) - 1
	p.Paths[last] = append(p.Paths[last], world.Sub(it.Origin()))

	var all []geom.Point
	for _, path := range p.Paths {
		all = append(all, path...)
	}
	b, _ := geom.Bounds(all)

	shift := geom.Pt(math.Min(0, b.X), math.Min(0, b.Y))
	if shift.X != 0 || shift.Y != 0 {
		for _, path := range p.Paths {
			for i := range path {
				path[i] = path[i].Sub(shift)
			}
		}
		it.moveBy(shift)
	}
	far := b.Max().Sub(shift)
	it.Width = math.Max(minStrokeExtent, far.X)
	it.Height = math.Max(minStrokeExtent, far.Y)
	return nil
}

func (d *Document) FinishDrawing(id string) error {
	_, p, err := payloadOf[*Drawing](d, id, KindDrawing)
	if err != nil {
		return err
	}
	p.Done = true
	return nil
}

// Reactions apply to every item kind.

func (d *Document) React(id, emoji string) (int, error) {
	it, err := d.mustItem(id)
	if err != nil {
		return 0, err
	}
	for i := range it.Reactions {
		if it.Reactions[i].Emoji == emoji {
			it.Reactions[i].Count++
			return it.Reactions[i].Count, nil
		}
	}
	it.Reactions = append(it.Reactions, Reaction{Emoji: emoji, Count: 1})
	return 1, nil
}

// Unreact decrements a reaction, removing it when the count reaches zero.
func (d *Document) Unreact(id, emoji string) (int, error) {
	it, err := d.mustItem(id)
	if err != nil {
		return 0, err
	}
	for i := range it.Reactions {
		if it.Reactions[i].Emoji != emoji {
			continue
		}
		it.Reactions[i].Count--
		n := it.Reactions[i].Count
		if n <= 0 {
			it.Reactions = append(it.Reactions[:i], it.Reactions[i+1:]...)
			return 0, nil
		}
		return n, nil
	}
	return 0, nil
}
