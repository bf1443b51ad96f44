package board

import (
	"encoding/json"
	"fmt"

	"boardr/internal/geom"
)

type wireItem struct {
	ID        string     `json:"id"`
	Type      Kind       `json:"type"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	ZIndex    float64    `json:"zIndex"`
	Reactions []Reaction `json:"reactions,omitempty"`
	Style

	Content     string         `json:"content,omitempty"`
	Src         string         `json:"src,omitempty"`
	ShapeType   ShapeKind      `json:"shapeType,omitempty"`
	Todos       []TodoEntry    `json:"todos,omitempty"`
	Paths       [][]geom.Point `json:"paths,omitempty"`
	StrokeWidth float64        `json:"strokeWidth,omitempty"`
}

func (it *Item) MarshalJSON() ([]byte, error) {
	w := wireItem{
		ID:        it.ID,
		Type:      it.Kind(),
		X:         it.X,
		Y:         it.Y,
		Width:     it.Width,
		Height:    it.Height,
		ZIndex:    it.ZIndex,
		Reactions: it.Reactions,
		Style:     it.Style,
	}
	switch p := it.Payload.(type) {
	case *Text:
		w.Content = p.Content
	case *Image:
		w.Src = p.Src
	case *Shape:
		w.ShapeType = p.Shape
	case *Todo:
		w.Todos = p.Entries
	case *Drawing:
		w.Paths = p.Paths
		w.StrokeWidth = p.StrokeWidth
	default:
		return nil, fmt.Errorf("item %s: no payload", it.ID)
	}
	return json.Marshal(w)
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*it = Item{
		ID:        w.ID,
		X:         w.X,
		Y:         w.Y,
		Width:     w.Width,
		Height:    w.Height,
		ZIndex:    w.ZIndex,
		Reactions: w.Reactions,
		Style:     w.Style,
	}
	switch w.Type {
	case KindText:
		it.Payload = &Text{Content: w.Content}
	case KindImage:
		it.Payload = &Image{Src: w.Src}
	case KindShape:
		shape := w.ShapeType
		if shape == "" {
			shape = ShapeRectangle
		}
		it.Payload = &Shape{Shape: shape}
	case KindTodo:
		it.Payload = &Todo{Entries: w.Todos}
	case KindDrawing:
		sw := w.StrokeWidth
		if sw == 0 {
			sw = DefaultStrokeWidth
		}
		it.Payload = &Drawing{Paths: w.Paths, StrokeWidth: sw, Done: true}
	default:
		return fmt.Errorf("item %s: unknown type %q", w.ID, w.Type)
	}
	return nil
}

type wireDocument struct {
	Items        []*Item       `json:"items"`
	Connections  []Connection  `json:"connections"`
	Pan          geom.Point    `json:"pan"`
	Scale        float64       `json:"scale"`
	SelectedIDs  []string      `json:"selectedIds"`
	SelectionBox *SelectionBox `json:"selectionBox"`
}

// MarshalJSON writes the persisted shape. The rubber-band box is session
// state and is always written as null.
func (d *Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{
		Items:       d.Items,
		Connections: d.Connections,
		Pan:         d.Viewport.Pan,
		Scale:       d.Viewport.Scale,
		SelectedIDs: d.Selection.Sorted(),
	}
	if w.Items == nil {
		w.Items = []*Item{}
	}
	if w.Connections == nil {
		w.Connections = []Connection{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the persisted shape and drops anything dangling.
func (d *Document) UnmarshalJSON(b []byte) error {
	var w wireDocument
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	next := NewDocument()
	if w.Items != nil {
		next.Items = w.Items
	}
	if w.Connections != nil {
		next.Connections = w.Connections
	}
	next.Viewport.Pan = w.Pan
	if w.Scale > 0 {
		next.Viewport.Scale = w.Scale
	}
	next.Selection.Set(w.SelectedIDs...)
	next.Prune()
	*d = *next
	return nil
}

func Encode(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

func Decode(b []byte) (*Document, error) {
	d := NewDocument()
	if err := json.Unmarshal(b, d); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return d, nil
}
