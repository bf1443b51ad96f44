package board

import (
	"math"

	"boardr/internal/geom"
)

const (
	MinItemSize = 50.0

	DefaultTextWidth    = 200.0
	DefaultTextHeight   = 100.0
	DefaultShapeSize    = 200.0
	DefaultTodoWidth    = 250.0
	DefaultTodoHeight   = 200.0
	DefaultImageSize    = 300.0
	DefaultStrokeWidth  = 3.0
	minStrokeExtent     = 1.0
	defaultItemOpacity  = 1.0
	defaultItemFontSize = 16.0
)

type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindShape   Kind = "shape"
	KindTodo    Kind = "todo"
	KindDrawing Kind = "drawing"
)

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
)

// Payload is the variant-specific part of an item. The set of
// implementations is closed: Text, Image, Shape, Todo and Drawing.
type Payload interface {
	Kind() Kind
	clone() Payload
}

type Text struct {
	Content string
	// Editing is session state only and is never persisted.
	Editing bool
}

type Image struct {
	// Src is an opaque reference: a data URL or an external location.
	Src string
}

type Shape struct {
	Shape ShapeKind
}

type Todo struct {
	Entries []TodoEntry
}

type Drawing struct {
	// Paths hold points relative to the item origin. The origin is kept at
	// the stroke's top-left corner so every coordinate is non-negative.
	Paths       [][]geom.Point
	StrokeWidth float64
	// Done is set when the pen gesture that created the drawing ends.
	Done bool
}

func (*Text) Kind() Kind    { return KindText }
func (*Image) Kind() Kind   { return KindImage }
func (*Shape) Kind() Kind   { return KindShape }
func (*Todo) Kind() Kind    { return KindTodo }
func (*Drawing) Kind() Kind { return KindDrawing }

func (p *Text) clone() Payload  { c := *p; return &c }
func (p *Image) clone() Payload { c := *p; return &c }
func (p *Shape) clone() Payload { c := *p; return &c }

func (p *Todo) clone() Payload {
	return &Todo{Entries: append([]TodoEntry(nil), p.Entries...)}
}

func (p *Drawing) clone() Payload {
	c := &Drawing{StrokeWidth: p.StrokeWidth, Done: p.Done}
	c.Paths = make([][]geom.Point, len(p.Paths))
	for i, path := range p.Paths {
		c.Paths[i] = append([]geom.Point(nil), path...)
	}
	return c
}

type Style struct {
	Color    string  `json:"color,omitempty"`
	Fill     string  `json:"fill,omitempty"`
	Opacity  float64 `json:"opacity,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
}

func DefaultStyle() Style {
	return Style{Color: "#1f2937", Opacity: defaultItemOpacity, FontSize: defaultItemFontSize}
}

type Item struct {
	ID        string
	X, Y      float64
	Width     float64
	Height    float64
	ZIndex    float64
	Style     Style
	Reactions []Reaction
	Payload   Payload
}

func (it *Item) Kind() Kind {
	if it.Payload == nil {
		return ""
	}
	return it.Payload.Kind()
}

func (it *Item) Origin() geom.Point {
	return geom.Pt(it.X, it.Y)
}

func (it *Item) Rect() geom.Rect {
	return geom.Rect{X: it.X, Y: it.Y, W: it.Width, H: it.Height}
}

func (it *Item) Center() geom.Point {
	return it.Rect().Center()
}

func (it *Item) Clone() *Item {
	c := *it
	c.Reactions = append([]Reaction(nil), it.Reactions...)
	if it.Payload != nil {
		c.Payload = it.Payload.clone()
	}
	return &c
}

func (it *Item) moveBy(d geom.Point) {
	it.X += d.X
	it.Y += d.Y
}

func (it *Item) resizeBy(d geom.Point, minSize float64) {
	it.Width = math.Max(minSize, it.Width+d.X)
	it.Height = math.Max(minSize, it.Height+d.Y)
}

func newItem(x, y, w, h float64, p Payload) *Item {
	return &Item{X: x, Y: y, Width: w, Height: h, Style: DefaultStyle(), Payload: p}
}

// NewText returns a text item; an empty one starts in edit mode.
func NewText(x, y float64, content string) *Item {
	return newItem(x, y, DefaultTextWidth, DefaultTextHeight, &Text{Content: content, Editing: content == ""})
}

func NewImage(x, y float64, src string) *Item {
	return newItem(x, y, DefaultImageSize, DefaultImageSize, &Image{Src: src})
}

func NewShape(x, y float64, kind ShapeKind) *Item {
	it := newItem(x, y, DefaultShapeSize, DefaultShapeSize, &Shape{Shape: kind})
	it.Style.Fill = "#e0e7ff"
	return it
}

func NewTodo(x, y float64) *Item {
	return newItem(x, y, DefaultTodoWidth, DefaultTodoHeight, &Todo{})
}

// NewDrawing starts a freehand item at a world point with a single path
// holding one zero point.
func NewDrawing(at geom.Point) *Item {
	it := newItem(at.X, at.Y, minStrokeExtent, minStrokeExtent, &Drawing{
		Paths:       [][]geom.Point{{{}}},
		StrokeWidth: DefaultStrokeWidth,
	})
	return it
}
