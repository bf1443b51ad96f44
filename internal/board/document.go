package board

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"boardr/internal/geom"
)

// NewID generates ids for items, connections and todo entries.
var NewID = uuid.NewString

type Connection struct {
	ID     string `json:"id"`
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Color  string `json:"color"`
}

// SelectionBox is the rubber-band rectangle of an active select drag, in
// world coordinates.
type SelectionBox struct {
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

func (b SelectionBox) Rect() geom.Rect {
	return geom.RectFromPoints(b.Start, b.End)
}

type Selection struct {
	IDs map[string]struct{}
	Box *SelectionBox
}

func (s *Selection) Has(id string) bool {
	_, ok := s.IDs[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.IDs)
}

func (s *Selection) Set(ids ...string) {
	s.IDs = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.IDs[id] = struct{}{}
	}
}

func (s *Selection) Add(id string) {
	if s.IDs == nil {
		s.IDs = map[string]struct{}{}
	}
	s.IDs[id] = struct{}{}
}

func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		delete(s.IDs, id)
		return
	}
	s.Add(id)
}

func (s *Selection) Remove(id string) {
	delete(s.IDs, id)
}

func (s *Selection) Clear() {
	s.IDs = nil
	s.Box = nil
}

// Sorted returns the selected ids in lexical order.
func (s *Selection) Sorted() []string {
	ids := make([]string, 0, len(s.IDs))
	for id := range s.IDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Document is the whole board: the unit that is saved, loaded and swapped.
type Document struct {
	Items       []*Item
	Connections []Connection
	Viewport    geom.Viewport
	Selection   Selection
}

func NewDocument() *Document {
	return &Document{
		Items:       make([]*Item, 0),
		Connections: make([]Connection, 0),
		Viewport:    geom.NewViewport(),
	}
}

func (d *Document) Clone() *Document {
	c := &Document{
		Items:       make([]*Item, len(d.Items)),
		Connections: append(make([]Connection, 0, len(d.Connections)), d.Connections...),
		Viewport:    d.Viewport,
	}
	for i, it := range d.Items {
		c.Items[i] = it.Clone()
	}
	c.Selection.Set(d.Selection.Sorted()...)
	if d.Selection.Box != nil {
		box := *d.Selection.Box
		c.Selection.Box = &box
	}
	return c
}

func (d *Document) Item(id string) *Item {
	for _, it := range d.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (d *Document) mustItem(id string) (*Item, error) {
	it := d.Item(id)
	if it == nil {
		return nil, NotFoundError{Kind: "item", ID: id}
	}
	return it, nil
}

func (d *Document) zRange() (lo, hi float64) {
	if len(d.Items) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, it := range d.Items {
		lo = math.Min(lo, it.ZIndex)
		hi = math.Max(hi, it.ZIndex)
	}
	return lo, hi
}

// Add appends it with a fresh id. Shapes go beneath every existing item,
// everything else on top.
func (d *Document) Add(it *Item) *Item {
	if it.ID == "" {
		it.ID = NewID()
	}
	lo, hi := d.zRange()
	if it.Kind() == KindShape {
		it.ZIndex = lo - 1
	} else {
		it.ZIndex = hi + 1
	}
	d.Items = append(d.Items, it)
	return it
}

// AddAtViewportCenter centers it on the world point under the middle of a
// screen of the given size.
func (d *Document) AddAtViewportCenter(it *Item, screen geom.Point) *Item {
	c := d.Viewport.ScreenToWorld(screen.Div(2))
	it.X = c.X - it.Width/2
	it.Y = c.Y - it.Height/2
	return d.Add(it)
}

// Delete removes the items and every connection touching them. It returns
// the number of items removed.
func (d *Document) Delete(ids ...string) int {
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}

	kept := d.Items[:0]
	removed := 0
	for _, it := range d.Items {
		if _, ok := gone[it.ID]; ok {
			removed++
			d.Selection.Remove(it.ID)
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(d.Items); i++ {
		d.Items[i] = nil
	}
	d.Items = kept

	conns := d.Connections[:0]
	for _, c := range d.Connections {
		_, from := gone[c.FromID]
		_, to := gone[c.ToID]
		if from || to {
			continue
		}
		conns = append(conns, c)
	}
	d.Connections = conns
	return removed
}

func (d *Document) DeleteSelection() int {
	if d.Selection.Len() == 0 {
		return 0
	}
	n := d.Delete(d.Selection.Sorted()...)
	d.Selection.Clear()
	return n
}

// MoveBy shifts an item by a world-space delta.
func (d *Document) MoveBy(id string, delta geom.Point) error {
	it, err := d.mustItem(id)
	if err != nil {
		return err
	}
	it.moveBy(delta)
	return nil
}

// ResizeBy grows an item by a world-space delta, never below minSize on
// either axis.
func (d *Document) ResizeBy(id string, delta geom.Point, minSize float64) error {
	it, err := d.mustItem(id)
	if err != nil {
		return err
	}
	it.resizeBy(delta, minSize)
	return nil
}

func (d *Document) BringToFront(id string) error {
	it, err := d.mustItem(id)
	if err != nil {
		return err
	}
	_, hi := d.zRange()
	if it.ZIndex < hi {
		it.ZIndex = hi + 1
	}
	return nil
}

// Connect adds a directed edge. Self edges and unknown endpoints are rejected.
func (d *Document) Connect(fromID, toID, color string) (Connection, bool) {
	if fromID == toID || d.Item(fromID) == nil || d.Item(toID) == nil {
		return Connection{}, false
	}
	c := Connection{ID: NewID(), FromID: fromID, ToID: toID, Color: color}
	d.Connections = append(d.Connections, c)
	return c, true
}

func (d *Document) Disconnect(id string) bool {
	for i, c := range d.Connections {
		if c.ID == id {
			d.Connections = append(d.Connections[:i], d.Connections[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops connections whose endpoints no longer exist and selection
// entries for missing items. It returns the number of connections dropped.
func (d *Document) Prune() int {
	conns := d.Connections[:0]
	dropped := 0
	for _, c := range d.Connections {
		if d.Item(c.FromID) == nil || d.Item(c.ToID) == nil {
			dropped++
			continue
		}
		conns = append(conns, c)
	}
	d.Connections = conns
	for id := range d.Selection.IDs {
		if d.Item(id) == nil {
			d.Selection.Remove(id)
		}
	}
	return dropped
}

// PaintOrder returns the items sorted bottom to top.
func (d *Document) PaintOrder() []*Item {
	out := append([]*Item(nil), d.Items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

// TopmostAt returns the highest item under a world point, or nil.
func (d *Document) TopmostAt(p geom.Point) *Item {
	return d.TopmostWithin(p, 0)
}

// TopmostWithin is TopmostAt with every item rect grown by margin, so
// handles sitting on the boundary still hit.
func (d *Document) TopmostWithin(p geom.Point, margin float64) *Item {
	var top *Item
	for _, it := range d.Items {
		if !it.Rect().Inset(margin).Contains(p) {
			continue
		}
		if top == nil || it.ZIndex >= top.ZIndex {
			top = it
		}
	}
	return top
}

// FirstAt returns the first item in document order whose rect contains p,
// skipping the item with id skip.
func (d *Document) FirstAt(p geom.Point, skip string) *Item {
	for _, it := range d.Items {
		if it.ID != skip && it.Rect().Contains(p) {
			return it
		}
	}
	return nil
}

// ContainedIn lists the items whose rect lies fully inside outer.
func (d *Document) ContainedIn(outer geom.Rect, skip string) []string {
	var ids []string
	for _, it := range d.Items {
		if it.ID != skip && outer.ContainsRect(it.Rect()) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// CentersIn lists the items whose center point lies inside r.
func (d *Document) CentersIn(r geom.Rect) []string {
	var ids []string
	for _, it := range d.Items {
		if r.Contains(it.Center()) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Bounds is the union of all item rects.
func (d *Document) Bounds() (geom.Rect, bool) {
	if len(d.Items) == 0 {
		return geom.Rect{}, false
	}
	r := d.Items[0].Rect()
	for _, it := range d.Items[1:] {
		r = r.Union(it.Rect())
	}
	return r, true
}

// Replace swaps the whole content of d for other's.
func (d *Document) Replace(other *Document) {
	*d = *other
	if d.Items == nil {
		d.Items = make([]*Item, 0)
	}
	if d.Connections == nil {
		d.Connections = make([]Connection, 0)
	}
	if d.Viewport.Scale == 0 {
		d.Viewport.Scale = 1
	}
}
