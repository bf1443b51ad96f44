// Package editor owns one editing session: the board document, the gesture
// machine driving it, and the injected persistence and generation
// collaborators. Collaborator failures become notices and never touch the
// document.
package editor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"boardr/internal/ai"
	"boardr/internal/board"
	"boardr/internal/gesture"
	"boardr/internal/geom"
	"boardr/internal/store"
)

const (
	maxNotices    = 32
	snippetSpread = 150
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

type Notice struct {
	Level   Level
	Message string
}

var ErrNoProject = errors.New("no project open")

type Editor struct {
	doc     *board.Document
	machine *gesture.Machine
	store   store.Provider
	gen     ai.Generator
	clip    Clipboard
	rng     *rand.Rand

	project store.ProjectMeta
	screen  geom.Point
	notices []Notice
}

type Option func(*Editor)

func WithGenerator(g ai.Generator) Option {
	return func(e *Editor) { e.gen = g }
}

func WithClipboard(c Clipboard) Option {
	return func(e *Editor) { e.clip = c }
}

// WithRand fixes the source used for snippet scatter and connection colors.
func WithRand(r *rand.Rand) Option {
	return func(e *Editor) { e.rng = r }
}

// New starts a session on an empty, unsaved document.
func New(p store.Provider, cfg gesture.Config, opts ...Option) *Editor {
	e := &Editor{
		doc:    board.NewDocument(),
		store:  p,
		clip:   SystemClipboard{},
		screen: geom.Pt(1280, 720),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	e.gen = ai.WithFallback(e.gen)
	e.machine = gesture.New(e.doc, cfg, gesture.WithRand(e.rng))
	return e
}

func (e *Editor) Document() *board.Document { return e.doc }

func (e *Editor) Machine() *gesture.Machine { return e.machine }

func (e *Editor) Project() store.ProjectMeta { return e.project }

func (e *Editor) Store() store.Provider { return e.store }

// SetScreen records the size of the drawing surface in screen pixels.
func (e *Editor) SetScreen(w, h float64) { e.screen = geom.Pt(w, h) }

func (e *Editor) Screen() geom.Point { return e.screen }

func (e *Editor) Notify(l Level, format string, args ...any) {
	n := Notice{Level: l, Message: fmt.Sprintf(format, args...)}
	if len(e.notices) == maxNotices {
		e.notices = e.notices[1:]
	}
	e.notices = append(e.notices, n)
}

// Notices drains the pending notices, oldest first.
func (e *Editor) Notices() []Notice {
	out := e.notices
	e.notices = nil
	return out
}

func (e *Editor) fail(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	log.WithError(err).Warn(msg)
	e.Notify(LevelError, "%s: %v", msg, err)
	return err
}

// swap replaces the session's document in one step. The gesture in
// progress, if any, is dropped first.
func (e *Editor) swap(meta store.ProjectMeta, doc *board.Document) {
	e.machine.Cancel()
	e.doc.Replace(doc)
	e.project = meta
}

func (e *Editor) NewProject(ctx context.Context, name string) error {
	meta, err := e.store.Create(ctx, name)
	if err != nil {
		return e.fail(err, "create project")
	}
	e.swap(meta, board.NewDocument())
	e.Notify(LevelInfo, "created %s", meta.Name)
	return nil
}

// Open loads a project. On failure the current document stays as it was.
func (e *Editor) Open(ctx context.Context, id string) error {
	meta, doc, err := e.store.Load(ctx, id)
	if err != nil {
		return e.fail(err, "open project")
	}
	e.swap(meta, doc)
	if meta.Recovered {
		e.Notify(LevelWarn, "%s had no catalog entry", meta.Name)
	}
	return nil
}

// Save writes the whole document. A session without a project gets one
// named "Untitled" first.
func (e *Editor) Save(ctx context.Context) error {
	meta := e.project
	if meta.ID == "" {
		created, err := e.store.Create(ctx, "Untitled")
		if err != nil {
			return e.fail(err, "save")
		}
		meta = created
	}
	if err := e.store.Save(ctx, meta.ID, e.doc); err != nil {
		if e.project.ID == "" {
			// Drop the empty project so the next save starts over.
			_ = e.store.Delete(ctx, meta.ID)
		}
		return e.fail(err, "save %s", meta.Name)
	}
	e.project = meta
	e.Notify(LevelInfo, "saved %s", meta.Name)
	return nil
}

func (e *Editor) Projects(ctx context.Context) ([]store.ProjectMeta, error) {
	list, err := e.store.List(ctx)
	if err != nil {
		return nil, e.fail(err, "list projects")
	}
	return list, nil
}

// DeleteProject removes a project. Deleting the open one leaves an empty,
// unsaved document behind.
func (e *Editor) DeleteProject(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return e.fail(err, "delete project")
	}
	if id == e.project.ID {
		e.swap(store.ProjectMeta{}, board.NewDocument())
	}
	return nil
}

func (e *Editor) center() geom.Point {
	return e.doc.Viewport.ScreenToWorld(e.screen.Div(2))
}

// Add places a new item of the given kind at the viewport center. Drawings
// are created by the pen tool instead.
func (e *Editor) Add(kind board.Kind) (*board.Item, error) {
	var it *board.Item
	switch kind {
	case board.KindText:
		it = board.NewText(0, 0, "")
	case board.KindShape:
		it = board.NewShape(0, 0, board.ShapeRectangle)
	case board.KindTodo:
		it = board.NewTodo(0, 0)
	case board.KindImage:
		it = board.NewImage(0, 0, "")
	default:
		return nil, fmt.Errorf("cannot add %s item", kind)
	}
	return e.doc.AddAtViewportCenter(it, e.screen), nil
}

// InsertSnippets adds one text item per snippet, scattered around the
// viewport center.
func (e *Editor) InsertSnippets(snippets []string) []*board.Item {
	c := e.center()
	var out []*board.Item
	for _, s := range snippets {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		dx := (e.rng.Float64()*2 - 1) * snippetSpread
		dy := (e.rng.Float64()*2 - 1) * snippetSpread
		it := board.NewText(0, 0, s)
		it.Width, it.Height = board.DefaultTextWidth, board.DefaultTextHeight
		it.X = c.X + dx - it.Width/2
		it.Y = c.Y + dy - it.Height/2
		out = append(out, e.doc.Add(it))
	}
	return out
}

func (e *Editor) InsertImage(src string) *board.Item {
	return e.doc.AddAtViewportCenter(board.NewImage(0, 0, src), e.screen)
}

// Generator is the session's generator with fallback content applied.
// Callers that must not block can run it themselves and hand the result
// to Apply.
func (e *Editor) Generator() ai.Generator { return e.gen }

// Generate asks the generator for content and inserts it. Failures insert
// the fallback snippets and raise a warning instead of an error.
func (e *Editor) Generate(ctx context.Context, prompt string, mode ai.Mode) []*board.Item {
	return e.Apply(e.gen.Generate(ctx, prompt, mode))
}

// Apply inserts a generation result near the viewport center.
func (e *Editor) Apply(res ai.Result, err error) []*board.Item {
	if err != nil {
		e.Notify(LevelWarn, "generation failed, inserted placeholders: %v", err)
	}
	if res.Image != "" {
		return []*board.Item{e.InsertImage(res.Image)}
	}
	return e.InsertSnippets(res.Snippets)
}

// Paste turns clipboard text into a text item at the viewport center.
func (e *Editor) Paste() (*board.Item, error) {
	raw, err := e.clip.ReadAll()
	if err != nil {
		return nil, e.fail(err, "read clipboard")
	}
	text := CleanPasted(raw)
	if text == "" {
		e.Notify(LevelInfo, "clipboard is empty")
		return nil, nil
	}
	return e.doc.AddAtViewportCenter(board.NewText(0, 0, text), e.screen), nil
}

// Copy puts the labels of the selected items on the clipboard, one per
// line in paint order.
func (e *Editor) Copy() error {
	var lines []string
	for _, it := range e.doc.PaintOrder() {
		if !e.doc.Selection.Has(it.ID) {
			continue
		}
		if t, ok := it.Payload.(*board.Text); ok {
			lines = append(lines, t.Content)
			continue
		}
		lines = append(lines, it.Label())
	}
	if len(lines) == 0 {
		return nil
	}
	if err := e.clip.WriteAll(strings.Join(lines, "\n")); err != nil {
		return e.fail(err, "write clipboard")
	}
	return nil
}
