package editor

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardr/internal/ai"
	"boardr/internal/board"
	"boardr/internal/gesture"
	"boardr/internal/geom"
	"boardr/internal/store"
)

type stubProvider struct {
	store.Provider
	saveFn func(ctx context.Context, id string, doc *board.Document) error
	loadFn func(ctx context.Context, id string) (store.ProjectMeta, *board.Document, error)
	deleted []string
}

func (s *stubProvider) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubProvider) Create(_ context.Context, name string) (store.ProjectMeta, error) {
	return store.ProjectMeta{ID: "p-" + name, Name: name}, nil
}

func (s *stubProvider) Save(ctx context.Context, id string, doc *board.Document) error {
	if s.saveFn == nil {
		return errors.New("unexpected Save call")
	}
	return s.saveFn(ctx, id, doc)
}

func (s *stubProvider) Load(ctx context.Context, id string) (store.ProjectMeta, *board.Document, error) {
	if s.loadFn == nil {
		return store.ProjectMeta{}, nil, errors.New("unexpected Load call")
	}
	return s.loadFn(ctx, id)
}

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) ReadAll() (string, error) { return c.text, c.err }

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return c.err
}

type stubGenerator struct {
	res ai.Result
	err error
}

func (s stubGenerator) Generate(context.Context, string, ai.Mode) (ai.Result, error) {
	return s.res, s.err
}

func newEditor(t *testing.T, p store.Provider, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(7, 9)))}, opts...)
	e := New(p, gesture.DefaultConfig(), opts...)
	e.SetScreen(800, 600)
	return e
}

func TestSaveLoadRoundTripThroughFileStore(t *testing.T) {
	ctx := context.Background()
	p, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	e := newEditor(t, p)

	require.NoError(t, e.NewProject(ctx, "Ideas"))
	a, err := e.Add(board.KindText)
	require.NoError(t, err)
	require.NoError(t, e.Document().CommitText(a.ID, "first"))
	require.NoError(t, e.Save(ctx))
	id := e.Project().ID

	require.NoError(t, e.NewProject(ctx, "Other"))
	assert.Empty(t, e.Document().Items)

	require.NoError(t, e.Open(ctx, id))
	assert.Equal(t, "Ideas", e.Project().Name)
	require.NotNil(t, e.Document().Item(a.ID))
	assert.Equal(t, "first", e.Document().Item(a.ID).Label())
}

func TestFailedSaveLeavesDocumentUntouched(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	p := &stubProvider{saveFn: func(context.Context, string, *board.Document) error { return boom }}
	e := newEditor(t, p)
	it, err := e.Add(board.KindTodo)
	require.NoError(t, err)
	before := e.Document().Clone()

	assert.ErrorIs(t, e.Save(ctx), boom)
	assert.Equal(t, before.Items[0].Rect(), e.Document().Item(it.ID).Rect())
	assert.Len(t, e.Document().Items, 1)

	notices := e.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "disk full")
	assert.Empty(t, e.Notices())
}

func TestFailedFirstSaveLeavesProjectUnset(t *testing.T) {
	ctx := context.Background()
	fail := true
	var saved []string
	p := &stubProvider{saveFn: func(_ context.Context, id string, _ *board.Document) error {
		if fail {
			return errors.New("disk full")
		}
		saved = append(saved, id)
		return nil
	}}
	e := newEditor(t, p)
	_, err := e.Add(board.KindText)
	require.NoError(t, err)

	require.Error(t, e.Save(ctx))
	assert.Empty(t, e.Project().ID)
	assert.Equal(t, []string{"p-Untitled"}, p.deleted)

	fail = false
	require.NoError(t, e.Save(ctx))
	assert.Equal(t, "p-Untitled", e.Project().ID)
	assert.Equal(t, []string{"p-Untitled"}, saved)
	assert.Len(t, p.deleted, 1)
}

func TestFailedLoadKeepsCurrentView(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{loadFn: func(context.Context, string) (store.ProjectMeta, *board.Document, error) {
		return store.ProjectMeta{}, nil, store.ErrProjectNotFound
	}}
	e := newEditor(t, p)
	it, err := e.Add(board.KindShape)
	require.NoError(t, err)
	e.Document().Viewport = geom.Viewport{Pan: geom.Pt(4, 4), Scale: 2}

	assert.ErrorIs(t, e.Open(ctx, "nope"), store.ErrProjectNotFound)
	assert.NotNil(t, e.Document().Item(it.ID))
	assert.Equal(t, 2.0, e.Document().Viewport.Scale)
	assert.Len(t, e.Notices(), 1)
}

func TestLoadSwapsWholeDocumentAndCancelsGesture(t *testing.T) {
	ctx := context.Background()
	loaded := board.NewDocument()
	keep := loaded.Add(board.NewText(0, 0, "loaded"))
	p := &stubProvider{loadFn: func(context.Context, string) (store.ProjectMeta, *board.Document, error) {
		return store.ProjectMeta{ID: "x", Name: "Recovered x", Recovered: true}, loaded, nil
	}}
	e := newEditor(t, p)
	e.Machine().SetTool(gesture.ToolHand)
	e.Machine().PointerDown(gesture.Pointer{Pos: geom.Pt(1, 1)})
	require.Equal(t, gesture.StatePanning, e.Machine().State())

	require.NoError(t, e.Open(ctx, "x"))
	assert.Equal(t, gesture.StateIdle, e.Machine().State())
	assert.Equal(t, []*board.Item{keep}, e.Document().Items)
	notices := e.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelWarn, notices[0].Level)
}

func TestGenerateScattersSnippetsNearCenter(t *testing.T) {
	e := newEditor(t, &stubProvider{}, WithGenerator(stubGenerator{res: ai.Result{Snippets: []string{"a", "b", " ", "c"}}}))
	e.Document().Viewport = geom.Viewport{Pan: geom.Pt(-100, 50), Scale: 2}
	c := e.Document().Viewport.ScreenToWorld(geom.Pt(400, 300))

	items := e.Generate(context.Background(), "brainstorm", ai.ModeText)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, board.KindText, it.Kind())
		assert.Equal(t, board.DefaultTextWidth, it.Width)
		assert.Equal(t, board.DefaultTextHeight, it.Height)
		assert.InDelta(t, c.X, it.Center().X, snippetSpread)
		assert.InDelta(t, c.Y, it.Center().Y, snippetSpread)
	}
	assert.Empty(t, e.Notices())
}

func TestGenerateImageIsCentered(t *testing.T) {
	e := newEditor(t, &stubProvider{}, WithGenerator(stubGenerator{res: ai.Result{Image: "https://img"}}))

	items := e.Generate(context.Background(), "a lighthouse", ai.ModeImage)
	require.Len(t, items, 1)
	assert.Equal(t, board.KindImage, items[0].Kind())
	assert.Equal(t, geom.Pt(400, 300), items[0].Center())
	assert.Equal(t, board.DefaultImageSize, items[0].Width)
}

func TestGenerateFailureFallsBack(t *testing.T) {
	e := newEditor(t, &stubProvider{}, WithGenerator(stubGenerator{err: errors.New("timeout")}))

	items := e.Generate(context.Background(), "x", ai.ModeImage)
	assert.Len(t, items, len(ai.FallbackSnippets))
	notices := e.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelWarn, notices[0].Level)
}

func TestPasteAndCopy(t *testing.T) {
	clip := &memClipboard{text: "{\\rtf1\\ansi hello\\par world}"}
	e := newEditor(t, &stubProvider{}, WithClipboard(clip))

	it, err := e.Paste()
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "hello\nworld", it.Payload.(*board.Text).Content)
	assert.Equal(t, geom.Pt(400, 300), it.Center())

	e.Document().Selection.Set(it.ID)
	clip.text = ""
	require.NoError(t, e.Copy())
	assert.Equal(t, "hello\nworld", clip.text)

	clip.text = "   "
	it, err = e.Paste()
	assert.NoError(t, err)
	assert.Nil(t, it)
}

func TestAddRejectsDrawing(t *testing.T) {
	e := newEditor(t, &stubProvider{})
	_, err := e.Add(board.KindDrawing)
	assert.Error(t, err)
}

func TestNoticeQueueIsBounded(t *testing.T) {
	e := newEditor(t, &stubProvider{})
	for i := 0; i < maxNotices+5; i++ {
		e.Notify(LevelInfo, "n%d", i)
	}
	got := e.Notices()
	require.Len(t, got, maxNotices)
	assert.Equal(t, "n5", got[0].Message)
}

func TestCleanPasted(t *testing.T) {
	cases := map[string]string{
		"plain\r\ntext":              "plain\ntext",
		"<div>a &amp; b</div>":       "a & b",
		`{\rtf1 tab\tab here\par}`:   "tab\there",
		"  spaced \x01out ":          "spaced out",
		"":                           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanPasted(in), "input %q", in)
	}
}
