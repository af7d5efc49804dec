package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/livemark/internal/engine/tree"
	"github.com/dshills/livemark/internal/format"
	"github.com/dshills/livemark/internal/persist"
	"github.com/dshills/livemark/internal/renderer/preview"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeTimers records debounce timers so tests fire them by hand.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeTimers) newTimer(_ time.Duration, f func()) preview.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeTimers) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// fireLast runs the most recent timer.
func (c *fakeTimers) fireLast(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	if len(c.timers) == 0 {
		c.mu.Unlock()
		t.Fatal("no debounce timer was scheduled")
	}
	f := c.timers[len(c.timers)-1].f
	c.mu.Unlock()
	f()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	*Editor
	timers *fakeTimers
	clock  *testClock
}

func newHarness(t *testing.T, content string, extra ...Option) *harness {
	t.Helper()
	opts := DefaultOptions()
	opts.DraftID = "test"
	opts.Content = content
	opts.RecoverDraft = false

	h := &harness{
		timers: &fakeTimers{},
		clock:  &testClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
	}
	all := append([]Option{WithTimerFunc(h.timers.newTimer), WithClock(h.clock.Now)}, extra...)
	h.Editor = New(opts, all...)
	if err := h.RenderNow(); err != nil {
		t.Fatalf("RenderNow() error = %v", err)
	}
	return h
}

func (h *harness) text() string {
	return h.State().Content
}

// failingRemote rejects every save.
type failingRemote struct {
	mu    sync.Mutex
	calls int
}

func (r *failingRemote) SaveDraft(context.Context, persist.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return errors.New("503 service unavailable")
}

type okRemote struct{}

func (okRemote) SaveDraft(context.Context, persist.Snapshot) error { return nil }

type failingStore struct {
	*persist.MemoryStore
}

func (failingStore) Put(string, []byte) error {
	return errors.New("disk full")
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestBoldToggle(t *testing.T) {
	h := newHarness(t, "hello world")

	h.SelectRange(6, 11)
	if err := h.FormatSelection(FormatBold); err != nil {
		t.Fatalf("FormatSelection(bold) error = %v", err)
	}
	if got, want := h.text(), "hello **world**"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	if sel := h.Selection(); sel.Start != 8 || sel.End != 13 || sel.Text != "world" {
		t.Errorf("Selection() = %+v, want world selected at 8-13", sel)
	}
	anns := h.Annotations()
	if len(anns) != 1 || len(anns[0].Spans) != 1 || anns[0].Spans[0].Kind != format.Bold {
		t.Errorf("Annotations() = %+v, want one bold span", anns)
	}
	bold := h.Surface().Root().Child(0).Child(1)
	if bold == nil || bold.Type != tree.NodeInline || bold.Tag != "bold" {
		t.Errorf("rendered child = %+v, want bold wrapper", bold)
	}

	if err := h.FormatSelection(FormatBold); err != nil {
		t.Fatalf("second FormatSelection(bold) error = %v", err)
	}
	if got, want := h.text(), "hello world"; got != want {
		t.Errorf("content after unwrap = %q, want %q", got, want)
	}
	if sel := h.Selection(); sel.Text != "world" {
		t.Errorf("Selection() after unwrap = %+v", sel)
	}

	for _, want := range []string{"hello **world**", "hello world"} {
		if err := h.Undo(); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if got := h.text(); got != want {
			t.Errorf("content after Undo() = %q, want %q", got, want)
		}
	}
	if h.CanUndo() {
		t.Error("CanUndo() = true after undoing everything")
	}
	if err := h.Redo(); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "hello **world**"; got != want {
		t.Errorf("content after Redo() = %q, want %q", got, want)
	}
}

func TestInlineToggleWithCursor(t *testing.T) {
	h := newHarness(t, "a *b* c")
	h.SetCursor(3)
	if err := h.FormatSelection(FormatItalic); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "a b c"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if sel := h.Selection(); sel.Start != 2 || !sel.IsEmpty {
		t.Errorf("Selection() = %+v, want cursor at 2", sel)
	}
}

func TestEmptySelectionWrap(t *testing.T) {
	h := newHarness(t, "x")
	h.SetCursor(1)
	if err := h.FormatSelection(FormatCode); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "x``"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if sel := h.Selection(); sel.Start != 2 || sel.End != 2 {
		t.Errorf("Selection() = %+v, want cursor between markers", sel)
	}
}

func TestLinkFormatting(t *testing.T) {
	h := newHarness(t, "see docs")
	h.SelectRange(4, 8)
	if err := h.FormatSelection(FormatLink); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "see [docs](https://)"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	if sel := h.Selection(); sel.Text != "https://" {
		t.Errorf("Selection() = %+v, want the URL placeholder", sel)
	}

	h.SelectRange(5, 9)
	if err := h.FormatSelection(FormatLink); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "see docs"; got != want {
		t.Errorf("content after unlink = %q, want %q", got, want)
	}
}

func TestTypingCoalescesAndRendersAfterDelay(t *testing.T) {
	h := newHarness(t, "x")
	h.SetCursor(1)

	for _, s := range []string{"a", "b", "c"} {
		if err := h.TypeText(s); err != nil {
			t.Fatalf("TypeText(%q) error = %v", s, err)
		}
		h.clock.Advance(50 * time.Millisecond)
	}
	if got, want := h.text(), "xabc"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if h.history.Len() != 1 {
		t.Errorf("history length = %d, want 1", h.history.Len())
	}
	if h.timers.count() != 3 {
		t.Errorf("timers scheduled = %d, want 3", h.timers.count())
	}

	if err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := h.text(); got != "x" {
		t.Errorf("content after Undo() = %q, want %q", got, "x")
	}
}

func TestTypingAfterPauseStartsNewTransaction(t *testing.T) {
	h := newHarness(t, "")
	h.SetCursor(0)
	_ = h.TypeText("a")
	h.clock.Advance(time.Second)
	_ = h.TypeText("b")
	if h.history.Len() != 2 {
		t.Errorf("history length = %d, want 2", h.history.Len())
	}
}

func TestDebouncedRender(t *testing.T) {
	h := newHarness(t, "a")
	h.SetCursor(1)
	if err := h.TypeText(" *i*"); err != nil {
		t.Fatal(err)
	}
	if anns := h.Annotations(); len(anns[0].Spans) != 0 {
		t.Errorf("rendered before the delay: %+v", anns)
	}

	h.timers.fireLast(t)
	anns := h.Annotations()
	if len(anns[0].Spans) != 1 || anns[0].Spans[0].Kind != format.Italic {
		t.Errorf("Annotations() = %+v, want one italic span", anns)
	}
	if sel := h.Selection(); sel.Start != 5 {
		t.Errorf("cursor = %d after render, want 5", sel.Start)
	}
}

func TestCompositionSuppressesRenderAndHistory(t *testing.T) {
	h := newHarness(t, "ab")
	h.SetCursor(2)

	h.CompositionStart()
	for _, s := range []string{"k", "a"} {
		if err := h.TypeText(s); err != nil {
			t.Fatal(err)
		}
	}
	st := h.State()
	if !st.Composing {
		t.Error("Composing = false during composition")
	}
	if h.timers.count() != 0 {
		t.Errorf("render scheduled %d times during composition", h.timers.count())
	}
	if h.history.Len() != 0 {
		t.Errorf("history recorded %d entries during composition", h.history.Len())
	}

	if err := h.CompositionEnd("!"); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "abka!"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if h.history.Len() != 1 {
		t.Fatalf("history length = %d, want 1", h.history.Len())
	}
	if tx, _ := h.history.Peek(); tx.Label != labelCompose {
		t.Errorf("label = %q, want %q", tx.Label, labelCompose)
	}

	if err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := h.text(); got != "ab" {
		t.Errorf("content after Undo() = %q, want %q", got, "ab")
	}
}

func TestInsertTextNormalizes(t *testing.T) {
	h := newHarness(t, "")
	h.SetCursor(0)
	decomposed := "e" + string(rune(0x301))
	if err := h.TypeText(decomposed); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), string(rune(0xE9)); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestDeleteBackwardRemovesGrapheme(t *testing.T) {
	h := newHarness(t, "ab"+"e"+string(rune(0x301)))
	h.SetCursor(4)
	if err := h.HandleInput(InputEvent{Kind: DeleteBackward}); err != nil {
		t.Fatal(err)
	}
	if got := h.text(); got != "ab" {
		t.Errorf("content = %q, want %q", got, "ab")
	}
}

func TestDeleteAcrossLines(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		kind   InputKind
		want   string
	}{
		{"backward joins lines", 2, DeleteBackward, "ab"},
		{"forward joins lines", 1, DeleteForward, "ab"},
		{"backward at start", 0, DeleteBackward, "a\nb"},
		{"forward at end", 3, DeleteForward, "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "a\nb")
			h.SetCursor(tt.cursor)
			if err := h.HandleInput(InputEvent{Kind: tt.kind}); err != nil {
				t.Fatal(err)
			}
			if got := h.text(); got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeleteSelection(t *testing.T) {
	h := newHarness(t, "hello world")
	h.SelectRange(5, 11)
	if err := h.HandleInput(InputEvent{Kind: DeleteForward}); err != nil {
		t.Fatal(err)
	}
	if got := h.text(); got != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestInsertParagraphContinuesLists(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"- one", "- one\n- "},
		{"1. one", "1. one\n2. "},
		{"> said", "> said\n> "},
		{"plain", "plain\n"},
		{"- ", ""},
	}
	for _, tt := range tests {
		h := newHarness(t, tt.content)
		h.SetCursor(len([]rune(tt.content)))
		if err := h.HandleInput(InputEvent{Kind: InsertParagraph}); err != nil {
			t.Fatal(err)
		}
		if got := h.text(); got != tt.want {
			t.Errorf("InsertParagraph on %q = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestBlockToggles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		start   int
		end     int
		action  FormatAction
		want    string
	}{
		{"heading on", "Title", 2, 2, FormatHeading1, "# Title"},
		{"heading off", "# Title", 4, 4, FormatHeading1, "Title"},
		{"heading level change", "## Title", 4, 4, FormatHeading1, "# Title"},
		{"quote", "a\nb", 0, 3, FormatQuote, "> a\n> b"},
		{"numbered", "a\nb", 0, 3, FormatNumberedList, "1. a\n2. b"},
		{"bullet replaces numbers", "1. a\n2. b", 0, 9, FormatBulletList, "- a\n- b"},
		{"bullet off", "- a\n- b", 0, 7, FormatBulletList, "a\nb"},
		{"mixed lines are all formatted", "- a\nb", 0, 5, FormatBulletList, "- a\n- b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.content)
			h.SelectRange(tt.start, tt.end)
			if err := h.FormatSelection(tt.action); err != nil {
				t.Fatal(err)
			}
			if got := h.text(); got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
			if h.history.Len() != 1 {
				t.Errorf("history length = %d, want 1", h.history.Len())
			}
		})
	}
}

func TestHeadingKeepsCursorOnText(t *testing.T) {
	h := newHarness(t, "Title")
	h.SetCursor(2)
	_ = h.FormatSelection(FormatHeading2)
	if sel := h.Selection(); sel.Start != 5 {
		t.Errorf("cursor = %d, want 5", sel.Start)
	}
	if st := h.State(); len(st.Outline) != 1 || st.Outline[0].Title != "Title" {
		t.Errorf("Outline = %+v", st.Outline)
	}
}

func TestCodeBlockToggle(t *testing.T) {
	h := newHarness(t, "x := 1")
	h.SetCursor(0)
	if err := h.FormatSelection(FormatCodeBlock); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "```\nx := 1\n```"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	if sel := h.Selection(); sel.Start != 4 {
		t.Errorf("cursor = %d, want 4", sel.Start)
	}

	if err := h.FormatSelection(FormatCodeBlock); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "x := 1"; got != want {
		t.Errorf("content after unwrap = %q, want %q", got, want)
	}
}

func TestInsertContentAt(t *testing.T) {
	tests := []struct {
		action  InsertAction
		content string
		pos     int
		want    string
		sel     string
	}{
		{InsertHorizontalRule, "abc", 3, "abc\n---\n", ""},
		{InsertHorizontalRule, "abc", 0, "---\nabc", ""},
		{InsertLink, "", 0, "[link text](https://)", "link text"},
		{InsertImage, "", 0, "![alt text](https://)", "alt text"},
		{InsertCodeFence, "", 0, "```\n\n```", ""},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			h := newHarness(t, tt.content)
			if err := h.InsertContentAt(tt.action, tt.pos); err != nil {
				t.Fatal(err)
			}
			if got := h.text(); got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
			if sel := h.Selection(); sel.Text != tt.sel {
				t.Errorf("selected %q, want %q", sel.Text, tt.sel)
			}
		})
	}
}

func TestInsertContentReplacesSelection(t *testing.T) {
	h := newHarness(t, "abc")
	h.SelectRange(1, 2)
	if err := h.InsertContent(InsertLink); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "a[link text](https://)c"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if h.history.Len() != 1 {
		t.Errorf("history length = %d, want 1", h.history.Len())
	}
	_ = h.Undo()
	if got := h.text(); got != "abc" {
		t.Errorf("content after Undo() = %q", got)
	}
}

func TestUndoWithEmptyHistory(t *testing.T) {
	h := newHarness(t, "same")
	if err := h.Undo(); err != nil {
		t.Errorf("Undo() error = %v", err)
	}
	if err := h.Redo(); err != nil {
		t.Errorf("Redo() error = %v", err)
	}
	if st := h.State(); st.Content != "same" || st.IsDirty {
		t.Errorf("State() = %+v", st)
	}
}

func TestNativeInputIsRecorded(t *testing.T) {
	doc := tree.NewDocument("ab")
	h := newHarness(t, "", WithSurface(doc))
	leaf := doc.Root().Child(0).Child(0)
	doc.SetText(leaf, "abc")

	if err := h.HandleInput(InputEvent{Kind: Native}); err != nil {
		t.Fatal(err)
	}
	if got := h.text(); got != "abc" {
		t.Errorf("content = %q, want %q", got, "abc")
	}
	if !h.CanUndo() {
		t.Fatal("native edit not recorded")
	}
	_ = h.Undo()
	if got := h.text(); got != "ab" {
		t.Errorf("content after Undo() = %q, want %q", got, "ab")
	}
}

func TestOnChange(t *testing.T) {
	h := newHarness(t, "")
	var states []State
	unsubscribe := h.OnChange(func(s State) { states = append(states, s) })

	h.SetTitle("Draft")
	if len(states) != 1 || states[0].Title != "Draft" || !states[0].IsDirty {
		t.Fatalf("states = %+v", states)
	}
	unsubscribe()
	h.SetTitle("Other")
	if len(states) != 1 {
		t.Errorf("listener called after unsubscribe")
	}
}

func TestSaveClearsDirtyOnRemoteSuccess(t *testing.T) {
	h := newHarness(t, "x", WithRemote(okRemote{}))
	h.SetCursor(1)
	_ = h.TypeText("y")

	if err := h.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	st := h.State()
	if st.IsDirty || st.IsSaving || st.LastSaved.IsZero() {
		t.Errorf("State() after save = dirty %v saving %v saved %v", st.IsDirty, st.IsSaving, st.LastSaved)
	}
}

func TestSaveSurvivesRemoteFailure(t *testing.T) {
	remote := &failingRemote{}
	h := newHarness(t, "x",
		WithRemote(remote),
		WithPersistOptions(
			persist.WithRetryPolicy(persist.RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}),
			persist.WithSleep(noSleep)))
	h.SetCursor(1)
	_ = h.TypeText("y")

	if err := h.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if remote.calls != 3 {
		t.Errorf("remote attempts = %d, want 3", remote.calls)
	}
	st := h.State()
	if st.Error != nil {
		t.Errorf("Error = %v, want nil", st.Error)
	}
	if !st.IsDirty || st.IsSaving {
		t.Errorf("dirty %v saving %v, want dirty and not saving", st.IsDirty, st.IsSaving)
	}

	snap, ok, err := h.persist.LoadDraft()
	if err != nil || !ok || snap.Content != "xy" {
		t.Errorf("LoadDraft() = %+v, %v, %v", snap, ok, err)
	}
}

func TestSaveReportsLocalFailure(t *testing.T) {
	h := newHarness(t, "x", WithLocalStore(failingStore{persist.NewMemoryStore()}))
	if err := h.Save(context.Background()); err == nil {
		t.Fatal("Save() error = nil, want local save failure")
	}
	st := h.State()
	if st.Error == nil || st.Error.Code != CodeLocalSaveFailed || !st.Error.Recoverable {
		t.Errorf("Error = %+v, want recoverable %s", st.Error, CodeLocalSaveFailed)
	}
	if st.IsSaving {
		t.Error("IsSaving = true after failed save")
	}
}

func TestMountRecoversDraft(t *testing.T) {
	store := persist.NewMemoryStore()

	first := newHarness(t, "draft text", WithLocalStore(store))
	first.SetTitle("Mine")
	first.SelectRange(0, 5)
	if err := first.persist.SaveLocal(); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.DraftID = "test"
	opts.Content = "stale"
	second := New(opts, WithLocalStore(store), WithTimerFunc((&fakeTimers{}).newTimer))
	if err := second.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer second.Unmount()

	st := second.State()
	if st.Content != "draft text" || st.Title != "Mine" {
		t.Errorf("State() = %q %q, want recovered draft", st.Title, st.Content)
	}
	if !st.Recovered || !st.IsDirty {
		t.Errorf("Recovered %v IsDirty %v, want both set", st.Recovered, st.IsDirty)
	}
	if st.Selection.Start != 0 || st.Selection.End != 5 {
		t.Errorf("Selection = %+v, want 0-5", st.Selection)
	}
	if st.CanUndo {
		t.Error("recovery left undo history")
	}
}

func TestUnmountSavesLocally(t *testing.T) {
	store := persist.NewMemoryStore()
	opts := DefaultOptions()
	opts.DraftID = "d"
	opts.Content = "keep me"
	opts.RecoverDraft = false
	e := New(opts, WithLocalStore(store), WithTimerFunc((&fakeTimers{}).newTimer))
	if err := e.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.Unmount(); err != nil {
		t.Fatalf("Unmount() error = %v", err)
	}
	data, err := store.Get("draft:d")
	if err != nil {
		t.Fatalf("draft not saved: %v", err)
	}
	snap, err := persist.DecodeSnapshot(data)
	if err != nil || snap.Content != "keep me" {
		t.Errorf("saved snapshot = %+v, %v", snap, err)
	}
}

func TestRenderFailureIsReported(t *testing.T) {
	h := newHarness(t, "x")
	h.renderer = preview.New(h.mapper, preview.WithAnnotator(func([]string) ([]format.LineAnnotation, []format.Warning) {
		return nil, nil
	}))
	if err := h.RenderNow(); err == nil {
		t.Fatal("RenderNow() error = nil")
	}
	if st := h.State(); st.Error == nil || st.Error.Code != CodeRenderFailed {
		t.Errorf("Error = %+v, want %s", st.Error, CodeRenderFailed)
	}
	if got := h.text(); got != "x" {
		t.Errorf("content = %q after failed render", got)
	}
}

func TestWarningsSurface(t *testing.T) {
	h := newHarness(t, "# A\n# B")
	st := h.State()
	if len(st.Warnings) != 1 || st.Warnings[0].Code != format.WarnMultipleH1 {
		t.Errorf("Warnings = %+v", st.Warnings)
	}
}

func TestReconfigure(t *testing.T) {
	h := newHarness(t, "")
	h.Reconfigure(Options{DebounceDelay: time.Second, CoalesceWindow: -1, MaxHistory: 10})
	if h.debounce.Delay() != time.Second {
		t.Errorf("Delay() = %v, want 1s", h.debounce.Delay())
	}
	if h.history.Capacity() != 10 {
		t.Errorf("Capacity() = %d, want 10", h.history.Capacity())
	}

	h.SetCursor(0)
	_ = h.TypeText("a")
	_ = h.TypeText("b")
	if h.history.Len() != 2 {
		t.Errorf("history length = %d with coalescing off, want 2", h.history.Len())
	}
}

func TestTypingAfterBoldKeepsRenderedLeaf(t *testing.T) {
	h := newHarness(t, "**bold**")
	leaf := func() *tree.Node {
		for _, l := range h.surface.Root().Leaves() {
			if l.Type == tree.NodeText && l.Text == "bold" {
				return l
			}
		}
		return nil
	}
	before := leaf()
	if before == nil {
		t.Fatal("no rendered bold leaf")
	}

	h.SetCursor(8)
	if err := h.TypeText("x"); err != nil {
		t.Fatal(err)
	}
	if err := h.RenderNow(); err != nil {
		t.Fatal(err)
	}
	if got, want := h.text(), "**bold**x"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if leaf() != before {
		t.Error("bold leaf was rebuilt by typing after it")
	}
}

func TestZeroOptionsTakeDefaults(t *testing.T) {
	timers := &fakeTimers{}
	clock := &testClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	e := New(Options{}, WithTimerFunc(timers.newTimer), WithClock(clock.Now))

	if e.opts.CoalesceWindow != DefaultOptions().CoalesceWindow {
		t.Errorf("CoalesceWindow = %v, want %v", e.opts.CoalesceWindow, DefaultOptions().CoalesceWindow)
	}
	if e.debounce.Delay() != DefaultOptions().DebounceDelay {
		t.Errorf("Delay() = %v, want %v", e.debounce.Delay(), DefaultOptions().DebounceDelay)
	}

	_ = e.TypeText("a")
	_ = e.TypeText("b")
	if e.history.Len() != 1 {
		t.Errorf("history length = %d for quick keystrokes, want 1", e.history.Len())
	}
}

func TestFormatActionNames(t *testing.T) {
	for a := FormatBold; a <= FormatCodeBlock; a++ {
		got, ok := ParseFormatAction(a.String())
		if !ok || got != a {
			t.Errorf("ParseFormatAction(%q) = %v, %v", a.String(), got, ok)
		}
	}
	if _, ok := ParseFormatAction("strike"); ok {
		t.Error("ParseFormatAction(strike) ok")
	}
	if err := newHarness(t, "").FormatSelection(FormatAction(99)); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("FormatSelection(99) error = %v", err)
	}
}
