package editor

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/livemark/internal/engine/history"
	"github.com/dshills/livemark/internal/engine/mapper"
	"github.com/dshills/livemark/internal/engine/tree"
	"github.com/dshills/livemark/internal/format"
	"github.com/dshills/livemark/internal/logging"
	"github.com/dshills/livemark/internal/persist"
	"github.com/dshills/livemark/internal/renderer/dirty"
	"github.com/dshills/livemark/internal/renderer/preview"
)

// Logger is the logging interface used by the editor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Editor is a live-preview Markdown editor.
type Editor struct {
	mu sync.Mutex

	opts     Options
	surface  mapper.Surface
	mapper   *mapper.Mapper
	doc      textDocument
	renderer *preview.Renderer
	debounce *preview.Debouncer
	history  *history.History
	persist  *persist.Coordinator
	logger   Logger

	local       persist.LocalStore
	remote      persist.Remote
	timerFunc   preview.TimerFunc
	now         func() time.Time
	persistOpts []persist.Option

	title     string
	content   string
	revision  uint64
	dirty     bool
	saving    bool
	lastSaved time.Time
	err       *StateError
	recovered bool
	warnings  []format.Warning
	outline   []format.Heading

	composing       bool
	compositionBase string

	mounted   bool
	listeners map[int]func(State)
	nextID    int
}

// textDocument applies history actions through the mapper.
type textDocument struct {
	m *mapper.Mapper
}

func (d textDocument) Text() string {
	return d.m.Text()
}

func (d textDocument) Replace(start, end int, text string) error {
	d.m.ReplaceRange(start, end, text, mapper.ReplaceOptions{MoveCursorToEnd: true})
	return nil
}

// New creates an editor.
func New(opts Options, extra ...Option) *Editor {
	def := DefaultOptions()
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = def.DebounceDelay
	}
	if opts.CoalesceWindow == 0 {
		opts.CoalesceWindow = def.CoalesceWindow
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = def.MaxHistory
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = def.Retry
	}
	if opts.DraftID == "" {
		opts.DraftID = uuid.NewString()
	}

	e := &Editor{
		opts:      opts,
		logger:    logging.Nop,
		now:       time.Now,
		title:     opts.Title,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range extra {
		opt(e)
	}
	if e.surface == nil {
		e.surface = tree.NewDocument(opts.Content)
	}
	if e.local == nil {
		e.local = persist.NewMemoryStore()
	}

	e.mapper = mapper.New(e.surface)
	e.doc = textDocument{m: e.mapper}
	e.content = e.mapper.Text()
	e.renderer = preview.New(e.mapper,
		preview.WithLogger(e.logger),
		preview.WithDirty(dirty.NewTracker()))
	e.debounce = preview.NewDebouncer(opts.DebounceDelay, e.onDebounce, e.timerFunc)
	e.history = history.New(opts.MaxHistory,
		history.WithClock(e.now),
		history.WithCoalesceWindow(opts.CoalesceWindow))

	popts := []persist.Option{
		persist.WithRemote(e.remote),
		persist.WithIntervals(opts.LocalInterval, opts.RemoteInterval),
		persist.WithRetryPolicy(opts.Retry),
		persist.WithLogger(e.logger),
		persist.WithErrorHandler(e.reportError),
		persist.WithClock(e.now),
	}
	e.persist = persist.New(e.local, opts.DraftID, e.snapshot, append(popts, e.persistOpts...)...)
	return e
}

// Surface returns the surface the editor renders into.
func (e *Editor) Surface() mapper.Surface {
	return e.surface
}

// Dirty returns the tracker of lines rewritten since the host last drained it.
func (e *Editor) Dirty() *dirty.Tracker {
	return e.renderer.Dirty()
}

// Annotations returns the line annotations of the last render pass.
func (e *Editor) Annotations() []format.LineAnnotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderer.Annotations()
}

// DraftID returns the draft identifier.
func (e *Editor) DraftID() string {
	return e.opts.DraftID
}

// OnChange registers a listener called after every state change.
// The returned func removes it.
func (e *Editor) OnChange(fn func(State)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// update runs fn under the lock and then notifies listeners.
func (e *Editor) update(fn func() error) error {
	e.mu.Lock()
	err := fn()
	st := e.stateLocked()
	listeners := make([]func(State), 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
	return err
}

// State returns a snapshot of the editor state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	return State{
		Title:     e.title,
		Content:   e.content,
		Selection: e.selectionLocked(),
		IsDirty:   e.dirty,
		IsSaving:  e.saving,
		LastSaved: e.lastSaved,
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
		Composing: e.composing,
		Recovered: e.recovered,
		Error:     e.err,
		Warnings:  e.warnings,
		Outline:   e.outline,
		Revision:  e.revision,
	}
}

func (e *Editor) selectionLocked() Selection {
	info := e.mapper.SelectionInfo()
	return Selection{Start: info.Start, End: info.End, Text: info.Text, IsEmpty: info.IsEmpty()}
}

// snapshot is called by the persistence goroutines.
func (e *Editor) snapshot() persist.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.mapper.SelectionInfo()
	return persist.Snapshot{
		Title:          e.title,
		Content:        e.content,
		SelectionStart: sel.Start,
		SelectionEnd:   sel.End,
		Revision:       e.revision,
	}
}

// reportError records a recoverable error from the autosave loop.
func (e *Editor) reportError(err error) {
	_ = e.update(func() error {
		e.err = newStateError(CodeLocalSaveFailed, err)
		return nil
	})
}

// Mount recovers a saved draft, renders the document and starts autosave.
func (e *Editor) Mount(ctx context.Context) error {
	err := e.update(func() error {
		if e.mounted {
			return nil
		}
		e.mounted = true

		if e.opts.RecoverDraft {
			e.recoverLocked()
		}
		e.renderLocked()
		e.logger.Info("editor mounted (draft %s)", e.opts.DraftID)
		return nil
	})
	if err != nil {
		return err
	}
	e.persist.StartAutoSave(ctx)
	return nil
}

func (e *Editor) recoverLocked() {
	snap, ok, err := e.persist.LoadDraft()
	if err != nil {
		e.logger.Warn("draft recovery failed: %v", err)
		e.err = newStateError(CodeDraftLoadFailed, err)
		return
	}
	if !ok || (snap.Content == e.content && snap.Title == e.title) {
		return
	}

	e.mapper.ReplaceRange(0, e.mapper.Len(), snap.Content, mapper.ReplaceOptions{MoveCursorToEnd: true})
	e.mapper.SelectRange(snap.SelectionStart, snap.SelectionEnd)
	e.title = snap.Title
	e.content = e.mapper.Text()
	e.history.Clear()
	e.revision++
	e.dirty = true
	e.recovered = true
	e.renderer.Dirty().MarkFullRedraw()
	e.logger.Info("recovered draft saved at %v", snap.SavedAt)
}

// Unmount stops autosave and performs a final local save.
func (e *Editor) Unmount() error {
	wasMounted := false
	_ = e.update(func() error {
		wasMounted = e.mounted
		e.mounted = false
		e.debounce.Cancel()
		if e.composing {
			e.finishCompositionLocked("")
		}
		return nil
	})
	if !wasMounted {
		return nil
	}

	// The autosave loops take the editor lock, so it must be free here.
	e.persist.StopAutoSave()

	if err := e.persist.SaveLocal(); err != nil {
		e.reportError(err)
		return err
	}
	e.logger.Info("editor unmounted")
	return nil
}

// Save writes the document locally and then remotely. Remote failures are
// logged and swallowed; the dirty flag is cleared only when both succeed
// and nothing changed in the meantime.
func (e *Editor) Save(ctx context.Context) error {
	var rev uint64
	_ = e.update(func() error {
		e.saving = true
		rev = e.revision
		return nil
	})

	if err := e.persist.SaveLocal(); err != nil {
		return e.update(func() error {
			e.saving = false
			e.err = newStateError(CodeLocalSaveFailed, err)
			return err
		})
	}
	saved := e.persist.SaveToServer(ctx)

	return e.update(func() error {
		e.saving = false
		e.lastSaved = e.now()
		if e.err != nil && e.err.Code == CodeLocalSaveFailed {
			e.err = nil
		}
		if saved && e.revision == rev {
			e.dirty = false
		}
		return nil
	})
}

// ClearDraft removes the locally saved draft.
func (e *Editor) ClearDraft() error {
	return e.persist.ClearDraft()
}

// Reconfigure applies new timing and history settings to a live editor.
// Autosave intervals take effect on the next Mount.
func (e *Editor) Reconfigure(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.DebounceDelay > 0 {
		e.debounce.SetDelay(opts.DebounceDelay)
		e.opts.DebounceDelay = opts.DebounceDelay
	}
	if opts.CoalesceWindow != 0 {
		e.history.SetCoalesceWindow(opts.CoalesceWindow)
		e.opts.CoalesceWindow = opts.CoalesceWindow
	}
	if opts.MaxHistory > 0 {
		e.history.Resize(opts.MaxHistory)
		e.opts.MaxHistory = opts.MaxHistory
	}
	e.logger.Debug("reconfigured: debounce %v, coalesce %v, history %d",
		e.opts.DebounceDelay, e.opts.CoalesceWindow, e.opts.MaxHistory)
}

// RenderNow cancels any pending render and runs one immediately.
func (e *Editor) RenderNow() error {
	return e.update(func() error {
		e.debounce.Cancel()
		return e.renderLocked()
	})
}

func (e *Editor) onDebounce() {
	_ = e.update(func() error {
		if e.composing {
			return nil
		}
		return e.renderLocked()
	})
}

func (e *Editor) renderLocked() error {
	res, err := e.renderer.Apply()
	if err != nil {
		e.logger.Warn("render failed: %v", err)
		e.err = newStateError(CodeRenderFailed, err)
		return err
	}
	if e.err != nil && e.err.Code == CodeRenderFailed {
		e.err = nil
	}
	e.warnings = res.Warnings
	e.outline = format.Outline(e.mapper.Lines(), res.Annotations)
	return nil
}

// Undo reverts the last transaction. It does nothing when there is none.
func (e *Editor) Undo() error {
	return e.update(func() error {
		tx, err := e.history.Undo(e.doc)
		return e.afterHistoryLocked("undo", tx, err)
	})
}

// Redo re-applies the last undone transaction.
func (e *Editor) Redo() error {
	return e.update(func() error {
		tx, err := e.history.Redo(e.doc)
		return e.afterHistoryLocked("redo", tx, err)
	})
}

func (e *Editor) afterHistoryLocked(op string, tx *history.Transaction, err error) error {
	if err != nil {
		e.logger.Error("%s failed: %v", op, err)
		e.err = newStateError(CodeHistoryFailed, err)
		return err
	}
	if tx == nil {
		return nil
	}
	e.changedLocked(tx.Actions()...)
	e.debounce.Cancel()
	return e.renderLocked()
}

// InsertTransaction applies tx to the document and records it.
func (e *Editor) InsertTransaction(tx *history.Transaction) error {
	if tx == nil || tx.IsEmpty() {
		return nil
	}
	return e.update(func() error {
		if err := tx.Apply(e.doc); err != nil {
			return err
		}
		e.history.Add(tx)
		e.changedLocked(tx.Actions()...)
		e.debounce.Cancel()
		return e.renderLocked()
	})
}

// Selection returns the current selection.
func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectionLocked()
}

// SetCursor collapses the selection at pos.
func (e *Editor) SetCursor(pos int) {
	_ = e.update(func() error {
		e.mapper.SetCursor(pos)
		e.history.Seal()
		return nil
	})
}

// SelectRange selects [start, end).
func (e *Editor) SelectRange(start, end int) {
	_ = e.update(func() error {
		e.mapper.SelectRange(start, end)
		e.history.Seal()
		return nil
	})
}

// SetTitle changes the draft title.
func (e *Editor) SetTitle(title string) {
	_ = e.update(func() error {
		if title == e.title {
			return nil
		}
		e.title = title
		e.revision++
		e.dirty = true
		return nil
	})
}

// CanUndo returns true if undo is available.
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// editLocked applies a to the document and records it under label.
// Nothing is recorded while a composition is active.
func (e *Editor) editLocked(label string, a history.Action) error {
	if a.IsNoop() {
		return nil
	}
	if err := a.Apply(e.doc); err != nil {
		return err
	}
	if !e.composing {
		e.history.Record(label, a)
	}
	e.changedLocked(a)
	return nil
}

// changedLocked syncs the canonical content after actions were applied.
func (e *Editor) changedLocked(actions ...history.Action) {
	e.content = e.mapper.Text()
	e.revision++
	e.dirty = true

	tracker := e.renderer.Dirty()
	for _, a := range actions {
		line := e.mapper.LineAt(a.Position).Index
		if strings.Contains(a.Before, "\n") || strings.Contains(a.After, "\n") {
			tracker.MarkLines(line, math.MaxInt32)
			continue
		}
		tracker.MarkLine(line)
	}
}
