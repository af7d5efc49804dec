// Package host runs a livemark editor in a terminal.
//
// The host draws the document with live Markdown styling, routes keys to
// editor operations and keeps a status line with the save state, warnings
// and errors. Drawing and input happen on the goroutine that calls Run;
// debounced renders and autosaves wake it through posted interrupt events.
package host

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/livemark/internal/app"
	"github.com/dshills/livemark/internal/editor"
	"github.com/dshills/livemark/internal/logging"
)

// redraw is posted by other goroutines to wake the event loop.
type redraw struct{}

// stop is posted when the context passed to Run is cancelled.
type stop struct{}

// Option configures a Host.
type Option func(*Host)

// WithStyles sets the palette.
func WithStyles(s Styles) Option {
	return func(h *Host) {
		h.styles = s
	}
}

// WithFadeSymbols dims Markdown syntax characters.
func WithFadeSymbols(on bool) Option {
	return func(h *Host) {
		h.fade = on
	}
}

// WithStatusLine shows or hides the status line.
func WithStatusLine(on bool) Option {
	return func(h *Host) {
		h.statusLine = on
	}
}

// Host is a terminal front end for one editor.
type Host struct {
	screen tcell.Screen
	app    *app.Application
	ed     *editor.Editor
	logger *logging.Logger

	styles     Styles
	fade       bool
	statusLine bool

	// top is the first visible line.
	top int

	// full forces the next draw to repaint every row. The drawn fields
	// describe the last frame and decide when a partial repaint is enough.
	full       bool
	drawnTop   int
	drawnLines int
	drawnSel   editor.Selection

	// anchor and head describe a selection being extended with shift+arrows.
	// extending is false when the editor's own selection is authoritative.
	anchor    int
	head      int
	extending bool

	// goal is the column kept while moving vertically, -1 when unset.
	goal int

	pasting bool
	paste   []rune

	message   string
	messageAt time.Time
}

// New creates a host drawing on screen. The screen must not be initialized.
func New(screen tcell.Screen, a *app.Application, opts ...Option) *Host {
	cfg := a.Config()
	h := &Host{
		screen:     screen,
		app:        a,
		ed:         a.Editor(),
		logger:     a.Logger().WithComponent("host"),
		styles:     DefaultStyles(),
		fade:       cfg.UI.FadeSymbols,
		statusLine: cfg.UI.StatusLine,
		goal:       -1,
		full:       true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run initializes the screen and processes events until the user quits or
// ctx is cancelled. The screen is restored before Run returns.
func (h *Host) Run(ctx context.Context) error {
	if err := h.screen.Init(); err != nil {
		return err
	}
	defer h.screen.Fini()
	h.screen.EnablePaste()

	unsubscribe := h.ed.OnChange(func(editor.State) {
		_ = h.screen.PostEvent(tcell.NewEventInterrupt(redraw{}))
	})
	defer unsubscribe()

	exited := make(chan struct{})
	defer close(exited)
	go func() {
		select {
		case <-ctx.Done():
		case <-h.app.Done():
		case <-exited:
			return
		}
		_ = h.screen.PostEvent(tcell.NewEventInterrupt(stop{}))
	}()

	h.draw()
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := h.dispatch(ctx, ev); err != nil {
			if errors.Is(err, app.ErrQuit) {
				return nil
			}
			return err
		}
		h.draw()
	}
}

// dispatch handles one event. Panics from editor operations are logged and
// shown on the status line instead of tearing down the terminal.
func (h *Host) dispatch(ctx context.Context, ev tcell.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := app.NewRecoveredPanicError(r, string(debug.Stack()))
			h.logger.Error("%v", perr)
			h.setMessage("internal error: %v", r)
			err = nil
		}
	}()

	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if _, ok := ev.Data().(stop); ok {
			return app.ErrQuit
		}
	case *tcell.EventResize:
		h.full = true
		h.screen.Sync()
	case *tcell.EventPaste:
		if ev.Start() {
			h.pasting, h.paste = true, h.paste[:0]
			return nil
		}
		h.pasting = false
		return h.finishPaste()
	case *tcell.EventKey:
		start := time.Now()
		defer func() { h.app.Metrics().RecordInput(time.Since(start)) }()
		if h.pasting {
			h.bufferPaste(ev)
			return nil
		}
		return h.handleKey(ctx, ev)
	}
	return nil
}

func (h *Host) bufferPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		h.paste = append(h.paste, ev.Rune())
	case tcell.KeyEnter:
		h.paste = append(h.paste, '\n')
	case tcell.KeyTab:
		h.paste = append(h.paste, '\t')
	}
}

// finishPaste inserts the pasted text as one edit.
func (h *Host) finishPaste() error {
	if len(h.paste) == 0 {
		return nil
	}
	text := string(h.paste)
	h.paste = h.paste[:0]
	h.extending = false
	return h.ed.HandleInput(editor.InputEvent{Kind: editor.InsertText, Text: text})
}

func (h *Host) setMessage(format string, args ...any) {
	h.message = fmt.Sprintf(format, args...)
	h.messageAt = time.Now()
}
