package host

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/livemark/internal/app"
	"github.com/dshills/livemark/internal/editor"
	"github.com/dshills/livemark/internal/grapheme"
)

// Control keys that toggle inline formats. Ctrl-I arrives as Tab in a
// terminal, so italic is on Ctrl-E.
var ctrlFormats = map[tcell.Key]editor.FormatAction{
	tcell.KeyCtrlB: editor.FormatBold,
	tcell.KeyCtrlE: editor.FormatItalic,
	tcell.KeyCtrlK: editor.FormatLink,
}

// Alt-key bindings for block formats.
var altFormats = map[rune]editor.FormatAction{
	'`': editor.FormatCode,
	'1': editor.FormatHeading1,
	'2': editor.FormatHeading2,
	'3': editor.FormatHeading3,
	'q': editor.FormatQuote,
	'u': editor.FormatBulletList,
	'o': editor.FormatNumberedList,
	'c': editor.FormatCodeBlock,
}

// Alt-key bindings for inserted content.
var altInserts = map[rune]editor.InsertAction{
	'h': editor.InsertHorizontalRule,
	'l': editor.InsertLink,
	'i': editor.InsertImage,
	'f': editor.InsertCodeFence,
}

// handleKey routes a key press to an editor operation.
func (h *Host) handleKey(ctx context.Context, ev *tcell.EventKey) error {
	key, mod := ev.Key(), ev.Modifiers()

	if action, ok := ctrlFormats[key]; ok {
		return h.format(action)
	}
	if key == tcell.KeyRune && mod&tcell.ModAlt != 0 {
		if action, ok := altFormats[ev.Rune()]; ok {
			return h.format(action)
		}
		if action, ok := altInserts[ev.Rune()]; ok {
			h.extending = false
			return h.report(h.ed.InsertContent(action))
		}
		return nil
	}

	shift := mod&tcell.ModShift != 0
	switch key {
	case tcell.KeyCtrlQ, tcell.KeyCtrlC:
		return app.ErrQuit
	case tcell.KeyCtrlS:
		if err := h.app.Save(ctx); err != nil {
			h.setMessage("save failed: %v", err)
			return nil
		}
		if h.ed.State().IsDirty {
			h.setMessage("saved locally, remote save failed")
		} else {
			h.setMessage("saved")
		}
	case tcell.KeyCtrlZ:
		h.extending = false
		return h.report(h.ed.Undo())
	case tcell.KeyCtrlY:
		h.extending = false
		return h.report(h.ed.Redo())
	case tcell.KeyCtrlR:
		return h.report(h.ed.RenderNow())
	case tcell.KeyCtrlA:
		content := h.ed.State().Content
		h.selectTo(0, utf8.RuneCountInString(content))
	case tcell.KeyRune:
		return h.input(editor.InputEvent{Kind: editor.InsertText, Text: string(ev.Rune())})
	case tcell.KeyTab:
		return h.input(editor.InputEvent{Kind: editor.InsertText, Text: "  "})
	case tcell.KeyEnter:
		return h.input(editor.InputEvent{Kind: editor.InsertParagraph})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return h.input(editor.InputEvent{Kind: editor.DeleteBackward})
	case tcell.KeyDelete:
		return h.input(editor.InputEvent{Kind: editor.DeleteForward})
	case tcell.KeyLeft, tcell.KeyRight, tcell.KeyUp, tcell.KeyDown,
		tcell.KeyHome, tcell.KeyEnd, tcell.KeyPgUp, tcell.KeyPgDn:
		h.move(key, shift)
	}
	return nil
}

func (h *Host) format(action editor.FormatAction) error {
	h.extending = false
	return h.report(h.ed.FormatSelection(action))
}

func (h *Host) input(ev editor.InputEvent) error {
	h.extending = false
	h.goal = -1
	return h.report(h.ed.HandleInput(ev))
}

// report shows an operation error on the status line. Editor errors are
// not fatal to the host.
func (h *Host) report(err error) error {
	if err != nil {
		h.logger.Warn("edit failed: %v", err)
		h.setMessage("%v", err)
	}
	return nil
}

// caret returns the selection anchor and the moving end.
func (h *Host) caret() (anchor, head int) {
	sel := h.ed.Selection()
	if h.extending {
		lo, hi := h.anchor, h.head
		if lo > hi {
			lo, hi = hi, lo
		}
		if sel.Start == lo && sel.End == hi {
			return h.anchor, h.head
		}
		h.extending = false
	}
	return sel.Start, sel.End
}

// move handles cursor keys. With shift the selection is extended from its
// anchor; without it a selection collapses toward the direction of travel.
func (h *Host) move(key tcell.Key, shift bool) {
	content := h.ed.State().Content
	anchor, head := h.caret()
	lines := strings.Split(content, "\n")

	if !shift && anchor != head && (key == tcell.KeyLeft || key == tcell.KeyRight) {
		lo, hi := min(anchor, head), max(anchor, head)
		if key == tcell.KeyLeft {
			h.collapse(lo)
		} else {
			h.collapse(hi)
		}
		return
	}

	line, col := lineCol(lines, head)
	next := head
	vertical := false
	switch key {
	case tcell.KeyLeft:
		next = grapheme.Prev(content, head)
	case tcell.KeyRight:
		next = grapheme.Next(content, head)
	case tcell.KeyHome:
		next = head - col
	case tcell.KeyEnd:
		next = head - col + utf8.RuneCountInString(lines[line])
	case tcell.KeyUp, tcell.KeyDown, tcell.KeyPgUp, tcell.KeyPgDn:
		vertical = true
		if h.goal < 0 {
			h.goal = col
		}
		step := map[tcell.Key]int{
			tcell.KeyUp:   -1,
			tcell.KeyDown: 1,
			tcell.KeyPgUp: -h.pageSize(),
			tcell.KeyPgDn: h.pageSize(),
		}[key]
		target := clamp(line+step, 0, len(lines)-1)
		next = offsetOf(lines, target, h.goal)
	}
	if !vertical {
		h.goal = -1
	}

	if shift {
		h.selectTo(anchor, next)
		return
	}
	h.collapse(next)
}

func (h *Host) collapse(pos int) {
	h.extending = false
	h.ed.SetCursor(pos)
}

func (h *Host) selectTo(anchor, head int) {
	h.anchor, h.head, h.extending = anchor, head, true
	h.ed.SelectRange(min(anchor, head), max(anchor, head))
}

// pageSize is the number of text rows on screen.
func (h *Host) pageSize() int {
	_, height := h.screen.Size()
	if h.statusLine {
		height--
	}
	return max(height, 1)
}

// lineCol converts a content offset to a line index and rune column.
func lineCol(lines []string, offset int) (line, col int) {
	for i, l := range lines {
		n := utf8.RuneCountInString(l)
		if offset <= n || i == len(lines)-1 {
			return i, min(offset, n)
		}
		offset -= n + 1
	}
	return 0, 0
}

// offsetOf converts a line index and column to a content offset, clamping
// the column to the line length.
func offsetOf(lines []string, line, col int) int {
	pos := 0
	for i := 0; i < line; i++ {
		pos += utf8.RuneCountInString(lines[i]) + 1
	}
	return pos + min(col, utf8.RuneCountInString(lines[line]))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
