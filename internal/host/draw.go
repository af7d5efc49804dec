package host

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/livemark/internal/editor"
	"github.com/dshills/livemark/internal/format"
)

const (
	tabWidth       = 4
	messageTimeout = 5 * time.Second
)

// draw repaints the screen from the editor state. Only the lines drained
// from the editor's dirty tracker and the lines whose selection highlight
// changed are repainted, unless the view scrolled, was resized or the line
// count changed.
func (h *Host) draw() {
	start := time.Now()
	defer func() { h.app.Metrics().RecordFrame(time.Since(start)) }()

	st := h.ed.State()
	anns := h.ed.Annotations()
	lines := strings.Split(st.Content, "\n")
	dirtyLines := h.ed.Dirty().Take(len(lines))

	width, height := h.screen.Size()
	rows := height
	if h.statusLine {
		rows--
	}
	if width <= 0 || rows <= 0 {
		h.screen.Clear()
		h.screen.Show()
		h.full = true
		return
	}

	_, head := h.caret()
	curLine, curCol := lineCol(lines, head)
	h.scrollTo(curLine, rows)

	sel := st.Selection
	full := h.full || h.top != h.drawnTop || len(lines) != h.drawnLines
	repaint := make(map[int]bool, len(dirtyLines))
	if full {
		h.screen.Clear()
	} else {
		for _, l := range dirtyLines {
			repaint[l] = true
		}
		if sel != h.drawnSel {
			h.markSelection(repaint, lines, h.drawnSel)
			h.markSelection(repaint, lines, sel)
		}
	}

	cursorX, cursorY := -1, -1
	offset := offsetOf(lines, min(h.top, len(lines)-1), 0)
	for y := 0; y < rows; y++ {
		idx := h.top + y
		if idx >= len(lines) {
			break
		}
		if full || repaint[idx] {
			var ann format.LineAnnotation
			if idx < len(anns) && anns[idx].LineIndex == idx {
				ann = anns[idx]
			}
			if !full {
				h.clearRow(y, width)
			}
			h.drawLine(y, width, lines[idx], ann, offset, sel)
		}
		if idx == curLine {
			cursorX, cursorY = columnX(lines[idx], curCol), y
		}
		offset += utf8.RuneCountInString(lines[idx]) + 1
	}
	h.full = false
	h.drawnTop, h.drawnLines, h.drawnSel = h.top, len(lines), sel

	if cursorY >= 0 && cursorX < width {
		h.screen.ShowCursor(cursorX, cursorY)
	} else {
		h.screen.HideCursor()
	}
	if h.statusLine {
		h.drawStatus(height-1, width, st, curLine, curCol)
	}
	h.screen.Show()
}

// markSelection adds the lines spanned by a non-empty selection to rows.
func (h *Host) markSelection(rows map[int]bool, lines []string, sel editor.Selection) {
	if sel.Start == sel.End {
		return
	}
	first, _ := lineCol(lines, sel.Start)
	last, _ := lineCol(lines, sel.End)
	for l := first; l <= last; l++ {
		rows[l] = true
	}
}

// clearRow blanks row y before a line is repainted over it.
func (h *Host) clearRow(y, width int) {
	for x := 0; x < width; x++ {
		h.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}

// scrollTo adjusts the first visible line so that line is on screen.
func (h *Host) scrollTo(line, rows int) {
	switch {
	case line < h.top:
		h.top = line
	case line >= h.top+rows:
		h.top = line - rows + 1
	}
}

// drawLine draws one document line at row y. offset is the content offset of
// the line's first rune.
func (h *Host) drawLine(y, width int, line string, ann format.LineAnnotation, offset int, sel editor.Selection) {
	fence := format.IsFence(line)
	x, col := 0, 0
	state := -1
	rest := line
	for len(rest) > 0 && x < width {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		runes := []rune(cluster)

		style := h.styles.lineStyle(ann, col, h.fade, fence)
		if pos := offset + col; pos >= sel.Start && pos < sel.End {
			style = style.Reverse(true)
		}

		if cluster == "\t" {
			next := (x/tabWidth + 1) * tabWidth
			for ; x < next && x < width; x++ {
				h.screen.SetContent(x, y, ' ', nil, style)
			}
		} else {
			if w < 1 {
				w = 1
			}
			if x+w > width {
				break
			}
			h.screen.SetContent(x, y, runes[0], runes[1:], style)
			x += w
		}
		col += len(runes)
	}
}

// columnX returns the screen column of rune column col in line.
func columnX(line string, col int) int {
	x, n := 0, 0
	state := -1
	rest := line
	for len(rest) > 0 && n < col {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		switch {
		case cluster == "\t":
			x = (x/tabWidth + 1) * tabWidth
		case w < 1:
			x++
		default:
			x += w
		}
		n += utf8.RuneCountInString(cluster)
	}
	return x
}

// drawStatus draws the status line at row y.
func (h *Host) drawStatus(y, width int, st editor.State, line, col int) {
	style := h.styles.Status
	if st.IsDirty {
		style = h.styles.StatusDirty
	}
	for x := 0; x < width; x++ {
		h.screen.SetContent(x, y, ' ', nil, style)
	}

	title := st.Title
	if title == "" {
		title = "untitled"
	}
	left := " " + title
	if st.IsDirty {
		left += " [+]"
	}
	switch {
	case st.IsSaving:
		left += "  saving..."
	case !st.LastSaved.IsZero():
		left += "  saved " + st.LastSaved.Format("15:04:05")
	}
	if sec := section(st.Outline, line); sec != "" {
		left += "  \u00a7 " + sec
	}
	if n := len(st.Warnings); n == 1 {
		left += "  1 warning"
	} else if n > 1 {
		left += fmt.Sprintf("  %d warnings", n)
	}
	x := h.putString(0, y, width, left, style)

	if st.Error != nil {
		x = h.putString(x, y, width, "  ", style)
		x = h.putString(x, y, width, st.Error.Message, h.styles.StatusError)
	}
	if h.message != "" && time.Since(h.messageAt) < messageTimeout {
		x = h.putString(x, y, width, "  "+h.message, style)
	}

	right := fmt.Sprintf("Ln %d, Col %d ", line+1, col+1)
	if rx := width - uniseg.StringWidth(right); rx > x {
		h.putString(rx, y, width, right, style)
	}
}

// section returns the title of the outline entry that contains line.
func section(outline []format.Heading, line int) string {
	title := ""
	for _, h := range outline {
		if h.Line > line {
			break
		}
		title = h.Title
		for _, c := range h.Children {
			if c.Line > line {
				break
			}
			title = h.Title + " / " + c.Title
		}
	}
	return title
}

// putString draws s from column x, clipped at width, and returns the next column.
func (h *Host) putString(x, y, width int, s string, style tcell.Style) int {
	state := -1
	for len(s) > 0 && x < width {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if w < 1 {
			w = 1
		}
		if x+w > width {
			break
		}
		runes := []rune(cluster)
		h.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}
