package host

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/livemark/internal/format"
)

// Styles is the palette used to draw a document.
type Styles struct {
	Text      tcell.Style
	Heading   [3]tcell.Style // levels 1 to 3
	Marker    tcell.Style    // Markdown syntax characters
	Faded     tcell.Style    // syntax characters when fading is on
	Code      tcell.Style
	Link      tcell.Style
	Quote     tcell.Style
	ListMark  tcell.Style
	CodeBlock tcell.Style
	Selection tcell.Style

	Status      tcell.Style
	StatusDirty tcell.Style
	StatusError tcell.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	base := tcell.StyleDefault
	return Styles{
		Text: base,
		Heading: [3]tcell.Style{
			base.Bold(true).Underline(true).Foreground(tcell.ColorYellow),
			base.Bold(true).Foreground(tcell.ColorYellow),
			base.Bold(true).Foreground(tcell.ColorOlive),
		},
		Marker:      base.Foreground(tcell.ColorGray),
		Faded:       base.Foreground(tcell.ColorDarkSlateGray).Dim(true),
		Code:        base.Foreground(tcell.ColorTeal),
		Link:        base.Foreground(tcell.ColorBlue).Underline(true),
		Quote:       base.Italic(true).Foreground(tcell.ColorSilver),
		ListMark:    base.Foreground(tcell.ColorAqua).Bold(true),
		CodeBlock:   base.Foreground(tcell.ColorGreen),
		Selection:   base.Reverse(true),
		Status:      base.Reverse(true),
		StatusDirty: base.Reverse(true).Bold(true),
		StatusError: base.Background(tcell.ColorMaroon).Foreground(tcell.ColorWhite),
	}
}

// lineStyle resolves the style of the rune at col in an annotated line.
// fence is set for the opening and closing lines of a code block.
func (s Styles) lineStyle(ann format.LineAnnotation, col int, fade, fence bool) tcell.Style {
	marker := s.Marker
	if fade {
		marker = s.Faded
	}

	block := s.Text
	switch {
	case ann.Kind.IsHeading():
		block = s.Heading[ann.Kind.HeadingLevel()-1]
	case ann.Kind == format.CodeBlock && fence:
		return marker
	case ann.Kind == format.CodeBlock:
		return s.CodeBlock
	case ann.Kind == format.Quote:
		block = s.Quote
	}

	if col < ann.MarkerLen {
		if ann.Kind == format.ListItem {
			return s.ListMark
		}
		return marker
	}

	for _, span := range ann.Spans {
		if col < span.Start || col >= span.End {
			continue
		}
		if span.IsMarker(col) {
			return marker
		}
		switch span.Kind {
		case format.Bold:
			return block.Bold(true)
		case format.Italic:
			return block.Italic(true)
		case format.Code:
			return s.Code
		case format.Link:
			return s.Link
		}
	}
	return block
}
