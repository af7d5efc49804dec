package format

import "fmt"

// LineAnnotation is the derived formatting of one line.
// Annotations are recomputed on every render pass and never persisted.
type LineAnnotation struct {
	LineIndex int
	Kind      BlockKind
	MarkerLen int // runes of leading block syntax, e.g. 2 for "# "
	Spans     []InlineSpan
}

// Warning codes.
const (
	// WarnMultipleH1 flags a heading-1 after the first one.
	WarnMultipleH1 = "multiple-h1"

	// WarnUnclosedFence flags a code fence that runs to the end of the document.
	WarnUnclosedFence = "unclosed-fence"
)

// Warning is a non-fatal structural problem found while annotating.
type Warning struct {
	Line    int
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line+1, w.Message)
}

// Annotate classifies every line of a document.
//
// Fence lines toggle code context: lines inside a fence are code blocks and
// carry no inline spans. Only the first heading-1 is the document title;
// later ones are kept as headings and reported as warnings.
func Annotate(lines []string) ([]LineAnnotation, []Warning) {
	out := make([]LineAnnotation, len(lines))
	var warnings []Warning

	inFence := false
	fenceLine := -1
	titleLine := -1

	for i, line := range lines {
		a := LineAnnotation{LineIndex: i}
		switch {
		case IsFence(line):
			a.Kind = CodeBlock
			a.MarkerLen = BlockMarkerLen(line, CodeBlock)
			inFence = !inFence
			if inFence {
				fenceLine = i
			}
		case inFence:
			a.Kind = CodeBlock
		default:
			a.Kind = DetectLineType(line)
			a.MarkerLen = BlockMarkerLen(line, a.Kind)
			a.Spans = MarkInlineFormats(string([]rune(line)[a.MarkerLen:]))
			for j := range a.Spans {
				a.Spans[j] = shiftSpan(a.Spans[j], a.MarkerLen)
			}
		}

		if a.Kind == Heading1 {
			if titleLine < 0 {
				titleLine = i
			} else {
				warnings = append(warnings, Warning{
					Line:    i,
					Code:    WarnMultipleH1,
					Message: fmt.Sprintf("additional heading-1 (title already on line %d)", titleLine+1),
				})
			}
		}
		out[i] = a
	}

	if inFence {
		warnings = append(warnings, Warning{
			Line:    fenceLine,
			Code:    WarnUnclosedFence,
			Message: "code fence is never closed",
		})
	}
	return out, warnings
}

func shiftSpan(s InlineSpan, by int) InlineSpan {
	if by == 0 {
		return s
	}
	s.Start += by
	s.End += by
	markers := make([]Range, len(s.Markers))
	for i, m := range s.Markers {
		markers[i] = Range{Start: m.Start + by, End: m.End + by}
	}
	s.Markers = markers
	return s
}
