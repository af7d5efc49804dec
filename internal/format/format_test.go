package format

import (
	"reflect"
	"testing"
)

func TestDetectLineType(t *testing.T) {
	tests := []struct {
		line string
		want BlockKind
	}{
		{"# Title", Heading1},
		{"## Title", Heading2},
		{"### Sub", Heading3},
		{"#### Too deep", Paragraph},
		{"#", Heading1},
		{"#hashtag", Paragraph},
		{"   ## indented", Heading2},
		{"    ## code indent", Paragraph},
		{"- item", ListItem},
		{"* item", ListItem},
		{"+ item", ListItem},
		{"  - nested", ListItem},
		{"1. first", ListItem},
		{"12) twelfth", ListItem},
		{"1.no space", Paragraph},
		{"> quoted", Quote},
		{">", Quote},
		{"```go", CodeBlock},
		{"```", CodeBlock},
		{"plain text", Paragraph},
		{"", Paragraph},
		{"-not a list", Paragraph},
	}
	for _, tt := range tests {
		if got := DetectLineType(tt.line); got != tt.want {
			t.Errorf("DetectLineType(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestBlockKindString(t *testing.T) {
	for k := Paragraph; k <= CodeBlock; k++ {
		parsed, ok := ParseBlockKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseBlockKind(%q) = %v, %v", k.String(), parsed, ok)
		}
	}
	if _, ok := ParseBlockKind("heading-4"); ok {
		t.Error("heading-4 should not parse")
	}
}

func TestBlockMarkerLen(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"# Title", 2},
		{"### Sub", 4},
		{"#", 1},
		{"- item", 2},
		{"  10. item", 6},
		{"> quote", 2},
		{">quote", 1},
		{"```js", 3},
		{"plain", 0},
	}
	for _, tt := range tests {
		kind := DetectLineType(tt.line)
		if got := BlockMarkerLen(tt.line, kind); got != tt.want {
			t.Errorf("BlockMarkerLen(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestMarkInlineFormats(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []InlineSpan
	}{
		{
			name: "bold",
			line: "**bold**",
			want: []InlineSpan{{Kind: Bold, Start: 0, End: 8, Markers: []Range{{0, 2}, {6, 8}}}},
		},
		{
			name: "italic and bold",
			line: "*it* and **b**",
			want: []InlineSpan{
				{Kind: Italic, Start: 0, End: 4, Markers: []Range{{0, 1}, {3, 4}}},
				{Kind: Bold, Start: 9, End: 14, Markers: []Range{{9, 11}, {12, 14}}},
			},
		},
		{
			name: "code",
			line: "run `go test` now",
			want: []InlineSpan{{Kind: Code, Start: 4, End: 13, Markers: []Range{{4, 5}, {12, 13}}}},
		},
		{
			name: "link",
			line: "see [docs](http://x.io)",
			want: []InlineSpan{{Kind: Link, Start: 4, End: 23, Markers: []Range{{4, 5}, {9, 11}, {22, 23}}}},
		},
		{
			name: "code hides emphasis",
			line: "`**not bold**`",
			want: []InlineSpan{{Kind: Code, Start: 0, End: 14, Markers: []Range{{0, 1}, {13, 14}}}},
		},
		{
			name: "unicode offsets are runes",
			line: "é **ü**",
			want: []InlineSpan{{Kind: Bold, Start: 2, End: 7, Markers: []Range{{2, 4}, {5, 7}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkInlineFormats(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MarkInlineFormats(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestUnterminatedMarkersArePlain(t *testing.T) {
	lines := []string{
		"**",
		"**bold",
		"*open",
		"`code",
		"[text",
		"[text](no close",
		"a * b * c",
		"** spaced **",
		"**",
	}
	for _, line := range lines {
		if got := MarkInlineFormats(line); len(got) != 0 {
			t.Errorf("MarkInlineFormats(%q) = %+v, want none", line, got)
		}
	}
}

func TestSpanAt(t *testing.T) {
	line := "x **bold** y"
	s, ok := SpanAt(line, 5)
	if !ok || s.Kind != Bold {
		t.Fatalf("SpanAt(5) = %+v, %v", s, ok)
	}
	if inner := s.Inner(); inner.Start != 4 || inner.End != 8 {
		t.Errorf("Inner() = %+v, want [4,8)", inner)
	}
	if !s.IsMarker(2) || s.IsMarker(4) {
		t.Error("IsMarker mismatch")
	}
	if _, ok := SpanAt(line, 11); ok {
		t.Error("SpanAt(11) should find nothing")
	}
}

func TestAnnotateFences(t *testing.T) {
	lines := []string{
		"# Title",
		"```",
		"# not a heading",
		"**not bold**",
		"```",
		"**bold** again",
	}
	anns, warnings := Annotate(lines)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	kinds := []BlockKind{Heading1, CodeBlock, CodeBlock, CodeBlock, CodeBlock, Paragraph}
	for i, want := range kinds {
		if anns[i].Kind != want {
			t.Errorf("line %d kind = %v, want %v", i, anns[i].Kind, want)
		}
	}
	if len(anns[3].Spans) != 0 {
		t.Error("spans inside fence should be suppressed")
	}
	if len(anns[5].Spans) != 1 {
		t.Errorf("line 5 spans = %d, want 1", len(anns[5].Spans))
	}
}

func TestAnnotateShiftsSpansPastMarker(t *testing.T) {
	anns, _ := Annotate([]string{"## a *b*"})
	a := anns[0]
	if a.Kind != Heading2 || a.MarkerLen != 3 {
		t.Fatalf("annotation = %+v", a)
	}
	want := InlineSpan{Kind: Italic, Start: 5, End: 8, Markers: []Range{{5, 6}, {7, 8}}}
	if len(a.Spans) != 1 || !reflect.DeepEqual(a.Spans[0], want) {
		t.Errorf("Spans = %+v, want %+v", a.Spans, want)
	}
}

func TestAnnotateListMarkerIsNotItalic(t *testing.T) {
	anns, _ := Annotate([]string{"* item with *em*"})
	a := anns[0]
	if a.Kind != ListItem || a.MarkerLen != 2 {
		t.Fatalf("annotation = %+v", a)
	}
	if len(a.Spans) != 1 || a.Spans[0].Start != 12 {
		t.Errorf("Spans = %+v", a.Spans)
	}
}

func TestAnnotateMultipleH1Warns(t *testing.T) {
	anns, warnings := Annotate([]string{"# One", "text", "# Two", "# Three"})
	if len(warnings) != 2 {
		t.Fatalf("warnings = %d, want 2", len(warnings))
	}
	for _, w := range warnings {
		if w.Code != WarnMultipleH1 {
			t.Errorf("warning code = %q", w.Code)
		}
	}
	if anns[2].Kind != Heading1 {
		t.Error("extra heading-1 must not be demoted")
	}
}

func TestAnnotateUnclosedFence(t *testing.T) {
	_, warnings := Annotate([]string{"text", "```", "code"})
	if len(warnings) != 1 || warnings[0].Code != WarnUnclosedFence || warnings[0].Line != 1 {
		t.Errorf("warnings = %+v", warnings)
	}
}

func TestOutline(t *testing.T) {
	lines := []string{
		"### orphan",
		"# Title",
		"## Part A",
		"### A.1",
		"### A.2",
		"## Part B",
		"#### too deep",
	}
	anns, _ := Annotate(lines)
	got := Outline(lines, anns)
	if len(got) != 4 {
		t.Fatalf("top level = %d, want 4: %+v", len(got), got)
	}
	if got[0].Title != "orphan" || got[0].Level != 3 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[2].Title != "Part A" || len(got[2].Children) != 2 {
		t.Errorf("Part A = %+v", got[2])
	}
	if got[3].Title != "Part B" || len(got[3].Children) != 0 {
		t.Errorf("Part B = %+v", got[3])
	}
}
