package preview

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/livemark/internal/engine/mapper"
	"github.com/dshills/livemark/internal/engine/tree"
	"github.com/dshills/livemark/internal/format"
)

func newRenderer(content string, opts ...Option) (*tree.Document, *mapper.Mapper, *Renderer) {
	doc := tree.NewDocument(content)
	m := mapper.New(doc)
	return doc, m, New(m, opts...)
}

func leafTexts(n *tree.Node) []string {
	var out []string
	for _, l := range n.Leaves() {
		out = append(out, l.Type.String()+":"+l.Text)
	}
	return out
}

func findLeaf(n *tree.Node, text string) *tree.Node {
	for _, l := range n.Leaves() {
		if l.Type == tree.NodeText && l.Text == text {
			return l
		}
	}
	return nil
}

func TestApplyAnnotatesBlocks(t *testing.T) {
	doc, _, r := newRenderer("# Title\nsome **bold** text\n- item")

	res, err := r.Apply()
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !reflect.DeepEqual(res.Changed, []int{0, 1, 2}) {
		t.Errorf("Changed = %v, want [0 1 2]", res.Changed)
	}

	blocks := doc.Root().Children()
	wantTags := []string{"heading-1", "paragraph", "list-item"}
	for i, want := range wantTags {
		if blocks[i].Tag != want {
			t.Errorf("block %d tag = %q, want %q", i, blocks[i].Tag, want)
		}
	}

	if got, want := leafTexts(blocks[0]), []string{"symbol:#", "symbol: ", "text:Title"}; !reflect.DeepEqual(got, want) {
		t.Errorf("heading leaves = %v, want %v", got, want)
	}

	bold := blocks[1].Child(1)
	if bold == nil || bold.Type != tree.NodeInline || bold.Tag != "bold" {
		t.Fatalf("expected bold wrapper, got %+v", bold)
	}
	if got := bold.TextContent(); got != "**bold**" {
		t.Errorf("bold content = %q, want %q", got, "**bold**")
	}
	if doc.Text() != "# Title\nsome **bold** text\n- item" {
		t.Errorf("rendering changed the text: %q", doc.Text())
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	doc, _, r := newRenderer("## Sub\n> quote with `code`\n```\nx := 1\n```")

	if _, err := r.Apply(); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	v := doc.Version()

	res, err := r.Apply()
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if len(res.Changed) != 0 {
		t.Errorf("second Apply() changed %v", res.Changed)
	}
	if doc.Version() != v {
		t.Errorf("Version() = %d, want %d", doc.Version(), v)
	}
}

func TestApplyReusesUnchangedLeaves(t *testing.T) {
	doc, m, r := newRenderer("**a** b *c")
	if _, err := r.Apply(); err != nil {
		t.Fatal(err)
	}
	inner := findLeaf(doc.Root(), "a")
	if inner == nil {
		t.Fatal("bold text leaf not found")
	}

	m.ReplaceRange(m.Len(), m.Len(), "*", mapper.ReplaceOptions{MoveCursorToEnd: true})
	res, err := r.Apply()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Changed, []int{0}) {
		t.Errorf("Changed = %v, want [0]", res.Changed)
	}
	if findLeaf(doc.Root(), "a") != inner {
		t.Error("unchanged bold text leaf was recreated")
	}
	if inner.Parent() == nil || inner.Parent().Tag != "bold" {
		t.Error("reused leaf lost its wrapper")
	}
}

func TestTypingBesideDecorationKeepsLeaves(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"after closing marker", 8, "**bold**x"},
		{"before opening marker", 0, "x**bold**"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, m, r := newRenderer("**bold**")
			if _, err := r.Apply(); err != nil {
				t.Fatal(err)
			}
			leaf := findLeaf(doc.Root(), "bold")
			if leaf == nil {
				t.Fatal("bold text leaf not found")
			}
			block := doc.Root().Child(0)

			m.SetCursor(tt.offset)
			m.InsertText("x")
			if _, err := r.Apply(); err != nil {
				t.Fatal(err)
			}
			if got := doc.Text(); got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
			if doc.Root().Child(0) != block {
				t.Error("block was recreated")
			}
			if findLeaf(doc.Root(), "bold") != leaf {
				t.Error("unchanged bold text leaf was recreated")
			}
			if sel := m.SelectionInfo(); sel.Start != tt.offset+1 || !sel.IsEmpty() {
				t.Errorf("SelectionInfo() = %+v, want cursor at %d", sel, tt.offset+1)
			}
		})
	}
}

func TestApplyPreservesSelection(t *testing.T) {
	_, m, r := newRenderer("plain *it* and more")
	m.SelectRange(12, 7)

	if _, err := r.Apply(); err != nil {
		t.Fatal(err)
	}
	sel := m.SelectionInfo()
	if sel.Start != 7 || sel.End != 12 || !sel.Backward {
		t.Errorf("SelectionInfo() = %+v, want backward [7,12)", sel)
	}

	for o := 0; o <= m.Len(); o++ {
		m.SetCursor(o)
		if got := m.SelectionInfo(); got.Start != o || got.End != o {
			t.Errorf("SetCursor(%d) round-trips to %+v", o, got)
		}
	}
}

func TestApplyRollsBackOnBadAnnotation(t *testing.T) {
	bad := func(lines []string) ([]format.LineAnnotation, []format.Warning) {
		anns, warns := format.Annotate(lines)
		anns[1].MarkerLen = 99
		return anns, warns
	}
	doc, _, r := newRenderer("# ok\nbroken", WithAnnotator(bad))
	v := doc.Version()

	_, err := r.Apply()
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("Apply() error = %v, want *RenderError", err)
	}
	if re.Line != 1 {
		t.Errorf("RenderError.Line = %d, want 1", re.Line)
	}
	if doc.Version() != v {
		t.Error("failed pass mutated the tree")
	}
	if doc.Root().Child(0).Tag != tree.BlockParagraph {
		t.Error("first block was annotated despite the failure")
	}
}

func TestApplyRecoversFromPanic(t *testing.T) {
	boom := func([]string) ([]format.LineAnnotation, []format.Warning) {
		panic("boom")
	}
	doc, _, r := newRenderer("# title", WithAnnotator(boom))
	v := doc.Version()

	_, err := r.Apply()
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("Apply() error = %v, want *RenderError", err)
	}
	if doc.Version() != v {
		t.Error("panicking pass mutated the tree")
	}
}

func TestApplyMarksDirtyLines(t *testing.T) {
	_, m, r := newRenderer("a\nb\nc")
	if _, err := r.Apply(); err != nil {
		t.Fatal(err)
	}
	r.Dirty().Clear()

	m.ReplaceRange(2, 3, "## b", mapper.ReplaceOptions{})
	if _, err := r.Apply(); err != nil {
		t.Fatal(err)
	}
	if got := r.Dirty().Take(3); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("dirty lines = %v, want [1]", got)
	}
}

func TestApplyReportsWarnings(t *testing.T) {
	_, _, r := newRenderer("# One\n# Two")
	res, err := r.Apply()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != format.WarnMultipleH1 {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("Warnings() = %v", r.Warnings())
	}
}

func TestApplyEmptyDocument(t *testing.T) {
	doc, m, r := newRenderer("")
	if _, err := r.Apply(); err != nil {
		t.Fatal(err)
	}
	m.SetCursor(0)
	if got := m.SelectionInfo(); got.Start != 0 {
		t.Errorf("cursor = %d, want 0", got.Start)
	}
	if doc.Root().ChildCount() != 1 {
		t.Errorf("ChildCount() = %d, want 1", doc.Root().ChildCount())
	}
}
