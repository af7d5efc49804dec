package preview

import (
	"fmt"
	"strings"

	"github.com/dshills/livemark/internal/engine/tree"
	"github.com/dshills/livemark/internal/format"
)

// shape is the desired structure of a node, computed before any node is
// created so an unchanged block costs no allocation in the tree.
type shape struct {
	typ      tree.NodeType
	tag      string
	text     string
	children []shape
}

// blockShape computes the desired children of a block for one annotated line.
func blockShape(line string, a format.LineAnnotation) ([]shape, error) {
	r := []rune(line)
	n := len(r)
	if a.MarkerLen < 0 || a.MarkerLen > n {
		return nil, fmt.Errorf("line %d: block marker length %d out of range", a.LineIndex, a.MarkerLen)
	}

	var out []shape
	out = appendSymbols(out, r[:a.MarkerLen])

	pos := a.MarkerLen
	for _, span := range a.Spans {
		if span.Start < pos || span.End > n || span.Start >= span.End {
			return nil, fmt.Errorf("line %d: %s span [%d,%d) out of order or range", a.LineIndex, span.Kind, span.Start, span.End)
		}
		out = appendText(out, r[pos:span.Start])

		inline, err := spanShape(r, span)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", a.LineIndex, err)
		}
		out = append(out, inline)
		pos = span.End
	}
	out = appendText(out, r[pos:])
	return out, nil
}

func spanShape(r []rune, span format.InlineSpan) (shape, error) {
	s := shape{typ: tree.NodeInline, tag: span.Kind.String()}
	pos := span.Start
	for _, m := range span.Markers {
		if m.Start < pos || m.End > span.End || m.Start > m.End {
			return shape{}, fmt.Errorf("%s marker [%d,%d) outside span", span.Kind, m.Start, m.End)
		}
		s.children = appendText(s.children, r[pos:m.Start])
		s.children = appendSymbols(s.children, r[m.Start:m.End])
		pos = m.End
	}
	s.children = appendText(s.children, r[pos:span.End])
	return s, nil
}

// appendSymbols adds one symbol leaf per rune.
func appendSymbols(out []shape, r []rune) []shape {
	for _, c := range r {
		out = append(out, shape{typ: tree.NodeSymbol, text: string(c)})
	}
	return out
}

func appendText(out []shape, r []rune) []shape {
	if len(r) == 0 {
		return out
	}
	return append(out, shape{typ: tree.NodeText, text: string(r)})
}

// signature serializes a block's desired structure.
func signature(tag string, children []shape) string {
	var sb strings.Builder
	sb.WriteString(tag)
	for _, c := range children {
		writeShape(&sb, c)
	}
	return sb.String()
}

func writeShape(sb *strings.Builder, s shape) {
	switch s.typ {
	case tree.NodeText:
		fmt.Fprintf(sb, "|t%q", s.text)
	case tree.NodeSymbol:
		fmt.Fprintf(sb, "|s%q", s.text)
	default:
		fmt.Fprintf(sb, "|%s(", s.tag)
		for _, c := range s.children {
			writeShape(sb, c)
		}
		sb.WriteString(")")
	}
}

// nodeSignature serializes a block's current structure in the same format.
func nodeSignature(block *tree.Node) string {
	var sb strings.Builder
	sb.WriteString(block.Tag)
	for _, c := range block.Children() {
		writeNode(&sb, c)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n *tree.Node) {
	switch n.Type {
	case tree.NodeText:
		fmt.Fprintf(sb, "|t%q", n.Text)
	case tree.NodeSymbol:
		fmt.Fprintf(sb, "|s%q", n.Text)
	default:
		fmt.Fprintf(sb, "|%s(", n.Tag)
		for _, c := range n.Children() {
			writeNode(sb, c)
		}
		sb.WriteString(")")
	}
}

// leafPool hands out existing leaves of a block for reuse, keyed by type,
// enclosing span and text, so a leaf whose classification did not change
// survives the rebuild.
type leafPool map[string][]*tree.Node

func newLeafPool(block *tree.Node) leafPool {
	pool := make(leafPool)
	for _, leaf := range block.Leaves() {
		key := poolKey(leaf.Type, enclosingTag(leaf, block), leaf.Text)
		pool[key] = append(pool[key], leaf)
	}
	return pool
}

func (p leafPool) take(typ tree.NodeType, parentTag, text string) *tree.Node {
	key := poolKey(typ, parentTag, text)
	leaves := p[key]
	if len(leaves) == 0 {
		return nil
	}
	p[key] = leaves[1:]
	return leaves[0]
}

func poolKey(typ tree.NodeType, parentTag, text string) string {
	return typ.String() + "\x00" + parentTag + "\x00" + text
}

func enclosingTag(leaf, block *tree.Node) string {
	if p := leaf.Parent(); p != nil && p != block {
		return p.Tag
	}
	return ""
}

// materialize turns shapes into nodes, reusing pooled leaves.
func materialize(shapes []shape, parentTag string, pool leafPool) []*tree.Node {
	out := make([]*tree.Node, 0, len(shapes))
	for _, s := range shapes {
		switch s.typ {
		case tree.NodeText:
			if leaf := pool.take(tree.NodeText, parentTag, s.text); leaf != nil {
				out = append(out, leaf)
				continue
			}
			out = append(out, tree.NewText(s.text))
		case tree.NodeSymbol:
			if leaf := pool.take(tree.NodeSymbol, parentTag, s.text); leaf != nil {
				out = append(out, leaf)
				continue
			}
			out = append(out, tree.NewSymbol(s.text))
		default:
			out = append(out, tree.NewInline(s.tag, materialize(s.children, s.tag, pool)...))
		}
	}
	return out
}
