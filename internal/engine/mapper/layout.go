package mapper

import "github.com/dshills/livemark/internal/engine/tree"

// span is a half-open range of content offsets.
type span struct {
	start, end int
}

// layout is a snapshot of where every node sits in content coordinates.
// It is rebuilt on every query: the tree is the only thing synchronized with
// the native cursor, so cached offsets would go stale after host mutations.
type layout struct {
	root   *tree.Node
	spans  map[*tree.Node]span
	blocks []*tree.Node
	total  int
}

func buildLayout(root *tree.Node) *layout {
	l := &layout{
		root:  root,
		spans: make(map[*tree.Node]span),
	}
	pos := 0
	for i, b := range root.Children() {
		if i > 0 {
			pos++ // implicit line separator
		}
		pos = l.visit(b, pos)
		l.blocks = append(l.blocks, b)
	}
	l.spans[root] = span{0, pos}
	l.total = pos
	return l
}

func (l *layout) visit(n *tree.Node, pos int) int {
	start := pos
	if n.IsLeaf() {
		pos += n.Len()
	} else {
		for _, c := range n.Children() {
			pos = l.visit(c, pos)
		}
	}
	l.spans[n] = span{start, pos}
	return pos
}

// blockAt returns the index of the block containing offset.
// A block's end offset belongs to it; the separator that follows does not.
func (l *layout) blockAt(offset int) int {
	for i, b := range l.blocks {
		if offset <= l.spans[b].end {
			return i
		}
	}
	return len(l.blocks) - 1
}

// offset converts a point to a content offset.
// Points referencing nodes outside the tree resolve to the position their
// detached ancestor last held.
func (l *layout) offset(p tree.Point) int {
	if p.Node == nil {
		return 0
	}
	s, ok := l.spans[p.Node]
	if !ok {
		return l.staleOffset(p.Node)
	}
	if p.Node.IsLeaf() {
		return s.start + clampInt(p.Offset, 0, s.end-s.start)
	}
	idx := clampInt(p.Offset, 0, p.Node.ChildCount())
	if idx == p.Node.ChildCount() {
		return s.end
	}
	return l.spans[p.Node.Child(idx)].start
}

// staleOffset walks up from a detached node to the nearest former parent
// that is still in the tree and returns the boundary at the node's old index.
func (l *layout) staleOffset(n *tree.Node) int {
	seen := make(map[*tree.Node]bool)
	for n != nil && !seen[n] {
		seen[n] = true
		if n.Parent() != nil {
			n = n.Parent()
			continue
		}
		parent, index, ok := n.FormerPosition()
		if !ok {
			break
		}
		if _, live := l.spans[parent]; live {
			return l.offset(tree.Point{Node: parent, Offset: index})
		}
		n = parent
	}
	return l.total
}

// locate converts a content offset to a point that is never inside a symbol.
func (l *layout) locate(offset int) tree.Point {
	offset = clampInt(offset, 0, l.total)
	if len(l.blocks) == 0 {
		return tree.Point{Node: l.root, Offset: 0}
	}

	block := l.blocks[l.blockAt(offset)]
	leaves := block.Leaves()
	if len(leaves) == 0 {
		return tree.Point{Node: block, Offset: 0}
	}

	var ending, starting *tree.Node
	for _, leaf := range leaves {
		s := l.spans[leaf]
		if s.start < offset && offset < s.end {
			if leaf.Type == tree.NodeText {
				return tree.Point{Node: leaf, Offset: offset - s.start}
			}
			// Inside a multi-rune decoration: snap to the nearer edge.
			if offset-s.start <= s.end-offset {
				return l.locate(s.start)
			}
			return l.locate(s.end)
		}
		if leaf.Type != tree.NodeText {
			continue
		}
		if s.end == offset && ending == nil {
			ending = leaf
		}
		if s.start == offset && starting == nil {
			starting = leaf
		}
	}
	if ending != nil {
		return tree.Point{Node: ending, Offset: ending.Len()}
	}
	if starting != nil {
		return tree.Point{Node: starting, Offset: 0}
	}

	// Only decorations touch this offset: use the boundary between leaves.
	for _, leaf := range leaves {
		if l.spans[leaf].start >= offset {
			parent := leaf.Parent()
			return tree.Point{Node: parent, Offset: parent.IndexOf(leaf)}
		}
	}
	last := leaves[len(leaves)-1]
	parent := last.Parent()
	return tree.Point{Node: parent, Offset: parent.IndexOf(last) + 1}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
