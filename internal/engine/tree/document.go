package tree

import (
	"strings"
	"sync"
)

// BlockParagraph is the tag given to blocks created from plain lines.
const BlockParagraph = "paragraph"

// Point is a position inside the tree.
// For leaves, Offset is a rune offset into the leaf text.
// For containers, Offset is a child index: the position just before that child.
type Point struct {
	Node   *Node
	Offset int
}

// IsZero returns true if the point does not reference a node.
func (p Point) IsZero() bool {
	return p.Node == nil
}

// Surface is the editable-text platform contract.
type Surface interface {
	// Root returns the root of the mutable node tree.
	Root() *Node

	// Selection returns the native selection. ok is false when the platform
	// has no selection inside the surface.
	Selection() (anchor, focus Point, ok bool)

	// SetSelection sets the native selection.
	SetSelection(anchor, focus Point)
}

// Mutator is implemented by surfaces that allow the core to rewrite the tree.
type Mutator interface {
	// ReplaceBlocks replaces blocks [from, to) with the given blocks.
	ReplaceBlocks(from, to int, blocks []*Node)

	// SetChildren replaces the children of a container node.
	SetChildren(n *Node, children []*Node)

	// SetTag changes a node's tag.
	SetTag(n *Node, tag string)

	// SetText changes a leaf's text.
	SetText(n *Node, text string)
}

// Document is an in-memory Surface.
// It counts mutations so callers can observe whether a pass touched the tree.
type Document struct {
	mu sync.Mutex

	root    *Node
	anchor  Point
	focus   Point
	hasSel  bool
	version uint64
}

// NewDocument creates a document with one paragraph block per line of content.
func NewDocument(content string) *Document {
	d := &Document{root: &Node{Type: NodeRoot}}
	d.root.adopt(BlocksFromText(content))
	return d
}

// BlocksFromText builds plain paragraph blocks for each line of text.
// An empty string yields a single empty block.
func BlocksFromText(text string) []*Node {
	lines := strings.Split(text, "\n")
	blocks := make([]*Node, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, PlainBlock(line))
	}
	return blocks
}

// PlainBlock builds an unannotated paragraph block for a single line.
func PlainBlock(line string) *Node {
	if line == "" {
		return NewBlock(BlockParagraph)
	}
	return NewBlock(BlockParagraph, NewText(line))
}

// Root implements Surface.
func (d *Document) Root() *Node {
	return d.root
}

// Selection implements Surface.
func (d *Document) Selection() (Point, Point, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.anchor, d.focus, d.hasSel
}

// SetSelection implements Surface.
func (d *Document) SetSelection(anchor, focus Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anchor = anchor
	d.focus = focus
	d.hasSel = !anchor.IsZero() && !focus.IsZero()
}

// ClearSelection removes the native selection, as when the surface loses focus.
func (d *Document) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anchor, d.focus, d.hasSel = Point{}, Point{}, false
}

// Version returns the number of mutations applied so far.
func (d *Document) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Text returns the document content.
func (d *Document) Text() string {
	return d.root.TextContent()
}

// ReplaceBlocks implements Mutator.
func (d *Document) ReplaceBlocks(from, to int, blocks []*Node) {
	n := len(d.root.children)
	from = clamp(from, 0, n)
	to = clamp(to, from, n)

	next := make([]*Node, 0, n-(to-from)+len(blocks))
	next = append(next, d.root.children[:from]...)
	next = append(next, blocks...)
	next = append(next, d.root.children[to:]...)
	d.root.adopt(next)
	d.bump()
}

// SetChildren implements Mutator.
func (d *Document) SetChildren(n *Node, children []*Node) {
	n.adopt(children)
	d.bump()
}

// SetTag implements Mutator.
func (d *Document) SetTag(n *Node, tag string) {
	if n.Tag == tag {
		return
	}
	n.Tag = tag
	d.bump()
}

// SetText implements Mutator.
func (d *Document) SetText(n *Node, text string) {
	if n.Text == text {
		return
	}
	n.Text = text
	d.bump()
}

func (d *Document) bump() {
	d.mu.Lock()
	d.version++
	d.mu.Unlock()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
