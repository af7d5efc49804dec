package tree

import (
	"strings"
	"unicode/utf8"
)

// NodeType identifies the structural role of a node.
type NodeType uint8

const (
	// NodeRoot is the document container.
	NodeRoot NodeType = iota

	// NodeBlock is a line-level container.
	NodeBlock

	// NodeInline wraps a formatted span inside a block.
	NodeInline

	// NodeText is an editable text leaf.
	NodeText

	// NodeSymbol is a non-editable decoration leaf holding Markdown syntax.
	NodeSymbol
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeRoot:
		return "root"
	case NodeBlock:
		return "block"
	case NodeInline:
		return "inline"
	case NodeText:
		return "text"
	case NodeSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Node is a node of the live tree.
type Node struct {
	Type NodeType

	// Tag is the block kind for blocks and the span kind for inline wrappers.
	Tag string

	// Text is the content of Text and Symbol leaves.
	Text string

	parent   *Node
	children []*Node

	// formerParent and formerIndex record where a detached node last sat.
	formerParent *Node
	formerIndex  int
}

// NewText creates an editable text leaf.
func NewText(text string) *Node {
	return &Node{Type: NodeText, Text: text}
}

// NewSymbol creates a decoration leaf.
func NewSymbol(text string) *Node {
	return &Node{Type: NodeSymbol, Text: text}
}

// NewBlock creates a block container with the given kind tag and children.
func NewBlock(tag string, children ...*Node) *Node {
	n := &Node{Type: NodeBlock, Tag: tag}
	n.adopt(children)
	return n
}

// NewInline creates an inline wrapper with the given span tag and children.
func NewInline(tag string, children ...*Node) *Node {
	n := &Node{Type: NodeInline, Tag: tag}
	n.adopt(children)
	return n
}

// IsLeaf returns true for Text and Symbol nodes.
func (n *Node) IsLeaf() bool {
	return n.Type == NodeText || n.Type == NodeSymbol
}

// Parent returns the parent node, or nil for a detached node or the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Child returns the i-th child or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// IndexOf returns the position of child among n's children, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Len returns the number of runes of text below n.
// Block separators are not included.
func (n *Node) Len() int {
	if n.IsLeaf() {
		return utf8.RuneCountInString(n.Text)
	}
	total := 0
	for _, c := range n.children {
		total += c.Len()
	}
	return total
}

// TextContent returns the concatenated text below n.
// For the root, blocks are joined with a newline.
func (n *Node) TextContent() string {
	if n.IsLeaf() {
		return n.Text
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	if n.IsLeaf() {
		sb.WriteString(n.Text)
		return
	}
	for i, c := range n.children {
		if n.Type == NodeRoot && i > 0 {
			sb.WriteByte('\n')
		}
		c.writeText(sb)
	}
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Block returns the closest Block ancestor of n (n itself included).
func (n *Node) Block() *Node {
	for p := n; p != nil; p = p.parent {
		if p.Type == NodeBlock {
			return p
		}
	}
	return nil
}

// Leaves returns the Text and Symbol leaves below n in document order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.collectLeaves(&out)
	return out
}

func (n *Node) collectLeaves(out *[]*Node) {
	if n.IsLeaf() {
		*out = append(*out, n)
		return
	}
	for _, c := range n.children {
		c.collectLeaves(out)
	}
}

// adopt replaces n's children, detaching the previous ones.
func (n *Node) adopt(children []*Node) {
	for i, c := range n.children {
		if c.parent == n {
			c.detach(n, i)
		}
	}
	n.children = make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.parent != nil && c.parent != n {
			c.parent.removeChild(c)
		}
		c.parent, c.formerParent = n, nil
		n.children = append(n.children, c)
	}
}

func (n *Node) removeChild(child *Node) {
	i := n.IndexOf(child)
	if i < 0 {
		return
	}
	n.children = append(n.children[:i:i], n.children[i+1:]...)
	child.detach(n, i)
}

func (n *Node) detach(from *Node, index int) {
	n.parent = nil
	n.formerParent, n.formerIndex = from, index
}

// FormerPosition reports where a detached node sat before it was removed.
// ok is false for attached nodes and for nodes that were never attached.
func (n *Node) FormerPosition() (parent *Node, index int, ok bool) {
	if n.parent != nil || n.formerParent == nil {
		return nil, 0, false
	}
	return n.formerParent, n.formerIndex, true
}
