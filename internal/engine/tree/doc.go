// Package tree provides the live tree of editable nodes that backs the
// live-preview surface.
//
// A document is a Root node whose children are Block nodes, one per line of
// content. Blocks hold Text leaves, Symbol leaves and Inline wrappers:
//
//	Root
//	├── Block(heading-1)
//	│   ├── Symbol "#"
//	│   ├── Symbol " "
//	│   └── Text   "Title"
//	└── Block(paragraph)
//	    ├── Inline(bold)
//	    │   ├── Symbol "*"
//	    │   ├── Symbol "*"
//	    │   ├── Text   "word"
//	    │   ├── Symbol "*"
//	    │   └── Symbol "*"
//	    └── Text " tail"
//
// Symbol leaves carry the visually faded Markdown tokens. Each marker rune is
// its own leaf so that every content offset has a boundary position outside
// any decoration.
//
// # Surface
//
// Surface is the platform contract: a queryable and settable selection over a
// mutable node tree. Document is the in-memory implementation used by the
// terminal host and by tests. Hosts deliver composition start/end signals to
// the editor, not to the surface.
package tree
