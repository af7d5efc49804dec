// Package preview applies Markdown formatting to the live tree in place.
//
// A render pass classifies every line with the format package, compares the
// result against the structure the tree already has, and rewrites only the
// blocks whose structure differs. The pass is all-or-nothing: every block's
// new structure is computed and validated before the first mutation.
package preview

import (
	"errors"
	"fmt"

	"github.com/dshills/livemark/internal/engine/mapper"
	"github.com/dshills/livemark/internal/engine/tree"
	"github.com/dshills/livemark/internal/format"
	"github.com/dshills/livemark/internal/renderer/dirty"
)

// Annotator classifies the lines of a document.
type Annotator func(lines []string) ([]format.LineAnnotation, []format.Warning)

// Logger is the logging interface used by the renderer.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// RenderError reports a render pass that was abandoned without touching the tree.
type RenderError struct {
	Line int // -1 when the failure is not tied to a line
	Err  error
}

func (e *RenderError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("render: line %d: %v", e.Line+1, e.Err)
	}
	return fmt.Sprintf("render: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrLineMismatch is returned when the tree's blocks do not match its lines.
var ErrLineMismatch = errors.New("block count does not match line count")

// Result describes a completed render pass.
type Result struct {
	// Changed lists the lines whose blocks were rewritten.
	Changed     []int
	Annotations []format.LineAnnotation
	Warnings    []format.Warning
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAnnotator replaces format.Annotate as the line classifier.
func WithAnnotator(a Annotator) Option {
	return func(r *Renderer) {
		r.annotate = a
	}
}

// WithLogger sets the renderer's logger.
func WithLogger(l Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithDirty sets the tracker that receives rewritten lines.
func WithDirty(t *dirty.Tracker) Option {
	return func(r *Renderer) {
		r.dirty = t
	}
}

// Renderer keeps the live tree's structure in sync with its text.
type Renderer struct {
	mapper   *mapper.Mapper
	annotate Annotator
	dirty    *dirty.Tracker
	logger   Logger

	annotations []format.LineAnnotation
	warnings    []format.Warning
}

// New creates a renderer for the surface behind m.
func New(m *mapper.Mapper, opts ...Option) *Renderer {
	r := &Renderer{
		mapper:   m,
		annotate: format.Annotate,
		dirty:    dirty.NewTracker(),
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dirty returns the tracker holding lines rewritten by past passes.
func (r *Renderer) Dirty() *dirty.Tracker {
	return r.dirty
}

// Warnings returns the warnings of the last successful pass.
func (r *Renderer) Warnings() []format.Warning {
	return r.warnings
}

// Annotations returns the line annotations of the last successful pass.
func (r *Renderer) Annotations() []format.LineAnnotation {
	return r.annotations
}

// blockPlan is the pending rewrite of one block.
type blockPlan struct {
	line     int
	tag      string
	children []shape
}

// Apply runs one render pass.
//
// The selection is captured as content offsets before the pass and restored
// afterwards. A pass with nothing to change performs no mutation at all.
func (r *Renderer) Apply() (Result, error) {
	surface := r.mapper.Surface()
	root := surface.Root()
	lines := r.mapper.Lines()
	if len(lines) == 0 {
		lines = []string{""}
	}

	plans, anns, warns, err := r.plan(root, lines)
	if err != nil {
		r.logger.Warn("render pass abandoned: %v", err)
		return Result{}, err
	}

	sel, hasSel := r.mapper.Selection()
	if err := r.commit(surface, root, plans); err != nil {
		r.logger.Warn("render commit failed: %v", err)
		return Result{}, err
	}

	changed := make([]int, len(plans))
	for i, p := range plans {
		changed[i] = p.line
		r.dirty.MarkLine(p.line)
	}
	if len(plans) > 0 && hasSel {
		if sel.Backward {
			r.mapper.SelectRange(sel.End, sel.Start)
		} else {
			r.mapper.SelectRange(sel.Start, sel.End)
		}
	}
	if len(plans) > 0 {
		r.logger.Debug("rendered %d of %d lines", len(plans), len(lines))
	}

	r.annotations = anns
	r.warnings = warns
	return Result{Changed: changed, Annotations: anns, Warnings: warns}, nil
}

// plan computes the rewrite of every block whose structure changed.
// It never touches the tree.
func (r *Renderer) plan(root *tree.Node, lines []string) (plans []blockPlan, anns []format.LineAnnotation, warns []format.Warning, err error) {
	defer func() {
		if p := recover(); p != nil {
			plans, anns, warns = nil, nil, nil
			err = &RenderError{Line: -1, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	blocks := root.Children()
	if len(blocks) > 0 && len(blocks) != len(lines) {
		return nil, nil, nil, &RenderError{Line: -1, Err: ErrLineMismatch}
	}

	anns, warns = r.annotate(lines)
	if len(anns) != len(lines) {
		return nil, nil, nil, &RenderError{Line: -1, Err: fmt.Errorf("annotator returned %d annotations for %d lines", len(anns), len(lines))}
	}

	for i, line := range lines {
		children, err := blockShape(line, anns[i])
		if err != nil {
			return nil, nil, nil, &RenderError{Line: i, Err: err}
		}
		tag := anns[i].Kind.String()
		if len(blocks) > 0 && signature(tag, children) == nodeSignature(blocks[i]) {
			continue
		}
		plans = append(plans, blockPlan{line: i, tag: tag, children: children})
	}
	return plans, anns, warns, nil
}

func (r *Renderer) commit(surface mapper.Surface, root *tree.Node, plans []blockPlan) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RenderError{Line: -1, Err: fmt.Errorf("commit panic: %v", p)}
		}
	}()

	if root.ChildCount() == 0 && len(plans) > 0 {
		p := plans[0]
		block := tree.NewBlock(p.tag, materialize(p.children, "", leafPool{})...)
		surface.ReplaceBlocks(0, 0, []*tree.Node{block})
		return nil
	}

	for _, p := range plans {
		block := root.Child(p.line)
		pool := newLeafPool(block)
		surface.SetTag(block, p.tag)
		surface.SetChildren(block, materialize(p.children, "", pool))
	}
	return nil
}
