// Package dirty tracks which document lines changed since a host last
// repainted. The live renderer marks the lines it rewrites; hosts drain the
// tracker and redraw only those lines.
package dirty

// Region is an inclusive range of document lines.
type Region struct {
	StartLine int
	EndLine   int
}

// NewLineRegion creates a region covering lines start through end.
func NewLineRegion(start, end int) Region {
	if end < start {
		start, end = end, start
	}
	return Region{StartLine: start, EndLine: end}
}

// NewSingleLine creates a region for a single line.
func NewSingleLine(line int) Region {
	return Region{StartLine: line, EndLine: line}
}

// IsEmpty returns true if the region covers no lines.
func (r Region) IsEmpty() bool {
	return r.StartLine > r.EndLine || r.EndLine < 0
}

// LineCount returns the number of lines covered by the region.
func (r Region) LineCount() int {
	if r.IsEmpty() {
		return 0
	}
	return r.EndLine - r.StartLine + 1
}

// ContainsLine returns true if the region covers the given line.
func (r Region) ContainsLine(line int) bool {
	return line >= r.StartLine && line <= r.EndLine
}

// Merge combines two overlapping or adjacent regions.
// ok is false when they are disjoint.
func (r Region) Merge(other Region) (Region, bool) {
	if r.EndLine+1 < other.StartLine || other.EndLine+1 < r.StartLine {
		return Region{}, false
	}
	return Region{
		StartLine: min(r.StartLine, other.StartLine),
		EndLine:   max(r.EndLine, other.EndLine),
	}, true
}
