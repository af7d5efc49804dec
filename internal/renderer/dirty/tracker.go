package dirty

import (
	"sort"
	"sync"
)

// Tracker collects dirty line regions and coalesces them.
type Tracker struct {
	mu sync.RWMutex

	regions    []Region
	fullRedraw bool

	// maxRegions is the number of disjoint regions before forcing a full redraw.
	maxRegions int
}

// NewTracker creates a new dirty line tracker.
func NewTracker() *Tracker {
	return &Tracker{
		regions:    make([]Region, 0, 16),
		maxRegions: 32,
	}
}

// MarkFullRedraw marks every line as needing a redraw.
func (t *Tracker) MarkFullRedraw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fullRedraw = true
	t.regions = t.regions[:0]
}

// MarkLine marks a single line as dirty.
func (t *Tracker) MarkLine(line int) {
	t.MarkRegion(NewSingleLine(line))
}

// MarkLines marks lines start through end as dirty.
func (t *Tracker) MarkLines(start, end int) {
	t.MarkRegion(NewLineRegion(start, end))
}

// MarkRegion marks a region as dirty.
func (t *Tracker) MarkRegion(region Region) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fullRedraw || region.IsEmpty() {
		return
	}
	if region.StartLine < 0 {
		region.StartLine = 0
	}

	for i := range t.regions {
		if merged, ok := t.regions[i].Merge(region); ok {
			t.regions[i] = merged
			t.coalesce()
			return
		}
	}
	t.regions = append(t.regions, region)

	if len(t.regions) > t.maxRegions {
		t.fullRedraw = true
		t.regions = t.regions[:0]
	}
}

// coalesce merges regions that grew into each other.
func (t *Tracker) coalesce() {
	if len(t.regions) <= 1 {
		return
	}
	sort.Slice(t.regions, func(i, j int) bool {
		return t.regions[i].StartLine < t.regions[j].StartLine
	})
	out := t.regions[:1]
	for _, r := range t.regions[1:] {
		if merged, ok := out[len(out)-1].Merge(r); ok {
			out[len(out)-1] = merged
			continue
		}
		out = append(out, r)
	}
	t.regions = out
}

// IsDirty returns true if anything is marked dirty.
func (t *Tracker) IsDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullRedraw || len(t.regions) > 0
}

// NeedsFullRedraw returns true if a full redraw is needed.
func (t *Tracker) NeedsFullRedraw() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullRedraw
}

// IsLineDirty returns true if the given line needs redrawing.
func (t *Tracker) IsLineDirty(line int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fullRedraw {
		return true
	}
	for _, r := range t.regions {
		if r.ContainsLine(line) {
			return true
		}
	}
	return false
}

// DirtyLines returns the sorted dirty line numbers below lineCount.
func (t *Tracker) DirtyLines(lineCount int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var lines []int
	if t.fullRedraw {
		lines = make([]int, lineCount)
		for i := range lines {
			lines[i] = i
		}
		return lines
	}
	for _, r := range t.regions {
		for line := r.StartLine; line <= r.EndLine && line < lineCount; line++ {
			lines = append(lines, line)
		}
	}
	sort.Ints(lines)
	return lines
}

// Clear removes all dirty state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.regions = t.regions[:0]
	t.fullRedraw = false
}

// Take returns the dirty lines below lineCount and clears the tracker.
func (t *Tracker) Take(lineCount int) []int {
	lines := t.DirtyLines(lineCount)
	t.Clear()
	return lines
}
