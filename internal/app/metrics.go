package app

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics tracks editing session statistics.
type Metrics struct {
	// Input handling
	inputCount   atomic.Uint64
	inputTotalNs atomic.Int64
	inputMaxNs   atomic.Int64

	// Screen draws
	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64

	// Saves
	saveCount    atomic.Uint64
	saveFailures atomic.Uint64
	saveTotalNs  atomic.Int64

	reloadCount atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordInput records the time taken to apply one input event.
func (m *Metrics) RecordInput(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.inputCount.Add(1)
	m.inputTotalNs.Add(ns)

	for {
		old := m.inputMaxNs.Load()
		if ns <= old || m.inputMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordFrame records the time taken to draw the screen.
func (m *Metrics) RecordFrame(duration time.Duration) {
	m.frameCount.Add(1)
	m.frameTotalNs.Add(duration.Nanoseconds())
}

// RecordSave records an explicit save. ok is false when the remote save
// failed and the draft stayed dirty.
func (m *Metrics) RecordSave(duration time.Duration, ok bool) {
	m.saveCount.Add(1)
	m.saveTotalNs.Add(duration.Nanoseconds())
	if !ok {
		m.saveFailures.Add(1)
	}
}

// RecordReload records a configuration reload.
func (m *Metrics) RecordReload() {
	m.reloadCount.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		InputCount:   m.inputCount.Load(),
		MaxInputNs:   m.inputMaxNs.Load(),
		FrameCount:   m.frameCount.Load(),
		SaveCount:    m.saveCount.Load(),
		SaveFailures: m.saveFailures.Load(),
		ReloadCount:  m.reloadCount.Load(),
	}
	if s.InputCount > 0 {
		s.AvgInputNs = m.inputTotalNs.Load() / int64(s.InputCount)
	}
	if s.FrameCount > 0 {
		s.AvgFrameNs = m.frameTotalNs.Load() / int64(s.FrameCount)
	}
	if s.SaveCount > 0 {
		s.AvgSaveNs = m.saveTotalNs.Load() / int64(s.SaveCount)
	}
	return s
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	InputCount   uint64
	AvgInputNs   int64
	MaxInputNs   int64
	FrameCount   uint64
	AvgFrameNs   int64
	SaveCount    uint64
	SaveFailures uint64
	AvgSaveNs    int64
	ReloadCount  uint64
}

// SaveFailureRate returns the percentage of saves that left the draft dirty.
func (s MetricsSnapshot) SaveFailureRate() float64 {
	if s.SaveCount == 0 {
		return 0
	}
	return float64(s.SaveFailures) / float64(s.SaveCount) * 100
}

func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("uptime %v, %d inputs (avg %v, max %v), %d frames, %d saves (%d failed), %d reloads",
		s.Uptime.Round(time.Second),
		s.InputCount, time.Duration(s.AvgInputNs), time.Duration(s.MaxInputNs),
		s.FrameCount, s.SaveCount, s.SaveFailures, s.ReloadCount)
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
