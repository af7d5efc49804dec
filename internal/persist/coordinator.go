package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Default autosave cadences.
const (
	DefaultLocalInterval  = 2 * time.Second
	DefaultRemoteInterval = 30 * time.Second
)

// SnapshotFunc captures the current editor state.
type SnapshotFunc func() Snapshot

// Logger is the logging interface used by the coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// LocalSaveError wraps a failed local save.
type LocalSaveError struct {
	Err error
}

func (e *LocalSaveError) Error() string {
	return "local save failed: " + e.Err.Error()
}

func (e *LocalSaveError) Unwrap() error {
	return e.Err
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRemote sets the remote store. The default discards remote saves.
func WithRemote(r Remote) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.remote = r
		}
	}
}

// WithIntervals sets the local and remote autosave cadences.
func WithIntervals(local, remote time.Duration) Option {
	return func(c *Coordinator) {
		if local > 0 {
			c.localInterval = local
		}
		if remote > 0 {
			c.remoteInterval = remote
		}
	}
}

// WithRetryPolicy sets the remote retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Coordinator) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		c.retry = p
	}
}

// WithSleep replaces the wait between remote retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Coordinator) {
		c.sleep = sleep
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(l Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithErrorHandler receives local save failures from the autosave loop.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

// WithClock sets the time source for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// Coordinator schedules local and remote saves of one draft.
type Coordinator struct {
	local    LocalStore
	remote   Remote
	draftID  string
	snapshot SnapshotFunc

	localInterval  time.Duration
	remoteInterval time.Duration
	retry          RetryPolicy
	sleep          func(ctx context.Context, d time.Duration) error
	now            func() time.Time
	logger         Logger
	onError        func(error)

	// remoteMu keeps remote saves single-flight.
	remoteMu       sync.Mutex
	mu             sync.Mutex
	remoteRevision uint64
	remoteSaved    bool
	lastLocal      time.Time

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a coordinator for draftID. snapshot is called from the
// autosave goroutines and must be safe for concurrent use.
func New(local LocalStore, draftID string, snapshot SnapshotFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		local:          local,
		remote:         NopRemote{},
		draftID:        draftID,
		snapshot:       snapshot,
		localInterval:  DefaultLocalInterval,
		remoteInterval: DefaultRemoteInterval,
		retry:          DefaultRetryPolicy(),
		sleep:          sleepContext,
		now:            time.Now,
		logger:         nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DraftID returns the draft this coordinator saves.
func (c *Coordinator) DraftID() string {
	return c.draftID
}

func (c *Coordinator) key() string {
	return "draft:" + c.draftID
}

func (c *Coordinator) capture() Snapshot {
	s := c.snapshot()
	s.DraftID = c.draftID
	s.SavedAt = c.now()
	return s
}

// SaveLocal writes the current state to the local store.
func (c *Coordinator) SaveLocal() error {
	s := c.capture()
	data, err := s.Encode()
	if err != nil {
		return &LocalSaveError{Err: err}
	}
	if err := c.local.Put(c.key(), data); err != nil {
		return &LocalSaveError{Err: err}
	}

	c.mu.Lock()
	c.lastLocal = s.SavedAt
	c.mu.Unlock()
	return nil
}

// LastLocalSave returns the time of the last successful local save.
func (c *Coordinator) LastLocalSave() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLocal
}

// SaveToServer saves the current state remotely, retrying with backoff.
// It never returns an error: after the last attempt fails, the failure is
// logged and saved is false.
func (c *Coordinator) SaveToServer(ctx context.Context) (saved bool) {
	return c.saveRemote(ctx, c.capture())
}

func (c *Coordinator) saveRemote(ctx context.Context, s Snapshot) bool {
	c.remoteMu.Lock()
	defer c.remoteMu.Unlock()

	var err error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err = c.remote.SaveDraft(ctx, s); err == nil {
			c.mu.Lock()
			c.remoteRevision = s.Revision
			c.remoteSaved = true
			c.mu.Unlock()
			c.logger.Debug("remote save of %s succeeded on attempt %d", c.draftID, attempt)
			return true
		}
		if attempt == c.retry.MaxAttempts {
			break
		}
		delay := c.retry.Delay(attempt)
		c.logger.Debug("remote save attempt %d failed: %v (retrying in %v)", attempt, err, delay)
		if serr := c.sleep(ctx, delay); serr != nil {
			c.logger.Warn("remote save of %s cancelled: %v", c.draftID, serr)
			return false
		}
	}
	c.logger.Warn("remote save of %s failed after %d attempts: %v", c.draftID, c.retry.MaxAttempts, err)
	return false
}

// LoadDraft reads the locally saved draft. ok is false when there is none.
func (c *Coordinator) LoadDraft() (s Snapshot, ok bool, err error) {
	data, err := c.local.Get(c.key())
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load draft: %w", err)
	}
	s, err = DecodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

// ClearDraft removes the locally saved draft.
func (c *Coordinator) ClearDraft() error {
	if err := c.local.Delete(c.key()); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clear draft: %w", err)
	}
	c.mu.Lock()
	c.remoteSaved = false
	c.mu.Unlock()
	return nil
}

// StartAutoSave starts the local and remote save loops.
// Calling it while the loops are running does nothing.
func (c *Coordinator) StartAutoSave(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.wg.Add(2)
	go c.loop(ctx, c.localInterval, c.localTick)
	go c.loop(ctx, c.remoteInterval, c.remoteTick)
	c.logger.Info("autosave started (local %v, remote %v)", c.localInterval, c.remoteInterval)
}

// StopAutoSave stops both loops and waits for them to exit.
// The snapshot func must not block on the caller of StopAutoSave.
func (c *Coordinator) StopAutoSave() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.logger.Info("autosave stopped")
}

// Running reports whether the autosave loops are active.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Coordinator) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func (c *Coordinator) localTick(context.Context) {
	if err := c.SaveLocal(); err != nil {
		c.logger.Warn("%v", err)
		if c.onError != nil {
			c.onError(err)
		}
	}
}

func (c *Coordinator) remoteTick(ctx context.Context) {
	s := c.capture()

	c.mu.Lock()
	unchanged := c.remoteSaved && s.Revision == c.remoteRevision
	c.mu.Unlock()
	if unchanged {
		return
	}
	c.saveRemote(ctx, s)
}
