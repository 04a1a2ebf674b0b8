package playback

import (
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/johnquangdev/levelus/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/levelus/internal/usecase/errors"
	"github.com/johnquangdev/levelus/pkg/metrics"
)

// DefaultPeriod is the delay between two revealed entries
const DefaultPeriod = 1200 * time.Millisecond

// State of the replay
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StateDone    State = "done"
)

// Entry is one utterance of the demo replay
type Entry struct {
	ParticipantID string `json:"participantId" yaml:"participantId"`
	Text          string `json:"text" yaml:"text"`
}

// Snapshot is the observable replay state
type Snapshot struct {
	State   State   `json:"state" yaml:"state"`
	Visible []Entry `json:"visible" yaml:"visible"`
	Total   int     `json:"total" yaml:"total"`
}

// Listener is called after every state change. It must not call Enable, Disable, Reset or Close.
type Listener func(Snapshot)

// Options configures an Engine
type Options struct {
	// Clock drives the ticker. Defaults to the wall clock.
	Clock clock.Clock
	// Period defaults to DefaultPeriod
	Period  time.Duration
	Metrics *metrics.SyncMetrics
}

// Flatten lists every utterance of m, participant by participant
func Flatten(m *entities.Meeting) []Entry {
	entries := make([]Entry, 0)
	if m == nil {
		return entries
	}
	for _, p := range m.Participants {
		for _, text := range p.Transcripts {
			entries = append(entries, Entry{ParticipantID: p.ID, Text: text})
		}
	}
	return entries
}

// Engine reveals a fixed list of entries one per period
type Engine struct {
	clock   clock.Clock
	period  time.Duration
	entries []Entry
	metrics *metrics.SyncMetrics
	logger  *zap.Logger

	// writeMu orders state changes with their notifications
	writeMu sync.Mutex
	mu      sync.Mutex
	index   int
	state   State
	stop    chan struct{}
	closed  bool
	wg      sync.WaitGroup

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewEngine creates an idle engine over the utterances of m
func NewEngine(m *entities.Meeting, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	return &Engine{
		clock:     opts.Clock,
		period:    opts.Period,
		entries:   Flatten(m),
		metrics:   opts.Metrics,
		logger:    logger,
		state:     StateIdle,
		listeners: make(map[int]Listener),
	}
}

// Period returns the tick period
func (e *Engine) Period() time.Duration {
	return e.period
}

// Enable starts the replay from idle. Playing is a no-op. A finished replay must be Reset first.
func (e *Engine) Enable() error {
	return e.transition(func() (bool, error) {
		if e.closed {
			return false, usecaseErrors.ErrPlaybackClosed
		}
		switch e.state {
		case StatePlaying:
			return false, nil
		case StateDone:
			return false, usecaseErrors.ErrPlaybackDone
		}

		if len(e.entries) == 0 {
			e.state = StateDone
			return true, nil
		}

		e.state = StatePlaying
		e.stop = make(chan struct{})
		ticker := e.clock.Ticker(e.period)
		e.wg.Add(1)
		go e.run(ticker, e.stop)

		e.logger.Debug("playback started", zap.Int("entries", len(e.entries)), zap.Duration("period", e.period))
		return true, nil
	})
}

// Disable reveals every entry at once and stops the ticker
func (e *Engine) Disable() {
	_ = e.transition(func() (bool, error) {
		if e.state == StateDone && e.index == len(e.entries) {
			return false, nil
		}
		e.stopLocked()
		e.index = len(e.entries)
		e.state = StateDone
		return true, nil
	})
}

// Reset rewinds to idle with nothing revealed
func (e *Engine) Reset() {
	_ = e.transition(func() (bool, error) {
		if e.state == StateIdle && e.index == 0 {
			return false, nil
		}
		e.stopLocked()
		e.index = 0
		e.state = StateIdle
		return true, nil
	})
}

// Tick reveals the next entry. It reports whether the replay is still playing.
func (e *Engine) Tick() bool {
	return e.tick(nil)
}

// tick advances the replay. A non-nil owner is the stop channel of the calling ticker
// goroutine; ticks from a ticker that has since been replaced are ignored.
func (e *Engine) tick(owner chan struct{}) bool {
	playing := false
	_ = e.transition(func() (bool, error) {
		if e.state != StatePlaying {
			return false, nil
		}
		if owner != nil && owner != e.stop {
			return false, nil
		}
		e.index++
		if e.index >= len(e.entries) {
			e.index = len(e.entries)
			e.state = StateDone
			e.stopLocked()
		} else {
			playing = true
		}
		return true, nil
	})
	return playing
}

// Close stops the ticker and waits for it to exit. The engine cannot be enabled afterwards.
func (e *Engine) Close() {
	e.writeMu.Lock()
	e.mu.Lock()
	e.closed = true
	e.stopLocked()
	if e.state == StatePlaying {
		e.state = StateIdle
	}
	e.mu.Unlock()
	e.writeMu.Unlock()

	e.wg.Wait()
}

// State returns the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Visible returns the revealed entries
func (e *Engine) Visible() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.entries[:e.index])
}

// Snapshot returns state and revealed entries together
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn and returns a function that removes it
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	e.listenersMu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.listenersMu.Lock()
			delete(e.listeners, id)
			e.listenersMu.Unlock()
		})
	}
}

func (e *Engine) run(ticker *clock.Ticker, stop chan struct{}) {
	defer e.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.tick(stop) {
				return
			}
		}
	}
}

// transition applies fn and notifies listeners when it reports a change
func (e *Engine) transition(fn func() (bool, error)) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	changed, err := fn()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if err != nil || !changed {
		return err
	}

	e.metrics.SetPlaybackVisible(len(snap.Visible))

	e.listenersMu.Lock()
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.listeners[id])
	}
	e.listenersMu.Unlock()

	for _, l := range fns {
		l(Snapshot{State: snap.State, Visible: slices.Clone(snap.Visible), Total: snap.Total})
	}
	return nil
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:   e.state,
		Visible: slices.Clone(e.entries[:e.index]),
		Total:   len(e.entries),
	}
}

func (e *Engine) stopLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}
