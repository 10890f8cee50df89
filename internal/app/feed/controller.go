package feed

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/app/planner"
	"github.com/osa030/swipebox/internal/domain/track"
)

// DefaultRefillThreshold is how close to the buffer tail the cursor may get
// before a background refill is triggered.
const DefaultRefillThreshold = 5

// Errors
var (
	ErrNotStarted      = errors.New("feed session not started")
	ErrSessionFailed   = errors.New("feed session in failed state")
	ErrInvalidPosition = errors.New("position outside buffer")
)

// TermPlanner produces the search plan for the next refill.
type TermPlanner interface {
	Plan(ctx context.Context) planner.Plan
}

// Refiller turns a plan into a deduplicated batch of tracks.
type Refiller interface {
	Refill(ctx context.Context, plan planner.Plan, inBuffer func(id int64) bool) ([]track.Track, error)
}

// Recorder persists the fact that a track was surfaced to the user.
type Recorder interface {
	RecordListened(ctx context.Context, t track.Track) error
}

// Player switches audio to the given track. May be nil for headless use.
type Player interface {
	Play(t track.Track) error
}

// Controller owns the feed buffer and cursor for one discovery session.
// A single logical consumer drives cursor advances; refills run in at most
// one background goroutine and append under the controller mutex.
type Controller struct {
	mu sync.RWMutex

	planner  TermPlanner
	engine   Refiller
	recorder Recorder
	player   Player

	sessionID string
	buffer    []track.Track
	ids       map[int64]struct{}
	cursor    int

	refillInFlight bool
	failed         bool
	threshold      int

	eventCh chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a feed controller. A threshold <= 0 selects the default.
func New(tp TermPlanner, engine Refiller, recorder Recorder, player Player, threshold int) *Controller {
	if threshold <= 0 {
		threshold = DefaultRefillThreshold
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		planner:   tp,
		engine:    engine,
		recorder:  recorder,
		player:    player,
		ids:       make(map[int64]struct{}),
		threshold: threshold,
		eventCh:   make(chan Event, 16),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Start seeds the buffer with one initial refill. The buffer and cursor are
// reset, so Start also serves as the retry path after a failed session.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.sessionID = uuid.NewString()
	c.buffer = nil
	c.ids = make(map[int64]struct{})
	c.cursor = 0
	c.failed = false
	c.refillInFlight = false
	sessionID := c.sessionID
	c.mu.Unlock()

	zlog.Info().Str("session", sessionID).Msg("feed: starting session")

	plan := c.planner.Plan(ctx)
	batch, err := c.engine.Refill(ctx, plan, c.contains)
	if err != nil {
		c.mu.Lock()
		c.failed = true
		pos := c.cursor
		c.mu.Unlock()
		c.sendEvent(Event{Type: EventRefillFailed, Position: pos, Err: err})
		return errors.Wrap(err, "seed refill")
	}

	c.mu.Lock()
	appended := c.appendLocked(batch)
	pos := c.cursor
	c.mu.Unlock()

	c.sendEvent(Event{Type: EventBatchAppended, Position: pos, BatchSize: appended})
	return nil
}

// Retry re-seeds the session after a transient refill failure.
func (c *Controller) Retry(ctx context.Context) error {
	return c.Start(ctx)
}

// AdvanceTo moves the cursor to position. The newly current track is recorded
// as listened and handed to the player. When the cursor gets within the
// refill threshold of the buffer tail, a background refill is triggered
// unless one is already in flight.
func (c *Controller) AdvanceTo(ctx context.Context, position int) error {
	c.mu.Lock()

	if c.sessionID == "" {
		c.mu.Unlock()
		return ErrNotStarted
	}
	if c.failed {
		c.mu.Unlock()
		return ErrSessionFailed
	}
	if position < 0 || position >= len(c.buffer) {
		c.mu.Unlock()
		return errors.Wrapf(ErrInvalidPosition, "position %d, buffer %d", position, len(c.buffer))
	}

	c.cursor = position
	current := c.buffer[position]

	needRefill := len(c.buffer)-position <= c.threshold && !c.refillInFlight
	if needRefill {
		c.refillInFlight = true
	}
	c.mu.Unlock()

	if err := c.recorder.RecordListened(ctx, current); err != nil {
		zlog.Warn().Err(err).Int64("track_id", current.TrackID).Msg("feed: record listened failed")
	}
	if c.player != nil {
		if err := c.player.Play(current); err != nil {
			zlog.Warn().Err(err).Int64("track_id", current.TrackID).Msg("feed: playback switch failed")
		}
	}

	c.sendEvent(Event{Type: EventTrackChanged, Track: &current, Position: position})

	if needRefill {
		go c.refill()
	}
	return nil
}

// Current returns the track under the cursor.
func (c *Controller) Current() (track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cursor >= len(c.buffer) {
		return track.Track{}, false
	}
	return c.buffer[c.cursor], true
}

// Position returns the cursor position.
func (c *Controller) Position() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Len returns the buffer length.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffer)
}

// Tracks returns a copy of the buffer.
func (c *Controller) Tracks() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]track.Track, len(c.buffer))
	copy(result, c.buffer)
	return result
}

// Failed reports whether the session is in the failed state.
func (c *Controller) Failed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failed
}

// Close releases the controller.
func (c *Controller) Close() {
	c.cancel()
	close(c.eventCh)
}

func (c *Controller) contains(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.ids[id]
	return ok
}

// refill runs the planner and engine off the consumer path. The in-flight
// flag was set by the caller under lock.
func (c *Controller) refill() {
	plan := c.planner.Plan(c.ctx)
	batch, err := c.engine.Refill(c.ctx, plan, c.contains)

	c.mu.Lock()
	c.refillInFlight = false

	select {
	case <-c.ctx.Done():
		c.mu.Unlock()
		return
	default:
	}

	if err != nil {
		c.failed = true
		pos := c.cursor
		c.mu.Unlock()
		zlog.Warn().Err(err).Msg("feed: refill aborted")
		c.sendEvent(Event{Type: EventRefillFailed, Position: pos, Err: err})
		return
	}

	appended := c.appendLocked(batch)
	pos := c.cursor
	c.mu.Unlock()

	c.sendEvent(Event{Type: EventBatchAppended, Position: pos, BatchSize: appended})
}

// appendLocked appends the batch, dropping ids already in the buffer so no
// track ever appears twice. Must be called with lock held.
func (c *Controller) appendLocked(batch []track.Track) int {
	appended := 0
	for _, t := range batch {
		if _, ok := c.ids[t.TrackID]; ok {
			continue
		}
		c.ids[t.TrackID] = struct{}{}
		c.buffer = append(c.buffer, t)
		appended++
	}
	zlog.Debug().
		Str("session", c.sessionID).
		Int("appended", appended).
		Int("buffer", len(c.buffer)).
		Msg("feed: batch appended")
	return appended
}

// sendEvent sends an event without blocking.
func (c *Controller) sendEvent(e Event) {
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
	}
}
