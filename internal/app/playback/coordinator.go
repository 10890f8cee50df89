package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/domain/track"
)

// Errors
var (
	ErrNoPreview  = errors.New("track has no preview url")
	ErrNotPlaying = errors.New("not playing")
)

// Device is the audio output. Calls are fire-and-forget; Play signals
// readiness through the callback once the preview is buffered. The device is
// expected to loop the preview until stopped.
type Device interface {
	Play(url string, ready func())
	Pause()
	Resume()
	Stop()
}

// Coordinator drives the Device and tracks the state of the single active
// preview. Starting a new track implicitly stops the previous one.
type Coordinator struct {
	mu sync.Mutex

	device  Device
	state   State
	current *track.Track

	// generation guards against ready callbacks from a superseded Play.
	generation int

	// shouldResume survives a transient pause (app backgrounded) so the
	// preview picks back up on return. An explicit user pause clears it.
	shouldResume bool
}

// New creates a coordinator in the stopped state.
func New(device Device) *Coordinator {
	return &Coordinator{device: device}
}

// Play starts the given track's preview, stopping any previous track first.
func (c *Coordinator) Play(t track.Track) error {
	if t.PreviewURL == "" {
		return errors.Wrapf(ErrNoPreview, "track %d", t.TrackID)
	}

	c.mu.Lock()
	if c.state != StateStopped {
		c.device.Stop()
	}

	c.generation++
	gen := c.generation
	cur := t
	c.current = &cur
	c.state = StatePreparing
	c.shouldResume = false
	c.mu.Unlock()

	zlog.Debug().Int64("track_id", t.TrackID).Str("track", t.TrackName).Msg("playback: preparing")

	c.device.Play(t.PreviewURL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		// A newer Play or a Stop superseded this track while it loaded.
		if c.generation != gen || c.state != StatePreparing {
			return
		}
		c.state = StatePlaying
	})

	return nil
}

// Pause pauses the active preview. A transient pause (app backgrounded)
// remembers that playback was active so AutoResume can pick it back up; an
// explicit pause clears that flag. A transient pause with nothing active is
// a silent no-op.
func (c *Coordinator) Pause(transient bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.state == StatePlaying || c.state == StatePreparing
	if !active {
		if transient {
			return nil
		}
		return ErrNotPlaying
	}

	c.device.Pause()
	c.state = StatePaused
	c.shouldResume = transient
	return nil
}

// Resume resumes a paused preview. No-op in any other state.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return
	}
	c.device.Resume()
	c.state = StatePlaying
	c.shouldResume = false
}

// AutoResume resumes only when the pause was transient. Called when the app
// returns to the foreground.
func (c *Coordinator) AutoResume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused || !c.shouldResume {
		return
	}
	c.device.Resume()
	c.state = StatePlaying
	c.shouldResume = false
}

// Stop stops the active preview and clears the current track.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return
	}
	c.device.Stop()
	c.generation++
	c.state = StateStopped
	c.current = nil
	c.shouldResume = false
}

// State returns the current playback state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the active track.
func (c *Coordinator) Current() (track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return track.Track{}, false
	}
	return *c.current, true
}
