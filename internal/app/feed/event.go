package feed

import "github.com/osa030/swipebox/internal/domain/track"

// EventType represents a feed event type.
type EventType int

const (
	EventTrackChanged  EventType = iota // Cursor moved to a new track
	EventBatchAppended                  // A refill batch was appended to the buffer
	EventRefillFailed                   // A refill aborted; the session needs a retry
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventBatchAppended:
		return "batch_appended"
	case EventRefillFailed:
		return "refill_failed"
	default:
		return "unknown"
	}
}

// Event represents a feed event.
type Event struct {
	Type      EventType
	Track     *track.Track // Current track (EventTrackChanged only)
	Position  int          // Cursor position at emission time
	BatchSize int          // Number of appended tracks (EventBatchAppended only)
	Err       error        // Failure cause (EventRefillFailed only)
}
