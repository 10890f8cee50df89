package playback

// State represents the playback state of the active track.
type State int

const (
	StateStopped   State = iota // No active track
	StatePreparing              // Device is loading the preview
	StatePlaying                // Preview is audible
	StatePaused                 // Preview is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePreparing:
		return "preparing"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
