package playback

import "sync/atomic"

// State is the playback state of a Player.
type State int32

const (
	// StateIdle means not enough audio has been buffered since the last stop.
	StateIdle State = iota
	// StateArmed means the buffer crossed the arming threshold and the
	// device is expected to produce audible output.
	StateArmed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// StateController arms playback once the buffered sample count exceeds a
// threshold. Buffer exhaustion after arming does not disarm; only Reset does.
type StateController struct {
	threshold int
	state     atomic.Int32
	onArmed   func(buffered int)
}

// NewStateController creates a controller in StateIdle. onArmed, if not nil,
// is called once per Idle to Armed transition from the goroutine calling Observe.
func NewStateController(threshold int, onArmed func(buffered int)) *StateController {
	return &StateController{
		threshold: threshold,
		onArmed:   onArmed,
	}
}

// Observe reports the current buffer level and returns true if this call armed playback.
func (c *StateController) Observe(buffered int) bool {
	if buffered <= c.threshold {
		return false
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateArmed)) {
		return false
	}
	if c.onArmed != nil {
		c.onArmed(buffered)
	}
	return true
}

// Reset returns the controller to StateIdle.
func (c *StateController) Reset() {
	c.state.Store(int32(StateIdle))
}

// State returns the current state.
func (c *StateController) State() State {
	return State(c.state.Load())
}

// Threshold returns the arming threshold in samples.
func (c *StateController) Threshold() int {
	return c.threshold
}
