package core

// Action is a semantic input intent, abstracted from whatever device
// produced it. The session core works with these high-level intents
// rather than raw key or pose events.
type Action int

const (
	ActionNone  Action = iota
	ActionLeft         // move the paddle toward negative x
	ActionRight        // move the paddle toward positive x
	ActionUp           // move the paddle toward the net
	ActionDown         // move the paddle toward the end line
	ActionServe        // serve trigger edge (trigger/pinch equivalent)
	ActionQuit         // leave the session
)

var actionNames = [...]string{
	ActionNone:  "None",
	ActionLeft:  "Left",
	ActionRight: "Right",
	ActionUp:    "Up",
	ActionDown:  "Down",
	ActionServe: "Serve",
	ActionQuit:  "Quit",
}

// String returns a human-readable name for the action.
func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "Unknown"
	}
	return actionNames[a]
}

// InputFrame is the set of actions one participant triggered during one
// simulation tick, stored as a bitmask. The zero value is an empty
// frame, and assignment copies it, so frames never share state.
type InputFrame struct {
	mask uint32
}

// NewInputFrame returns an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{}
}

// Set marks an action as triggered this frame.
func (f *InputFrame) Set(a Action) {
	f.mask |= 1 << uint(a)
}

// Has reports whether the action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	return f.mask&(1<<uint(a)) != 0
}

// Merge folds every action set in other into this frame.
func (f *InputFrame) Merge(other InputFrame) {
	f.mask |= other.mask
}

// Empty reports whether no action was triggered this frame.
func (f InputFrame) Empty() bool {
	return f.mask == 0
}

// Clear resets the frame for the next tick.
func (f *InputFrame) Clear() {
	f.mask = 0
}

// Clone returns a copy of the frame.
func (f InputFrame) Clone() InputFrame {
	return f
}
