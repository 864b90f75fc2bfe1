package focus

import (
	"fmt"
	"sync"
	"time"
)

// FocusState represents a channel's current standing in the arbitration.
type FocusState int

const (
	// FocusNone means the channel is not held by any interface.
	FocusNone FocusState = iota
	// FocusBackground means the channel is held but not the primary one.
	FocusBackground
	// FocusForeground means the channel is held and currently primary.
	// At most one channel is in the foreground at any time.
	FocusForeground
)

func (s FocusState) String() string {
	switch s {
	case FocusNone:
		return "NONE"
	case FocusBackground:
		return "BACKGROUND"
	case FocusForeground:
		return "FOREGROUND"
	default:
		return "UNKNOWN"
	}
}

func (s FocusState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *FocusState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NONE":
		*s = FocusNone
	case "BACKGROUND":
		*s = FocusBackground
	case "FOREGROUND":
		*s = FocusForeground
	default:
		return fmt.Errorf("unknown focus state %q", text)
	}
	return nil
}

// ChannelObserver receives focus transitions for a single channel. The
// callback runs on the manager's executor goroutine and must not block it.
type ChannelObserver interface {
	OnFocusChanged(state FocusState)
}

// Observer receives focus transitions for every channel managed by a
// Manager, identified by channel name.
type Observer interface {
	OnFocusChanged(channelName string, state FocusState)
}

// State is a point-in-time snapshot of a channel, as reported to the
// activity tracker.
type State struct {
	Name      string     `json:"name"`
	Focus     FocusState `json:"focus"`
	Interface string     `json:"interface,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Channel is a single named, priority-ranked resource. Channels are created
// once at Manager construction and live for the process lifetime; their
// focus state, owning interface and observer churn under the engine.
//
// All state mutation happens on the manager's executor goroutine. The mutex
// only guards the snapshot reads other goroutines perform (interface-name
// capture for preemptive stops, status reporting).
type Channel struct {
	name     string
	priority int

	mu       sync.Mutex
	focus    FocusState
	iface    string
	observer ChannelObserver
}

func newChannel(name string, priority int) *Channel {
	return &Channel{name: name, priority: priority}
}

func (c *Channel) Name() string {
	return c.name
}

// Priority returns the channel's rank; a lower value outranks a higher one.
func (c *Channel) Priority() int {
	return c.priority
}

func (c *Channel) Focus() FocusState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// Interface returns the name of the interface currently holding the channel.
// Only meaningful while the focus state is not FocusNone.
func (c *Channel) Interface() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iface
}

// outranks reports whether c takes precedence over other.
func (c *Channel) outranks(other *Channel) bool {
	return c.priority < other.priority
}

// setFocus applies a focus transition and synchronously notifies the
// channel's observer. It reports false, without notifying anyone, when the
// new state equals the current one. A transition to FocusNone releases the
// observer as part of the same step.
func (c *Channel) setFocus(state FocusState) bool {
	c.mu.Lock()
	if c.focus == state {
		c.mu.Unlock()
		return false
	}
	c.focus = state
	observer := c.observer
	if state == FocusNone {
		c.observer = nil
	}
	c.mu.Unlock()

	if observer != nil {
		observer.OnFocusChanged(state)
	}
	return true
}

func (c *Channel) setInterface(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iface = name
}

func (c *Channel) setObserver(observer ChannelObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = observer
}

func (c *Channel) hasObserver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observer != nil
}

// ownedBy reports whether the given observer is the one currently holding
// the channel.
func (c *Channel) ownedBy(observer ChannelObserver) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observer != nil && c.observer == observer
}

// state captures the channel's current snapshot for activity reporting.
func (c *Channel) state() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Name:      c.name,
		Focus:     c.focus,
		Interface: c.iface,
		Timestamp: time.Now(),
	}
}
