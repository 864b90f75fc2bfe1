// Package focus arbitrates exclusive use of named, priority-ranked channels
// among competing client interfaces. Only one interface holds a channel at a
// time; among held channels exactly one is in the foreground, and foreground
// status is reassigned on every acquire, release and stop according to the
// strict priority order.
package focus

import (
	"log/slog"
	"sync"
)

// Well-known channel names and priorities. A lower priority value outranks
// a higher one.
const (
	DialogChannelName         = "Dialog"
	CommunicationsChannelName = "Communications"
	AlertChannelName          = "Alert"
	ContentChannelName        = "Content"
	VisualChannelName         = "Visual"

	DialogChannelPriority         = 100
	CommunicationsChannelPriority = 150
	AlertChannelPriority          = 200
	ContentChannelPriority        = 300
	VisualChannelPriority         = 100
)

// ChannelConfig describes one channel to register at Manager construction.
type ChannelConfig struct {
	Name     string
	Priority int
}

// DefaultAudioChannels returns the standard four-channel audio registration.
func DefaultAudioChannels() []ChannelConfig {
	return []ChannelConfig{
		{Name: DialogChannelName, Priority: DialogChannelPriority},
		{Name: CommunicationsChannelName, Priority: CommunicationsChannelPriority},
		{Name: AlertChannelName, Priority: AlertChannelPriority},
		{Name: ContentChannelName, Priority: ContentChannelPriority},
	}
}

// DefaultVisualChannels returns the standard single-channel visual registration.
func DefaultVisualChannels() []ChannelConfig {
	return []ChannelConfig{
		{Name: VisualChannelName, Priority: VisualChannelPriority},
	}
}

// ActivityTracker consumes batched channel state updates. The manager calls
// it once per logical operation with every transition the operation caused,
// in order, then forgets the batch.
type ActivityTracker interface {
	NotifyOfActivityUpdates(updates []State)
}

// Manager is the channel arbitration engine. Public entry points validate
// their arguments synchronously, then hand the actual state transition to a
// serialized executor and return; the executor goroutine is the sole writer
// of channel state and the active set once a task is running.
type Manager struct {
	channels map[string]*Channel // fixed after construction
	ranked   []*Channel          // every registered channel, ascending priority value
	tracker  ActivityTracker
	executor *SerialExecutor

	mu        sync.Mutex
	active    []*Channel // currently held channels, ascending priority value
	observers []Observer

	// Transition buffer for the activity tracker. Touched only on the
	// executor goroutine.
	updates []State
}

// NewManager builds the channel registry from the given configuration and
// starts the engine. Entries whose name or priority collides with an
// already-registered channel are logged and skipped; the registry is
// immutable afterward. tracker may be nil.
func NewManager(configs []ChannelConfig, tracker ActivityTracker) *Manager {
	m := &Manager{
		channels: make(map[string]*Channel, len(configs)),
		tracker:  tracker,
		executor: NewSerialExecutor(),
	}
	for _, cfg := range configs {
		if _, ok := m.channels[cfg.Name]; ok {
			slog.Error("create channel failed", "reason", "channel name exists", "channel", cfg.Name, "priority", cfg.Priority)
			continue
		}
		if m.priorityExists(cfg.Priority) {
			slog.Error("create channel failed", "reason", "channel priority exists", "channel", cfg.Name, "priority", cfg.Priority)
			continue
		}
		ch := newChannel(cfg.Name, cfg.Priority)
		m.channels[cfg.Name] = ch
		m.ranked = insertByPriority(m.ranked, ch)
	}
	return m
}

// Shutdown drains pending transitions and stops the executor. The manager
// must not be used afterward.
func (m *Manager) Shutdown() {
	m.executor.Shutdown()
}

// Acquire requests the named channel on behalf of interfaceName, installing
// observer as the channel's callback target. Any previous holder is revoked
// with a transition to NONE. It returns true as soon as the request is
// validated and enqueued; it does not wait for the transition to apply.
// It returns false, without enqueueing anything, if the channel name is
// unknown.
func (m *Manager) Acquire(channelName string, observer ChannelObserver, interfaceName string) bool {
	slog.Debug("acquire channel", "channel", channelName, "interface", interfaceName)
	ch := m.channel(channelName)
	if ch == nil {
		slog.Error("acquire channel failed", "reason", "channel not found", "channel", channelName)
		return false
	}
	return m.executor.Submit(func() {
		m.acquire(ch, observer, interfaceName)
	})
}

// Release gives up the named channel. The returned one-shot channel resolves
// exactly once: true if the release was applied, false if the channel name
// is unknown or observer is not the channel's current holder (in which case
// no state changes).
func (m *Manager) Release(channelName string, observer ChannelObserver) <-chan bool {
	slog.Debug("release channel", "channel", channelName)
	result := make(chan bool, 1)
	ch := m.channel(channelName)
	if ch == nil {
		slog.Error("release channel failed", "reason", "channel not found", "channel", channelName)
		result <- false
		return result
	}
	if !m.executor.Submit(func() {
		m.release(ch, observer, result)
	}) {
		result <- false
	}
	return result
}

// StopForegroundActivity stops whatever currently holds the foreground. The
// stop runs ahead of any already-enqueued acquire or release. No-op when
// nothing is in the foreground.
func (m *Manager) StopForegroundActivity() {
	m.mu.Lock()
	foreground := m.highestPriorityActiveLocked()
	if foreground == nil {
		m.mu.Unlock()
		slog.Debug("stop foreground skipped", "reason", "no foreground activity")
		return
	}
	interfaceName := foreground.Interface()
	m.mu.Unlock()

	m.executor.SubmitToFront(func() {
		m.stopForeground(foreground, interfaceName)
	})
}

// StopAllActivities stops every currently held channel. Like
// StopForegroundActivity it runs ahead of already-enqueued work. Channels
// whose ownership changes between the snapshot taken here and task
// execution are skipped.
func (m *Manager) StopAllActivities() {
	m.mu.Lock()
	if len(m.active) == 0 {
		m.mu.Unlock()
		slog.Debug("stop all skipped", "reason", "no active channels")
		return
	}
	owners := make(map[*Channel]string, len(m.active))
	for _, ch := range m.active {
		owners[ch] = ch.Interface()
	}
	m.mu.Unlock()

	m.executor.SubmitToFront(func() {
		m.stopAll(owners)
	})
}

// AddObserver registers a manager-level observer. Observers are notified of
// every focus transition on every channel, in registration order.
func (m *Manager) AddObserver(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.observers {
		if o == observer {
			return
		}
	}
	m.observers = append(m.observers, observer)
}

// RemoveObserver unregisters a manager-level observer. A removal that
// completes before a notification snapshot is taken is guaranteed excluded
// from that notification; notifications already in flight are best-effort.
func (m *Manager) RemoveObserver(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.observers {
		if o == observer {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// ChannelStates reports a snapshot of every registered channel, ordered by
// ascending priority value.
func (m *Manager) ChannelStates() []State {
	states := make([]State, 0, len(m.ranked))
	for _, ch := range m.ranked {
		states = append(states, ch.state())
	}
	return states
}

// HasChannel reports whether the named channel is registered.
func (m *Manager) HasChannel(channelName string) bool {
	return m.channel(channelName) != nil
}

func (m *Manager) channel(name string) *Channel {
	return m.channels[name]
}

func (m *Manager) priorityExists(priority int) bool {
	for _, ch := range m.channels {
		if ch.priority == priority {
			return true
		}
	}
	return false
}

// acquire applies the acquisition on the executor goroutine.
func (m *Manager) acquire(ch *Channel, observer ChannelObserver, interfaceName string) {
	// Revoke the previous holder, if any; its observer learns it lost the
	// channel before the new one is installed.
	m.setChannelFocus(ch, FocusNone)

	m.mu.Lock()
	foreground := m.highestPriorityActiveLocked()
	ch.setInterface(interfaceName)
	m.active = insertByPriority(m.active, ch)
	m.mu.Unlock()

	ch.setObserver(observer)

	switch {
	case foreground == nil:
		m.setChannelFocus(ch, FocusForeground)
	case foreground == ch:
		m.setChannelFocus(ch, FocusForeground)
	case ch.outranks(foreground):
		m.setChannelFocus(foreground, FocusBackground)
		m.setChannelFocus(ch, FocusForeground)
	default:
		m.setChannelFocus(ch, FocusBackground)
	}
	m.notifyActivityTracker()
}

// release applies the release on the executor goroutine, resolving result
// exactly once.
func (m *Manager) release(ch *Channel, observer ChannelObserver, result chan<- bool) {
	if !ch.ownedBy(observer) {
		slog.Error("release channel failed", "reason", "observer does not own channel", "channel", ch.Name())
		result <- false
		return
	}
	result <- true

	m.mu.Lock()
	wasForeground := m.highestPriorityActiveLocked() == ch
	m.active = removeChannel(m.active, ch)
	m.mu.Unlock()

	m.setChannelFocus(ch, FocusNone)
	if wasForeground {
		m.foregroundHighestPriorityActive()
	}
	m.notifyActivityTracker()
}

// stopForeground applies a preemptive foreground stop. The interface name
// captured when the stop was requested is re-checked against the channel's
// live owner; a mismatch means ownership changed in between and the stop no
// longer applies.
func (m *Manager) stopForeground(ch *Channel, interfaceName string) {
	if ch.Interface() != interfaceName {
		slog.Info("stop foreground skipped", "reason", "channel has other ownership",
			"channel", ch.Name(), "currentInterface", ch.Interface(), "originalInterface", interfaceName)
		return
	}
	if !ch.hasObserver() {
		slog.Info("stop foreground skipped", "reason", "channel has no observer", "channel", ch.Name())
		return
	}
	m.setChannelFocus(ch, FocusNone)

	m.mu.Lock()
	m.active = removeChannel(m.active, ch)
	m.mu.Unlock()

	m.foregroundHighestPriorityActive()
	m.notifyActivityTracker()
}

// stopAll applies a preemptive stop of every snapshotted channel whose
// ownership is unchanged.
func (m *Manager) stopAll(owners map[*Channel]string) {
	var toClear []*Channel

	m.mu.Lock()
	for ch, interfaceName := range owners {
		if ch.Interface() == interfaceName {
			m.active = removeChannel(m.active, ch)
			toClear = append(toClear, ch)
		} else {
			slog.Info("stop all skipped channel", "reason", "channel has other ownership",
				"channel", ch.Name(), "currentInterface", ch.Interface(), "originalInterface", interfaceName)
		}
	}
	m.mu.Unlock()

	for _, ch := range toClear {
		m.setChannelFocus(ch, FocusNone)
	}
	m.foregroundHighestPriorityActive()
	m.notifyActivityTracker()
}

// setChannelFocus applies one focus transition: the channel (and its
// observer, synchronously) first, then every manager-level observer in
// registration order, then the activity buffer. Setting the current state
// again is a no-op with no notifications.
func (m *Manager) setChannelFocus(ch *Channel, state FocusState) {
	if !ch.setFocus(state) {
		return
	}
	m.mu.Lock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, o := range observers {
		o.OnFocusChanged(ch.Name(), state)
	}
	m.updates = append(m.updates, ch.state())
}

// foregroundHighestPriorityActive promotes the best remaining active
// channel, if any.
func (m *Manager) foregroundHighestPriorityActive() {
	m.mu.Lock()
	ch := m.highestPriorityActiveLocked()
	m.mu.Unlock()

	if ch != nil {
		m.setChannelFocus(ch, FocusForeground)
	}
}

func (m *Manager) highestPriorityActiveLocked() *Channel {
	if len(m.active) == 0 {
		return nil
	}
	return m.active[0]
}

// notifyActivityTracker flushes the transition buffer accumulated by the
// current logical operation.
func (m *Manager) notifyActivityTracker() {
	if m.tracker != nil && len(m.updates) > 0 {
		m.tracker.NotifyOfActivityUpdates(m.updates)
	}
	m.updates = nil
}

// insertByPriority inserts ch into the slice, keeping ascending priority
// order. Inserting a channel that is already present is a no-op.
func insertByPriority(channels []*Channel, ch *Channel) []*Channel {
	for _, existing := range channels {
		if existing == ch {
			return channels
		}
	}
	i := 0
	for i < len(channels) && channels[i].priority < ch.priority {
		i++
	}
	channels = append(channels, nil)
	copy(channels[i+1:], channels[i:])
	channels[i] = ch
	return channels
}

func removeChannel(channels []*Channel, ch *Channel) []*Channel {
	for i, existing := range channels {
		if existing == ch {
			return append(channels[:i], channels[i+1:]...)
		}
	}
	return channels
}
