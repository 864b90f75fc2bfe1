// Package service sits between the control surfaces (CLI, HTTP server) and
// the focus manager. It acquires and releases channels on behalf of named
// interfaces, tracking one session per held channel so remote callers can
// release what they acquired.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/audiolibrelab/focusd/internal/activity"
	"github.com/audiolibrelab/focusd/internal/focus"
	"github.com/google/uuid"
)

var (
	// ErrUnknownChannel means the requested channel is not registered.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrNoSession means no current session matches the release request.
	ErrNoSession = errors.New("no matching session for channel")
)

// Service is the focusd control surface.
type Service interface {
	// Acquire requests the channel for the named interface and returns the
	// session representing the acquisition.
	Acquire(channelName, interfaceName string) (*Session, error)

	// Release gives up the channel. sessionID may be empty to release
	// whatever session currently holds the channel; a non-empty id must
	// match. The returned bool is the engine's verdict.
	Release(channelName, sessionID string) (bool, error)

	// StopForeground stops whatever currently holds the foreground.
	StopForeground()

	// StopAll stops every currently held channel.
	StopAll()

	// ChannelStates reports each registered channel's current standing,
	// e.g. "FOREGROUND (Media)" or "NONE".
	ChannelStates() map[string]string

	// Sessions lists the current acquisitions, ordered by start time.
	Sessions() []Session

	// Activity returns the recent activity batches.
	Activity() []activity.Batch

	// Shutdown drains pending transitions and stops the engine.
	Shutdown()
}

// Session describes one live acquisition.
type Session struct {
	ID        string           `json:"id"`
	Channel   string           `json:"channel"`
	Interface string           `json:"interface"`
	Started   time.Time        `json:"started"`
	Focus     focus.FocusState `json:"focus"`
}

// FocusService implements Service on top of a focus.Manager.
type FocusService struct {
	manager  *focus.Manager
	recorder *activity.Recorder

	mu       sync.Mutex
	sessions map[string]*session // keyed by channel name
}

// New builds the service around an existing manager. recorder may be nil if
// activity history is not needed.
func New(manager *focus.Manager, recorder *activity.Recorder) *FocusService {
	return &FocusService{
		manager:  manager,
		recorder: recorder,
		sessions: make(map[string]*session),
	}
}

func (s *FocusService) Acquire(channelName, interfaceName string) (*Session, error) {
	sess := &session{
		svc:     s,
		id:      uuid.NewString(),
		channel: channelName,
		iface:   interfaceName,
		started: time.Now(),
	}

	// Register before handing the observer to the engine so the focus
	// callback always finds its session.
	s.mu.Lock()
	s.sessions[channelName] = sess
	s.mu.Unlock()

	if !s.manager.Acquire(channelName, sess, interfaceName) {
		s.dropSession(sess)
		return nil, fmt.Errorf("acquire %q: %w", channelName, ErrUnknownChannel)
	}
	slog.Debug("session started", "session", sess.id, "channel", channelName, "interface", interfaceName)
	return sess.snapshot(), nil
}

func (s *FocusService) Release(channelName, sessionID string) (bool, error) {
	if !s.manager.HasChannel(channelName) {
		return false, fmt.Errorf("release %q: %w", channelName, ErrUnknownChannel)
	}

	s.mu.Lock()
	sess := s.sessions[channelName]
	s.mu.Unlock()
	if sess == nil || (sessionID != "" && sess.id != sessionID) {
		return false, fmt.Errorf("release %q: %w", channelName, ErrNoSession)
	}

	ok := <-s.manager.Release(channelName, sess)
	if ok {
		s.dropSession(sess)
	}
	return ok, nil
}

func (s *FocusService) StopForeground() {
	s.manager.StopForegroundActivity()
}

func (s *FocusService) StopAll() {
	s.manager.StopAllActivities()
}

func (s *FocusService) ChannelStates() map[string]string {
	states := make(map[string]string)
	for _, st := range s.manager.ChannelStates() {
		if st.Focus == focus.FocusNone {
			states[st.Name] = st.Focus.String()
		} else {
			states[st.Name] = fmt.Sprintf("%s (%s)", st.Focus, st.Interface)
		}
	}
	return states
}

func (s *FocusService) Sessions() []Session {
	s.mu.Lock()
	live := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	out := make([]Session, 0, len(live))
	for _, sess := range live {
		out = append(out, *sess.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}

func (s *FocusService) Activity() []activity.Batch {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Batches()
}

func (s *FocusService) Shutdown() {
	s.manager.Shutdown()
}

// dropSession removes sess from the table unless a newer session has
// already replaced it for the same channel.
func (s *FocusService) dropSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sess.channel] == sess {
		delete(s.sessions, sess.channel)
	}
}

// session is the per-acquisition channel observer.
type session struct {
	svc     *FocusService
	id      string
	channel string
	iface   string
	started time.Time

	mu    sync.Mutex
	focus focus.FocusState
}

// OnFocusChanged runs on the engine's executor goroutine.
func (sess *session) OnFocusChanged(state focus.FocusState) {
	sess.mu.Lock()
	sess.focus = state
	sess.mu.Unlock()

	slog.Debug("session focus changed", "session", sess.id, "channel", sess.channel, "focus", state.String())
	if state == focus.FocusNone {
		sess.svc.dropSession(sess)
	}
}

func (sess *session) snapshot() *Session {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return &Session{
		ID:        sess.id,
		Channel:   sess.channel,
		Interface: sess.iface,
		Started:   sess.started,
		Focus:     sess.focus,
	}
}
