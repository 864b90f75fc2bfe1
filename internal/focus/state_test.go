package focus

import (
	"sync"
	"testing"
)

// stubObserver records the focus states delivered to a single channel's
// observer.
type stubObserver struct {
	mu     sync.Mutex
	states []FocusState
}

func (o *stubObserver) OnFocusChanged(state FocusState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *stubObserver) recorded() []FocusState {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]FocusState, len(o.states))
	copy(out, o.states)
	return out
}

func TestFocusStateString(t *testing.T) {
	cases := map[FocusState]string{
		FocusNone:       "NONE",
		FocusBackground: "BACKGROUND",
		FocusForeground: "FOREGROUND",
		FocusState(42):  "UNKNOWN",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("FocusState(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestChannelSetFocus_NotifiesObserver(t *testing.T) {
	ch := newChannel("Content", 300)
	obs := &stubObserver{}
	ch.setObserver(obs)

	if !ch.setFocus(FocusForeground) {
		t.Fatal("setFocus to a new state should report true")
	}
	states := obs.recorded()
	if len(states) != 1 || states[0] != FocusForeground {
		t.Errorf("Expected single FOREGROUND notification, got %v", states)
	}
}

func TestChannelSetFocus_SameStateIsNoOp(t *testing.T) {
	ch := newChannel("Content", 300)
	obs := &stubObserver{}
	ch.setObserver(obs)
	ch.setFocus(FocusBackground)

	if ch.setFocus(FocusBackground) {
		t.Error("setFocus to the current state should report false")
	}
	if states := obs.recorded(); len(states) != 1 {
		t.Errorf("Observer should not be notified twice for the same state, got %v", states)
	}
}

func TestChannelSetFocus_NoneClearsObserver(t *testing.T) {
	ch := newChannel("Content", 300)
	obs := &stubObserver{}
	ch.setObserver(obs)
	ch.setFocus(FocusForeground)
	ch.setFocus(FocusNone)

	if ch.hasObserver() {
		t.Error("Transition to NONE should clear the channel observer")
	}
	states := obs.recorded()
	if len(states) != 2 || states[1] != FocusNone {
		t.Errorf("Observer should still receive the NONE transition, got %v", states)
	}
}

func TestChannelOwnedBy(t *testing.T) {
	ch := newChannel("Content", 300)
	owner := &stubObserver{}
	other := &stubObserver{}
	ch.setObserver(owner)

	if !ch.ownedBy(owner) {
		t.Error("Channel should report its installed observer as owner")
	}
	if ch.ownedBy(other) {
		t.Error("Channel should not report a foreign observer as owner")
	}
	ch.setFocus(FocusForeground)
	ch.setFocus(FocusNone)
	if ch.ownedBy(owner) {
		t.Error("Channel should have no owner after the NONE transition")
	}
}

func TestChannelOutranks(t *testing.T) {
	dialog := newChannel("Dialog", 100)
	content := newChannel("Content", 300)

	if !dialog.outranks(content) {
		t.Error("Lower priority value should outrank a higher one")
	}
	if content.outranks(dialog) {
		t.Error("Higher priority value should not outrank a lower one")
	}
}
