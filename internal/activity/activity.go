// Package activity provides consumers for the focus manager's batched
// state-update flushes: a diagnostic logger and a bounded in-memory
// recorder for the control API.
package activity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/audiolibrelab/focusd/internal/focus"
	"github.com/google/uuid"
)

// Record is one channel transition inside a flushed batch.
type Record struct {
	Channel   string           `json:"channel"`
	Focus     focus.FocusState `json:"focus"`
	Interface string           `json:"interface,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Batch is one flush from the focus manager, in transition order.
type Batch struct {
	ID      string    `json:"id"`
	Flushed time.Time `json:"flushed"`
	Records []Record  `json:"records"`
}

// Logger writes one slog line per flushed record.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) NotifyOfActivityUpdates(updates []focus.State) {
	for _, u := range updates {
		slog.Info("channel activity", "channel", u.Name, "focus", u.Focus.String(), "interface", u.Interface)
	}
}

// Recorder keeps the most recent flushed batches in memory, oldest first.
type Recorder struct {
	mu      sync.Mutex
	batches []Batch
	limit   int
}

// NewRecorder returns a recorder that retains up to limit batches. A limit
// of zero or less falls back to 64.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 64
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) NotifyOfActivityUpdates(updates []focus.State) {
	if len(updates) == 0 {
		return
	}
	batch := Batch{
		ID:      uuid.NewString(),
		Flushed: time.Now(),
		Records: make([]Record, 0, len(updates)),
	}
	for _, u := range updates {
		batch.Records = append(batch.Records, Record{
			Channel:   u.Name,
			Focus:     u.Focus,
			Interface: u.Interface,
			Timestamp: u.Timestamp,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	if len(r.batches) > r.limit {
		r.batches = r.batches[len(r.batches)-r.limit:]
	}
}

// Batches returns the retained batches, oldest first.
func (r *Recorder) Batches() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Batch, len(r.batches))
	copy(out, r.batches)
	return out
}

// Records returns the retained records flattened across batches, oldest
// first.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, b := range r.batches {
		out = append(out, b.Records...)
	}
	return out
}

// Multi fans a flush out to several trackers in order.
type Multi []focus.ActivityTracker

func (m Multi) NotifyOfActivityUpdates(updates []focus.State) {
	for _, tracker := range m {
		tracker.NotifyOfActivityUpdates(updates)
	}
}
