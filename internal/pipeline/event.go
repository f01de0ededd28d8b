package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"snapmeta/internal/model"
)

// Event is one capture or upload. Only the goroutine running it advances
// the state; other goroutines read it through Snapshot.
type Event struct {
	ID        string
	Origin    model.Origin
	StartedAt time.Time

	mu      sync.RWMutex
	state   State
	history []State
	result  *Result
	err     error
	claimed bool
}

// NewEvent creates an Idle event with a fresh ID.
func NewEvent(origin model.Origin) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Origin:    origin,
		StartedAt: time.Now(),
		state:     Idle,
		history:   []State{Idle},
	}
}

// claim marks a fresh event as running. It reports false for an event that
// has already been claimed or has left Idle.
func (e *Event) claim() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.claimed || e.state != Idle || len(e.history) != 1 {
		return false
	}
	e.claimed = true
	return true
}

func (e *Event) advance(to State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if next[e.state] != to {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", e.state, to))
	}
	e.state = to
	e.history = append(e.history, to)
}

// fail returns the event to Idle with err.
func (e *Event) fail(stage Stage, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = &StageError{Stage: stage, Err: err}
	e.state = Idle
	e.history = append(e.history, Idle)
}

// Abort returns a running event to Idle with err attributed to stage. It is
// a no-op once the event is Ready or has already failed.
func (e *Event) Abort(stage Stage, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Ready || e.err != nil {
		return
	}
	e.err = &StageError{Stage: stage, Err: err}
	e.state = Idle
	e.history = append(e.history, Idle)
}

func (e *Event) finish(r *Result) {
	e.mu.Lock()
	e.result = r
	e.mu.Unlock()
	e.advance(Ready)
}

func (e *Event) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// History lists every state the event has been in, oldest first.
func (e *Event) History() []State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]State(nil), e.history...)
}

// Result is non-nil only once the event is Ready.
func (e *Event) Result() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result
}

// Err is the *StageError that returned the event to Idle, if any.
func (e *Event) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// Snapshot is a point-in-time copy of an Event for display.
type Snapshot struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	StartedAt time.Time `json:"startedAt"`
	State     State     `json:"state"`
	History   []State   `json:"history"`
	Error     string    `json:"error,omitempty"`
}

func (e *Event) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := Snapshot{
		ID:        e.ID,
		Origin:    e.Origin.String(),
		StartedAt: e.StartedAt,
		State:     e.state,
		History:   append([]State(nil), e.history...),
	}
	if e.err != nil {
		s.Error = e.err.Error()
	}
	return s
}
