package chat

import (
	"sync"
)

// History is the ordered, append-only log of turns for one session.
// It carries no request state; pending/loading is the controller's
// responsibility. History is safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{turns: make([]Turn, 0)}
}

// Append adds a turn at the end of the log. Prior entries are untouched.
func (h *History) Append(t Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, t)
}

// Clear empties the log. Turn identifiers are never reused afterwards.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = h.turns[:0:0]
}

// All returns the turns in append order. The returned slice is a copy;
// mutating it does not affect the store.
func (h *History) All() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns in the log.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// CountByKind returns the number of turns of the given kind.
func (h *History) CountByKind(kind TurnKind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, t := range h.turns {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

// Stats summarizes the history by turn kind.
type Stats struct {
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
	ErrorMessages     int `json:"error_messages"`
}

// Stats returns per-kind counts for summary display.
func (h *History) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var s Stats
	for _, t := range h.turns {
		switch t.Kind {
		case TurnUser:
			s.UserMessages++
		case TurnAssistant:
			s.AssistantMessages++
		case TurnError:
			s.ErrorMessages++
		}
	}
	return s
}
