package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Common errors reported synchronously by the controller. Backend failures
// are never returned from Submit; they are recorded as error turns.
var (
	// ErrEmptyMessage is returned when a submission is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrRequestInFlight is returned when a submission arrives while a
	// previous one is still awaiting its response.
	ErrRequestInFlight = errors.New("a request is already in flight")
	// ErrUnknownDomain is returned for a domain outside the closed set.
	ErrUnknownDomain = errors.New("unknown domain")
	// ErrUnknownModel is returned for a model ID not in the catalog.
	ErrUnknownModel = errors.New("unknown model")
)

// errorTurnContent is the fixed user-facing message recorded for any failed
// backend round-trip. Raw error detail never reaches the transcript.
const errorTurnContent = "Sorry, I encountered an error. Please try again."

// Backend is the remote inference collaborator. Implementations perform one
// turn round-trip and must honor ctx cancellation and deadlines.
type Backend interface {
	Send(ctx context.Context, req TurnRequest) (*TurnResponse, error)
}

// TurnRequest is the payload for one turn round-trip.
type TurnRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Domain    string `json:"domain"`
	ModelID   string `json:"model_id"`
}

// TurnResponse is a successful turn reply from the backend.
type TurnResponse struct {
	Response  string `json:"response"`
	ModelUsed string `json:"model_used"`
	Domain    string `json:"domain"`
}

// ConfirmFunc asks the user to confirm a destructive transition, such as a
// domain change that discards the current conversation. The caller owns the
// interaction; the controller only gates the transition on the result.
type ConfirmFunc func(reason string) bool

// Config configures a Controller. Backend is required; everything else has
// a usable default.
type Config struct {
	// Backend performs turn round-trips.
	Backend Backend

	// Models is the model catalog used to validate model changes.
	// Defaults to DefaultModelCatalog().
	Models []ModelInfo

	// DefaultDomain is the domain a fresh session starts in.
	// Defaults to DomainGeneral.
	DefaultDomain Domain

	// DefaultModel is the model a fresh session starts with.
	// Defaults to DefaultModelID.
	DefaultModel string

	// RequestTimeout bounds each backend round-trip. Exceeding it is
	// treated as a transport failure. Defaults to 30s.
	RequestTimeout time.Duration

	// Confirm gates domain changes that would discard a non-empty history.
	// A nil Confirm treats every request as confirmed.
	Confirm ConfirmFunc

	// Logger receives controller events. Defaults to slog.Default().
	Logger *slog.Logger

	// Clock overrides time.Now for turn timestamps (test seam).
	Clock func() time.Time
}

// Controller owns one conversation: its identity, domain and model
// selection, history, and the submit/response lifecycle. It assumes a
// single logical actor drives transitions, but is internally synchronized
// so that a reset issued while a request is outstanding is safe.
type Controller struct {
	backend Backend
	models  []ModelInfo
	timeout time.Duration
	confirm ConfirmFunc
	log     *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	sessionID  string
	domain     Domain
	model      string
	history    *History
	busy       bool
	generation uint64
}

// NewController creates a controller with a fresh session.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, errors.New("chat: backend is required")
	}

	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModelCatalog()
	}

	domain := cfg.DefaultDomain
	if domain == "" {
		domain = DomainGeneral
	}
	if !domain.Valid() {
		return nil, fmt.Errorf("chat: default domain %q: %w", domain, ErrUnknownDomain)
	}

	model := cfg.DefaultModel
	if model == "" {
		model = DefaultModelID
	}
	if _, ok := LookupModel(models, model); !ok {
		return nil, fmt.Errorf("chat: default model %q: %w", model, ErrUnknownModel)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Controller{
		backend:   cfg.Backend,
		models:    models,
		timeout:   timeout,
		confirm:   cfg.Confirm,
		log:       logger,
		now:       clock,
		sessionID: NewSessionID(),
		domain:    domain,
		model:     model,
		history:   NewHistory(),
	}, nil
}

// SessionID returns the identifier of the current session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// CurrentDomain returns the active domain.
func (c *Controller) CurrentDomain() Domain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.domain
}

// CurrentModel returns the active model ID.
func (c *Controller) CurrentModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Models returns the model catalog the controller validates against.
func (c *Controller) Models() []ModelInfo {
	out := make([]ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// Busy reports whether a request is awaiting its response.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Turns returns the current history in append order.
func (c *Controller) Turns() []Turn {
	return c.history.All()
}

// Stats returns per-kind counts for the current history.
func (c *Controller) Stats() Stats {
	return c.history.Stats()
}

// Submit sends one user message through a full turn. The user turn is
// appended before the backend round-trip begins, so it is observable
// without waiting for the network. On success an assistant turn is
// appended; on any backend failure (non-success status, transport error,
// timeout, malformed body) a single generic error turn is appended and
// Submit still returns nil. Only validation and single-flight rejections
// are returned as errors, before any turn is recorded.
func (c *Controller) Submit(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrRequestInFlight
	}

	// Capture the selector state in effect now; the user may change the
	// model or reset the session while the request is outstanding.
	req := TurnRequest{
		Message:   trimmed,
		SessionID: c.sessionID,
		Domain:    string(c.domain),
		ModelID:   c.model,
	}
	gen := c.generation

	c.history.Append(Turn{
		ID:        newTurnID(),
		Kind:      TurnUser,
		Content:   trimmed,
		Timestamp: c.now(),
	})
	c.busy = true
	c.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.backend.Send(rctx, req)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if gen != c.generation {
		// The session was reset while the request was outstanding. The
		// result belongs to a conversation that no longer exists.
		c.log.Debug("discarding stale response", "session_id", req.SessionID)
		return nil
	}

	if err == nil && (resp == nil || resp.Response == "" || resp.ModelUsed == "") {
		err = errors.New("incomplete response body")
	}
	if err != nil {
		c.log.Warn("turn failed", "session_id", req.SessionID, "model_id", req.ModelID, "error", err)
		c.history.Append(Turn{
			ID:        newTurnID(),
			Kind:      TurnError,
			Content:   errorTurnContent,
			Timestamp: c.now(),
		})
		return nil
	}

	domain := Domain(resp.Domain)
	if !domain.Valid() {
		domain = Domain(req.Domain)
	}
	c.history.Append(Turn{
		ID:        newTurnID(),
		Kind:      TurnAssistant,
		Content:   resp.Response,
		Timestamp: c.now(),
		ModelUsed: resp.ModelUsed,
		Domain:    domain,
	})
	return nil
}

// ClearChat starts a new session: fresh session ID, empty history. Domain
// and model selection are untouched. If a request is outstanding, its
// eventual completion is discarded rather than applied to the new session.
func (c *Controller) ClearChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// ChangeDomain switches the active domain. Switching with a non-empty
// history discards the conversation, so it is gated on the confirm
// capability. The boolean reports whether the change took effect.
func (c *Controller) ChangeDomain(newDomain Domain) (bool, error) {
	if !newDomain.Valid() {
		return false, fmt.Errorf("chat: domain %q: %w", newDomain, ErrUnknownDomain)
	}

	c.mu.Lock()
	if newDomain == c.domain {
		c.mu.Unlock()
		return false, nil
	}
	needConfirm := c.history.Len() > 0 && c.confirm != nil
	c.mu.Unlock()

	if needConfirm {
		reason := fmt.Sprintf("Switching to %s will start a new conversation. Continue?", newDomain.Info().Label)
		if !c.confirm(reason) {
			return false, nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if newDomain == c.domain {
		return false, nil
	}
	c.domain = newDomain
	c.reset()
	return true, nil
}

// ChangeModel switches the active model for subsequent submissions. It
// never resets the session or relabels past assistant turns.
func (c *Controller) ChangeModel(newModel string) error {
	if _, ok := LookupModel(c.models, newModel); !ok {
		return fmt.Errorf("chat: model %q: %w", newModel, ErrUnknownModel)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = newModel
	return nil
}

// reset replaces the session wholesale. Callers must hold c.mu.
func (c *Controller) reset() {
	c.sessionID = NewSessionID()
	c.generation++
	c.history.Clear()
}
