package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBackend records requests and answers them with a programmable
// response. If gate is non-nil, Send blocks until the gate is closed,
// which lets tests act while a request is outstanding.
type mockBackend struct {
	mu       sync.Mutex
	requests []TurnRequest
	respond  func(req TurnRequest) (*TurnResponse, error)
	gate     chan struct{}
}

func (m *mockBackend) Send(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.respond != nil {
		return m.respond(req)
	}
	return &TurnResponse{Response: "ok", ModelUsed: req.ModelID, Domain: req.Domain}, nil
}

func (m *mockBackend) sentRequests() []TurnRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TurnRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func newTestController(t *testing.T, backend Backend) *Controller {
	t.Helper()
	c, err := NewController(Config{Backend: backend})
	require.NoError(t, err)
	return c
}

func TestNewControllerDefaults(t *testing.T) {
	c := newTestController(t, &mockBackend{})

	assert.NotEmpty(t, c.SessionID())
	assert.Equal(t, DomainGeneral, c.CurrentDomain())
	assert.Equal(t, DefaultModelID, c.CurrentModel())
	assert.Empty(t, c.Turns())
	assert.False(t, c.Busy())
}

func TestNewControllerValidation(t *testing.T) {
	_, err := NewController(Config{})
	require.Error(t, err)

	_, err = NewController(Config{Backend: &mockBackend{}, DefaultDomain: "astrology"})
	require.ErrorIs(t, err, ErrUnknownDomain)

	_, err = NewController(Config{Backend: &mockBackend{}, DefaultModel: "nonexistent-model"})
	require.ErrorIs(t, err, ErrUnknownModel)
}

func TestSubmitSuccess(t *testing.T) {
	backend := &mockBackend{
		respond: func(req TurnRequest) (*TurnResponse, error) {
			return &TurnResponse{Response: "Hi there", ModelUsed: "m1", Domain: "general"}, nil
		},
	}
	c, err := NewController(Config{
		Backend: backend,
		Models:  []ModelInfo{{ID: "m1", Name: "Model One"}},
	})
	require.NoError(t, err)

	require.NoError(t, c.Submit(context.Background(), "Hello"))

	turns := c.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, TurnUser, turns[0].Kind)
	assert.Equal(t, "Hello", turns[0].Content)
	assert.Empty(t, turns[0].ModelUsed)
	assert.Equal(t, TurnAssistant, turns[1].Kind)
	assert.Equal(t, "Hi there", turns[1].Content)
	assert.Equal(t, "m1", turns[1].ModelUsed)
	assert.Equal(t, DomainGeneral, turns[1].Domain)
	assert.False(t, c.Busy())

	reqs := backend.sentRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Hello", reqs[0].Message)
	assert.Equal(t, c.SessionID(), reqs[0].SessionID)
	assert.Equal(t, "general", reqs[0].Domain)
	assert.Equal(t, "m1", reqs[0].ModelID)
}

func TestSubmitTrimsWhitespace(t *testing.T) {
	backend := &mockBackend{}
	c := newTestController(t, backend)

	require.NoError(t, c.Submit(context.Background(), "  padded  "))

	turns := c.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "padded", turns[0].Content)
	assert.Equal(t, "padded", backend.sentRequests()[0].Message)
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	backend := &mockBackend{}
	c := newTestController(t, backend)

	for _, text := range []string{"", "   ", "\n\t "} {
		err := c.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Empty(t, c.Turns())
	assert.Empty(t, backend.sentRequests())
}

func TestSubmitBackendError(t *testing.T) {
	backend := &mockBackend{
		respond: func(req TurnRequest) (*TurnResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	c := newTestController(t, backend)

	require.NoError(t, c.Submit(context.Background(), "ping"))

	turns := c.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, TurnError, turns[1].Kind)
	assert.Equal(t, errorTurnContent, turns[1].Content)
	assert.Empty(t, turns[1].ModelUsed)
	assert.Empty(t, turns[1].Domain)
	assert.False(t, c.Busy())
}

func TestSubmitIncompleteResponseIsError(t *testing.T) {
	tests := []struct {
		name string
		resp *TurnResponse
	}{
		{"nil response", nil},
		{"missing response text", &TurnResponse{ModelUsed: "m1", Domain: "general"}},
		{"missing model_used", &TurnResponse{Response: "hi", Domain: "general"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{
				respond: func(req TurnRequest) (*TurnResponse, error) {
					return tt.resp, nil
				},
			}
			c := newTestController(t, backend)

			require.NoError(t, c.Submit(context.Background(), "hello"))

			turns := c.Turns()
			require.Len(t, turns, 2)
			assert.Equal(t, TurnError, turns[1].Kind)
		})
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	backend := &mockBackend{gate: make(chan struct{})}
	c := newTestController(t, backend)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "a") }()

	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	err := c.Submit(context.Background(), "b")
	assert.ErrorIs(t, err, ErrRequestInFlight)

	turns := c.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "a", turns[0].Content)

	close(backend.gate)
	require.NoError(t, <-done)

	require.Len(t, c.Turns(), 2)
	require.Len(t, backend.sentRequests(), 1)
}

func TestSubmitTimeout(t *testing.T) {
	backend := &mockBackend{gate: make(chan struct{})}
	c, err := NewController(Config{Backend: backend, RequestTimeout: 10 * time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, c.Submit(context.Background(), "slow"))

	turns := c.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, TurnError, turns[1].Kind)
	assert.False(t, c.Busy())
}

func TestClearChat(t *testing.T) {
	c := newTestController(t, &mockBackend{})
	require.NoError(t, c.Submit(context.Background(), "hello"))
	require.NoError(t, c.ChangeModel("anthropic.claude-3-haiku-20240307-v1:0"))

	before := c.SessionID()
	c.ClearChat()

	assert.NotEqual(t, before, c.SessionID())
	assert.Empty(t, c.Turns())
	// Domain and model survive a clear.
	assert.Equal(t, DomainGeneral, c.CurrentDomain())
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", c.CurrentModel())
}

func TestClearChatDiscardsStaleResponse(t *testing.T) {
	backend := &mockBackend{gate: make(chan struct{})}
	c := newTestController(t, backend)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "x") }()
	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	c.ClearChat()
	close(backend.gate)
	require.NoError(t, <-done)

	// The in-flight completion must not leak into the new session.
	assert.Empty(t, c.Turns())
	assert.False(t, c.Busy())
}

func TestChangeDomainSameDomainIsNoop(t *testing.T) {
	c := newTestController(t, &mockBackend{})
	before := c.SessionID()

	changed, err := c.ChangeDomain(DomainGeneral)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, c.SessionID())
}

func TestChangeDomainUnknownDomain(t *testing.T) {
	c := newTestController(t, &mockBackend{})

	_, err := c.ChangeDomain("astrology")
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.Equal(t, DomainGeneral, c.CurrentDomain())
}

func TestChangeDomainEmptyHistorySkipsConfirmation(t *testing.T) {
	confirmed := false
	c, err := NewController(Config{
		Backend: &mockBackend{},
		Confirm: func(reason string) bool { confirmed = true; return false },
	})
	require.NoError(t, err)

	changed, err := c.ChangeDomain(DomainHR)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, DomainHR, c.CurrentDomain())
	assert.False(t, confirmed, "confirmation must not be requested for an empty history")
}

func TestChangeDomainGating(t *testing.T) {
	tests := []struct {
		name        string
		confirm     bool
		wantChanged bool
		wantDomain  Domain
	}{
		{"declined", false, false, DomainGeneral},
		{"confirmed", true, true, DomainHR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reason string
			c, err := NewController(Config{
				Backend: &mockBackend{},
				Confirm: func(r string) bool { reason = r; return tt.confirm },
			})
			require.NoError(t, err)
			require.NoError(t, c.Submit(context.Background(), "hello"))
			before := c.SessionID()

			changed, err := c.ChangeDomain(DomainHR)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantDomain, c.CurrentDomain())
			assert.NotEmpty(t, reason)

			if tt.wantChanged {
				assert.NotEqual(t, before, c.SessionID())
				assert.Empty(t, c.Turns())
			} else {
				assert.Equal(t, before, c.SessionID())
				assert.Len(t, c.Turns(), 2)
			}
		})
	}
}

func TestChangeModel(t *testing.T) {
	backend := &mockBackend{}
	c := newTestController(t, backend)
	require.NoError(t, c.Submit(context.Background(), "first"))
	before := c.SessionID()

	require.NoError(t, c.ChangeModel("meta.llama3-70b-instruct-v1:0"))

	// Model changes never reset the session.
	assert.Equal(t, before, c.SessionID())
	assert.Len(t, c.Turns(), 2)

	require.NoError(t, c.Submit(context.Background(), "second"))
	reqs := backend.sentRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, DefaultModelID, reqs[0].ModelID)
	assert.Equal(t, "meta.llama3-70b-instruct-v1:0", reqs[1].ModelID)

	err := c.ChangeModel("bogus-model")
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Equal(t, "meta.llama3-70b-instruct-v1:0", c.CurrentModel())
}

func TestModelChangeDuringFlightDoesNotRelabelReply(t *testing.T) {
	backend := &mockBackend{gate: make(chan struct{})}
	c := newTestController(t, backend)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "x") }()
	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	require.NoError(t, c.ChangeModel("ai21.j2-ultra-v1"))
	close(backend.gate)
	require.NoError(t, <-done)

	turns := c.Turns()
	require.Len(t, turns, 2)
	// The reply carries the model captured at submission time.
	assert.Equal(t, DefaultModelID, turns[1].ModelUsed)
}

func TestSubmitAfterResolutionAccepted(t *testing.T) {
	backend := &mockBackend{}
	c := newTestController(t, backend)

	require.NoError(t, c.Submit(context.Background(), "a"))
	require.NoError(t, c.Submit(context.Background(), "b"))

	turns := c.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, "a", turns[0].Content)
	assert.Equal(t, "b", turns[2].Content)
}
