package backend

import (
	"context"

	"github.com/domainchat-dev/domainchat/pkg/chat"
)

// Mock is a programmable chat.Backend for tests and offline development.
// If SendFunc is nil, Send echoes the request.
type Mock struct {
	SendFunc func(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error)
	Calls    []chat.TurnRequest
}

// Send records the request and delegates to SendFunc.
func (m *Mock) Send(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return &chat.TurnResponse{
		Response:  "echo: " + req.Message,
		ModelUsed: req.ModelID,
		Domain:    req.Domain,
	}, nil
}
