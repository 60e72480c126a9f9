package backend

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/domainchat-dev/domainchat/pkg/chat"
	"github.com/domainchat-dev/domainchat/pkg/observability"
)

const tracerName = "github.com/domainchat-dev/domainchat/internal/backend"

// Instrumented wraps a chat.Backend with tracing and metrics. Every
// round-trip gets a span carrying the model and domain in use, plus a
// duration observation in the backend request histogram.
type Instrumented struct {
	next   chat.Backend
	tracer trace.Tracer
}

// NewInstrumented wraps the given backend.
func NewInstrumented(next chat.Backend) *Instrumented {
	return &Instrumented{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

// Send performs one instrumented turn round-trip.
func (i *Instrumented) Send(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	ctx, span := i.tracer.Start(ctx, "backend.send",
		trace.WithAttributes(
			attribute.String("chat.domain", req.Domain),
			attribute.String("chat.model_id", req.ModelID),
			attribute.String("chat.session_id", req.SessionID),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := i.next.Send(ctx, req)
	observability.RecordBackendRequest(req.ModelID, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordTurn(req.Domain, "error")
		return nil, err
	}

	span.SetAttributes(attribute.String("chat.model_used", resp.ModelUsed))
	observability.RecordTurn(req.Domain, "ok")
	return resp, nil
}
