// Package archive stores exported chat transcripts so past conversations
// can be listed and reread after the session that produced them is gone.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/domainchat-dev/domainchat/pkg/chat"
)

// Common errors for archive operations.
var (
	// ErrTranscriptNotFound is returned when no transcript exists for a
	// session ID.
	ErrTranscriptNotFound = errors.New("transcript not found")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("archive store is closed")
)

// Summary holds transcript metadata for listing without loading the full
// message log.
type Summary struct {
	// SessionID identifies the archived conversation.
	SessionID string `json:"sessionId"`
	// ExportDate is when the transcript was exported.
	ExportDate time.Time `json:"exportDate"`
	// MessageCount is the number of turns in the transcript.
	MessageCount int `json:"messageCount"`
}

// Store abstracts transcript persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a transcript, replacing any previous transcript for the
	// same session.
	Save(ctx context.Context, t *chat.Transcript) error

	// Load retrieves a transcript by session ID.
	// Returns ErrTranscriptNotFound if none exists.
	Load(ctx context.Context, sessionID string) (*chat.Transcript, error)

	// List returns transcript summaries, newest first.
	List(ctx context.Context, opts ListOptions) ([]Summary, error)

	// Delete removes a transcript.
	Delete(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}

// ListOptions provides paging for transcript listing.
type ListOptions struct {
	// Limit caps the number of results (0 = no limit).
	Limit int
	// Offset skips the first N results.
	Offset int
}
