package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Transcript is the serializable form of one session's history. Writing it
// to disk (or offering it as a download) is the caller's concern.
type Transcript struct {
	SessionID  string    `json:"sessionId"`
	ExportDate time.Time `json:"exportDate"`
	Messages   []Turn    `json:"messages"`
}

// Export snapshots the current session as a transcript.
func (c *Controller) Export() *Transcript {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	return &Transcript{
		SessionID:  sessionID,
		ExportDate: c.now(),
		Messages:   c.history.All(),
	}
}

// JSON renders the transcript as indented, human-readable JSON.
func (t *Transcript) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	return data, nil
}

// Filename suggests a file name embedding a truncated session identifier
// and the export date for uniqueness.
func (t *Transcript) Filename() string {
	sid := strings.TrimPrefix(t.SessionID, "session_")
	if len(sid) > 8 {
		sid = sid[:8]
	}
	return fmt.Sprintf("chat-history-%s-%s.json", sid, t.ExportDate.Format("2006-01-02"))
}
