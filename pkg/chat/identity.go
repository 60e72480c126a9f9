package chat

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates a fresh opaque session identifier. The token
// combines a random component with the current time in milliseconds, so
// identifiers are unique within a process with overwhelming probability.
// Generation cannot fail; on the (theoretical) failure of the system
// entropy source, crypto/rand panics rather than returning weak bytes.
func NewSessionID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("chat: reading random bytes: %v", err))
	}
	return fmt.Sprintf("session_%s_%d", hex.EncodeToString(b[:]), time.Now().UnixMilli())
}

// newTurnID generates a unique identifier for a history turn. Two turns
// appended in the same logical step must not collide, so a plain timestamp
// is not enough.
func newTurnID() string {
	return uuid.New().String()
}
