package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/domainchat-dev/domainchat/pkg/chat"
)

// ErrInvalidSessionID is returned when a session ID contains unsafe path
// characters.
var ErrInvalidSessionID = errors.New("invalid session ID: contains path separator or traversal sequence")

// validateSessionID checks that a session ID is safe to use as a path
// component.
func validateSessionID(s string) error {
	if s == "" {
		return errors.New("session ID cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return ErrInvalidSessionID
	}
	return nil
}

// FileStore implements Store using JSON files.
// Storage layout:
//
//	<baseDir>/
//	  ├── index.json            # Summary index
//	  └── <session-id>.json     # Full transcript
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	closed  bool
}

// NewFileStore creates a file-based transcript store. If baseDir is empty,
// uses ~/.domainchat/transcripts.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".domainchat", "transcripts")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

// Save stores a transcript and updates the index.
func (f *FileStore) Save(ctx context.Context, t *chat.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}
	if err := validateSessionID(t.SessionID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	path := filepath.Join(f.baseDir, t.SessionID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	index, err := f.loadIndex()
	if err != nil {
		return err
	}
	index[t.SessionID] = Summary{
		SessionID:    t.SessionID,
		ExportDate:   t.ExportDate,
		MessageCount: len(t.Messages),
	}
	return f.saveIndex(index)
}

// Load retrieves a transcript by session ID.
func (f *FileStore) Load(ctx context.Context, sessionID string) (*chat.Transcript, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrStoreClosed
	}
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	path := filepath.Join(f.baseDir, sessionID+".json")
	data, err := os.ReadFile(path) // #nosec G304 - session ID validated to prevent traversal
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var t chat.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return &t, nil
}

// List returns transcript summaries, newest first.
func (f *FileStore) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrStoreClosed
	}

	index, err := f.loadIndex()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(index))
	for _, s := range index {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ExportDate.After(summaries[j].ExportDate)
	})

	return page(summaries, opts), nil
}

// Delete removes a transcript and its index entry.
func (f *FileStore) Delete(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	index, err := f.loadIndex()
	if err != nil {
		return err
	}
	if _, ok := index[sessionID]; !ok {
		return ErrTranscriptNotFound
	}
	delete(index, sessionID)

	path := filepath.Join(f.baseDir, sessionID+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove transcript: %w", err)
	}
	return f.saveIndex(index)
}

// Close marks the store closed. Further operations fail with
// ErrStoreClosed.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// loadIndex reads the summary index. Callers must hold f.mu.
func (f *FileStore) loadIndex() (map[string]Summary, error) {
	index := make(map[string]Summary)
	data, err := os.ReadFile(filepath.Join(f.baseDir, "index.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return index, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	return index, nil
}

// saveIndex writes the summary index. Callers must hold f.mu.
func (f *FileStore) saveIndex(index map[string]Summary) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.baseDir, "index.json"), data, 0600); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// page applies Limit/Offset to an already-sorted summary slice.
func page(summaries []Summary, opts ListOptions) []Summary {
	if opts.Offset > 0 {
		if opts.Offset >= len(summaries) {
			return []Summary{}
		}
		summaries = summaries[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(summaries) {
		summaries = summaries[:opts.Limit]
	}
	return summaries
}
