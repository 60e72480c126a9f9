package archive

import (
	"context"
	"testing"
	"time"

	"github.com/domainchat-dev/domainchat/pkg/chat"
)

func sampleTranscript(sessionID string, exported time.Time) *chat.Transcript {
	return &chat.Transcript{
		SessionID:  sessionID,
		ExportDate: exported,
		Messages: []chat.Turn{
			{ID: "t1", Kind: chat.TurnUser, Content: "Hello", Timestamp: exported},
			{ID: "t2", Kind: chat.TurnAssistant, Content: "Hi there", Timestamp: exported, ModelUsed: "m1", Domain: chat.DomainGeneral},
		},
	}
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	want := sampleTranscript("session_abc_1", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "session_abc_1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.SessionID != want.SessionID {
		t.Errorf("SessionID = %v, want %v", got.SessionID, want.SessionID)
	}
	if len(got.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want 2", len(got.Messages))
	}
	if got.Messages[1].ModelUsed != "m1" {
		t.Errorf("ModelUsed = %v, want m1", got.Messages[1].ModelUsed)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	_, err = store.Load(context.Background(), "session_missing_1")
	if err != ErrTranscriptNotFound {
		t.Errorf("Load() error = %v, want ErrTranscriptNotFound", err)
	}
}

func TestFileStoreRejectsUnsafeSessionID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		tr := sampleTranscript(id, time.Now().UTC())
		if err := store.Save(ctx, tr); err == nil {
			t.Errorf("Save(%q) should fail", id)
		}
	}
}

func TestFileStoreListNewestFirst(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"session_a_1", "session_b_2", "session_c_3"} {
		if err := store.Save(ctx, sampleTranscript(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	summaries, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("len(summaries) = %d, want 3", len(summaries))
	}
	if summaries[0].SessionID != "session_c_3" {
		t.Errorf("first summary = %s, want session_c_3", summaries[0].SessionID)
	}

	limited, err := store.List(ctx, ListOptions{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 1 || limited[0].SessionID != "session_b_2" {
		t.Errorf("paged list = %+v, want [session_b_2]", limited)
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	if err := store.Save(ctx, sampleTranscript("session_del_1", time.Now().UTC())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "session_del_1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "session_del_1"); err != ErrTranscriptNotFound {
		t.Errorf("Load() after delete error = %v, want ErrTranscriptNotFound", err)
	}
	if err := store.Delete(ctx, "session_del_1"); err != ErrTranscriptNotFound {
		t.Errorf("second Delete() error = %v, want ErrTranscriptNotFound", err)
	}
}

func TestFileStoreClosed(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	_ = store.Close()

	if err := store.Save(context.Background(), sampleTranscript("session_x_1", time.Now().UTC())); err != ErrStoreClosed {
		t.Errorf("Save() after close error = %v, want ErrStoreClosed", err)
	}
}
