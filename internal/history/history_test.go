package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/boswallah/course-assistant/models"
)

func msg(role, content string) models.ChatMessage {
	return models.ChatMessage{Role: role, Content: content, Time: time.Now()}
}

func TestMemoryStore_AppendAndRecent(t *testing.T) {
	s := NewMemoryStore(time.Hour, 50)
	ctx := context.Background()

	if err := s.Append(ctx, "sess", msg("user", "first")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.Append(ctx, "sess", msg("assistant", "second")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := s.Recent(ctx, "sess", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 2 || got[0].Content != "first" || got[1].Content != "second" {
		t.Fatalf("expected chronological transcript, got %+v", got)
	}

	got, err = s.Recent(ctx, "other", 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty transcript for unknown session, got %+v (%v)", got, err)
	}
}

func TestMemoryStore_CapsMessages(t *testing.T) {
	s := NewMemoryStore(time.Hour, 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, "sess", msg("user", fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	got, err := s.Recent(ctx, "sess", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 3 || got[0].Content != "m2" || got[2].Content != "m4" {
		t.Fatalf("expected oldest messages dropped, got %+v", got)
	}
}

func TestMemoryStore_RecentLimit(t *testing.T) {
	s := NewMemoryStore(time.Hour, 50)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Append(ctx, "sess", msg("user", fmt.Sprintf("m%d", i)))
	}
	got, _ := s.Recent(ctx, "sess", 2)
	if len(got) != 2 || got[0].Content != "m3" || got[1].Content != "m4" {
		t.Fatalf("expected last two messages, got %+v", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute, 50)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Append(ctx, "sess", msg("user", "hello"))
	now = now.Add(2 * time.Minute)

	got, err := s.Recent(ctx, "sess", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired session to be empty, got %+v", got)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore(time.Hour, 50)
	ctx := context.Background()
	_ = s.Append(ctx, "sess", msg("user", "hello"))
	if err := s.Clear(ctx, "sess"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got, _ := s.Recent(ctx, "sess", 10); len(got) != 0 {
		t.Fatalf("expected cleared session to be empty, got %+v", got)
	}
}
