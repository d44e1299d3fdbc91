package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	mode, err := s.GetMode(ctx, "room-1")
	if err != nil || mode != "" {
		t.Fatalf("expected empty mode for unknown room, got %q, %v", mode, err)
	}

	if err := s.SetMode(ctx, "room-1", "bombparty"); err != nil {
		t.Fatal(err)
	}
	mode, _ = s.GetMode(ctx, "room-1")
	if mode != "bombparty" {
		t.Errorf("expected bombparty, got %q", mode)
	}

	if err := s.ClearRoom(ctx, "room-1"); err != nil {
		t.Fatal(err)
	}
	mode, _ = s.GetMode(ctx, "room-1")
	if mode != "" {
		t.Errorf("expected cleared mode, got %q", mode)
	}
}
