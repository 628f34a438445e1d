package sqlite

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestSQLiteLogEvent(t *testing.T) {
	dbPath := "test_audit.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	id, err := repo.LogEvent(ctx, "order_placed", `{"local_id":"abc"}`)
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	if id == "" {
		t.Fatal("LogEvent returned empty id")
	}

	events, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID != id || events[0].Type != "order_placed" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestSQLiteRecentNewestFirst(t *testing.T) {
	dbPath := "test_audit_order.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if _, err := repo.LogEvent(ctx, "first", "{}"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := repo.LogEvent(ctx, "second", "{}"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := repo.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != "second" {
		t.Errorf("expected newest event first, got %+v", events)
	}
}

func TestSQLitePrune(t *testing.T) {
	dbPath := "test_audit_prune.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if _, err := repo.LogEvent(ctx, "old", "{}"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	n, err := repo.Prune(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned event, got %d", n)
	}

	events, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after prune, got %d", len(events))
	}
}
