package credstore

import (
	"context"
	"testing"
)

func TestMemoryGetSeeded(t *testing.T) {
	m := NewMemory(map[string]string{"kraken": "tok-1"})
	ctx := context.Background()

	token, err := m.Get(ctx, "kraken")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q, want tok-1", token)
	}
}

func TestMemoryGetMissingReturnsEmpty(t *testing.T) {
	m := NewMemory(nil)
	token, err := m.Get(context.Background(), "kraken")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if token != "" {
		t.Fatalf("token = %q, want empty", token)
	}
}

func TestMemorySetAndDelete(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()

	if err := m.Set(ctx, "kraken", "tok-2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	token, _ := m.Get(ctx, "kraken")
	if token != "tok-2" {
		t.Fatalf("token = %q, want tok-2", token)
	}

	if err := m.Delete(ctx, "kraken"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	token, _ = m.Get(ctx, "kraken")
	if token != "" {
		t.Fatalf("token after delete = %q, want empty", token)
	}
}
