package venue

import (
	"errors"
	"fmt"
	"testing"
)

func TestSendLimiterBudgetPerWindow(t *testing.T) {
	var sent [][]byte
	l := newSendLimiter(50, 0, func(p []byte) error {
		sent = append(sent, p)
		return nil
	})

	for i := 0; i < 60; i++ {
		l.Send([]byte(fmt.Sprintf("msg-%d", i)))
	}
	if len(sent) != 50 {
		t.Fatalf("first window sent %d, want 50", len(sent))
	}
	if l.Pending() != 10 {
		t.Fatalf("queued %d, want 10", l.Pending())
	}

	l.Reset()
	if len(sent) != 60 {
		t.Fatalf("after reset sent %d, want 60", len(sent))
	}
	if l.Pending() != 0 {
		t.Fatalf("queued %d after reset, want 0", l.Pending())
	}
}

func TestSendLimiterPreservesFIFO(t *testing.T) {
	var sent []string
	l := newSendLimiter(2, 0, func(p []byte) error {
		sent = append(sent, string(p))
		return nil
	})

	for _, msg := range []string{"a", "b", "c", "d"} {
		l.Send([]byte(msg))
	}
	l.Reset()

	want := []string{"a", "b", "c", "d"}
	if len(sent) != len(want) {
		t.Fatalf("sent %d messages, want %d", len(sent), len(want))
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, sent[i], want[i])
		}
	}
}

func TestSendLimiterRequeuesOnWriteFailure(t *testing.T) {
	fail := true
	var sent []string
	l := newSendLimiter(10, 0, func(p []byte) error {
		if fail {
			return errors.New("socket gone")
		}
		sent = append(sent, string(p))
		return nil
	})

	l.Send([]byte("first"))
	l.Send([]byte("second"))
	if len(sent) != 0 {
		t.Fatalf("sent %d while writes failing, want 0", len(sent))
	}
	if l.Pending() != 2 {
		t.Fatalf("queued %d, want 2", l.Pending())
	}

	fail = false
	l.Reset()
	if len(sent) != 2 || sent[0] != "first" || sent[1] != "second" {
		t.Fatalf("after recovery sent %v, want [first second]", sent)
	}
}

func TestSendLimiterBoundedQueueDropsOldest(t *testing.T) {
	var sent []string
	l := newSendLimiter(1, 3, func(p []byte) error {
		sent = append(sent, string(p))
		return nil
	})

	// first consumes the budget; the next four fight for 3 queue slots
	for _, msg := range []string{"0", "1", "2", "3", "4"} {
		l.Send([]byte(msg))
	}
	if l.Pending() != 3 {
		t.Fatalf("queued %d, want 3", l.Pending())
	}
	for i := 0; i < 3; i++ {
		l.Reset()
	}
	// "1" was dropped as the oldest queued message
	want := []string{"0", "2", "3", "4"}
	if len(sent) != len(want) {
		t.Fatalf("sent %v, want %v", sent, want)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("sent %v, want %v", sent, want)
		}
	}
}
