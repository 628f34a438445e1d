package venue

import (
	"testing"
	"time"
)

func TestBackoffDelayGrows(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	if got := backoffDelay(base, max, 0); got != base {
		t.Fatalf("attempt 0: got %v, want %v", got, base)
	}
	prev := time.Duration(0)
	for attempt := 0; attempt < 8; attempt++ {
		d := backoffDelay(base, max, attempt)
		if d < prev {
			t.Fatalf("attempt %d: delay %v shrank below %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestBackoffDelayFactor(t *testing.T) {
	d := backoffDelay(time.Second, time.Minute, 2)
	want := 2250 * time.Millisecond // 1s * 1.5^2
	if d != want {
		t.Fatalf("got %v, want %v", d, want)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	max := 10 * time.Second
	if got := backoffDelay(time.Second, max, 50); got != max {
		t.Fatalf("got %v, want cap %v", got, max)
	}
}

func TestBackoffDelayNegativeAttempt(t *testing.T) {
	if got := backoffDelay(time.Second, time.Minute, -1); got != time.Second {
		t.Fatalf("got %v, want base", got)
	}
}
