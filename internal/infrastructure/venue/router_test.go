package venue

import (
	"encoding/json"
	"testing"
)

func TestRouterExactAndWildcard(t *testing.T) {
	r := newPushRouter()
	var tickerHits, wildcardHits int

	r.Add("ticker", func(Push) { tickerHits++ })
	r.Add(WildcardChannel, func(Push) { wildcardHits++ })

	r.Dispatch(Push{Channel: "ticker"})
	r.Dispatch(Push{Channel: "trade"})

	if tickerHits != 1 {
		t.Fatalf("ticker handler hit %d times, want 1", tickerHits)
	}
	if wildcardHits != 2 {
		t.Fatalf("wildcard handler hit %d times, want 2", wildcardHits)
	}
}

func TestRouterRemoveByToken(t *testing.T) {
	r := newPushRouter()
	var hits int
	token := r.Add("ticker", func(Push) { hits++ })

	r.Dispatch(Push{Channel: "ticker"})
	r.Remove(token)
	r.Dispatch(Push{Channel: "ticker"})

	if hits != 1 {
		t.Fatalf("handler hit %d times after removal, want 1", hits)
	}
}

func TestRouterPanicIsolated(t *testing.T) {
	r := newPushRouter()
	var survived bool

	r.Add("ticker", func(Push) { panic("boom") })
	r.Add(WildcardChannel, func(Push) { survived = true })

	r.Dispatch(Push{Channel: "ticker", Data: json.RawMessage(`{}`)})

	if !survived {
		t.Fatal("panicking handler aborted delivery to the rest")
	}
}
