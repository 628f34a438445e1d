package venue

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SubKey is the composite identity of a subscription: channel + sorted
// symbol set + canonical parameter set. Identical keys dedupe.
type SubKey string

// NewSubKey builds a canonical key. Symbol order and params map iteration
// order do not affect the result.
func NewSubKey(channel string, symbols []string, params map[string]any) SubKey {
	syms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			syms = append(syms, s)
		}
	}
	sort.Strings(syms)

	kvs := make([]string, 0, len(params))
	for k, v := range params {
		kvs = append(kvs, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(kvs)

	return SubKey(channel + "|" + strings.Join(syms, ",") + "|" + strings.Join(kvs, ","))
}

// Subscription is one live venue subscription, replayed after reconnect.
type Subscription struct {
	Key     SubKey
	Kind    Kind
	Channel string
	Symbols []string
	Params  map[string]any
}

// subRegistry keeps at most one live subscription per key.
type subRegistry struct {
	mu   sync.Mutex
	subs map[SubKey]*Subscription
}

func newSubRegistry() *subRegistry {
	return &subRegistry{subs: make(map[SubKey]*Subscription)}
}

func (r *subRegistry) Get(key SubKey) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[key]
	return s, ok
}

// Put registers a subscription. Returns false when the key already exists.
func (r *subRegistry) Put(s *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[s.Key]; ok {
		return false
	}
	r.subs[s.Key] = s
	return true
}

func (r *subRegistry) Remove(key SubKey) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[key]
	if ok {
		delete(r.subs, key)
	}
	return s, ok
}

// ByKind snapshots the subscriptions owned by one connection, for replay.
func (r *subRegistry) ByKind(kind Kind) []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func (r *subRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
