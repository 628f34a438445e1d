package venue

import (
	"sync"
	"time"
)

// pendingReq is one in-flight correlated request.
type pendingReq struct {
	method  string
	created time.Time
	ch      chan Result
	timer   *time.Timer
}

// pendingTable correlates outbound req_ids with their eventual responses.
// Every entry resolves exactly once: venue response, venue error, or local
// timeout. Unmatched inbound ids are ignored by the caller.
type pendingTable struct {
	mu sync.Mutex
	m  map[string]*pendingReq
}

func newPendingTable() *pendingTable {
	return &pendingTable{m: make(map[string]*pendingReq)}
}

// Add registers a request and arms its timeout. The returned channel
// receives exactly one Result.
func (t *pendingTable) Add(id, method string, timeout time.Duration) <-chan Result {
	p := &pendingReq{
		method:  method,
		created: time.Now(),
		ch:      make(chan Result, 1),
	}
	p.timer = time.AfterFunc(timeout, func() {
		t.Resolve(id, Result{OK: false, Timeout: true, Err: "request timed out"})
	})

	t.mu.Lock()
	t.m[id] = p
	t.mu.Unlock()
	return p.ch
}

// Resolve delivers the result for id and removes the entry. Returns false
// when the id is unknown (already resolved or never ours).
func (t *pendingTable) Resolve(id string, res Result) bool {
	t.mu.Lock()
	p, ok := t.m[id]
	if ok {
		delete(t.m, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	p.timer.Stop()
	p.ch <- res
	return true
}

// Len reports the number of in-flight requests.
func (t *pendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
