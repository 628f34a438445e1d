package venue

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// sendLimiter enforces the fixed-window outbound budget. Sends beyond the
// budget are queued FIFO, never dropped or errored, and flushed as the
// window resets. A write failure re-queues the message at the front and
// halts flushing for that tick.
//
// The queue itself is bounded: past maxQueue the oldest queued message is
// dropped and logged, so sustained rate-limiting cannot grow memory
// without limit.
type sendLimiter struct {
	mu       sync.Mutex
	budget   int
	used     int
	maxQueue int
	queue    [][]byte
	write    func([]byte) error
}

func newSendLimiter(budget, maxQueue int, write func([]byte) error) *sendLimiter {
	return &sendLimiter{
		budget:   budget,
		maxQueue: maxQueue,
		write:    write,
	}
}

// Send enqueues a payload and flushes as far as the window budget allows.
func (l *sendLimiter) Send(payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queue = append(l.queue, payload)
	if l.maxQueue > 0 && len(l.queue) > l.maxQueue {
		l.queue = l.queue[1:]
		log.Warn().Int("max_queue", l.maxQueue).Msg("outbound queue full, dropping oldest message")
	}
	l.flushLocked()
}

// Reset starts a new window and flushes whatever queued up meanwhile.
func (l *sendLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.used = 0
	l.flushLocked()
}

// Pending reports how many messages are still queued.
func (l *sendLimiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *sendLimiter) flushLocked() {
	for l.used < l.budget && len(l.queue) > 0 {
		payload := l.queue[0]
		l.queue = l.queue[1:]
		if err := l.write(payload); err != nil {
			// back to the front; the next window (or reconnect) retries
			l.queue = append([][]byte{payload}, l.queue...)
			log.Debug().Err(err).Msg("outbound write failed, halting flush")
			return
		}
		l.used++
	}
}
