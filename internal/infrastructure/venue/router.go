package venue

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// HandlerToken identifies a registered push handler or status observer.
type HandlerToken uint64

// pushRouter fans channel pushes out to registered handlers. A handler
// registered on WildcardChannel sees every push.
type pushRouter struct {
	mu       sync.RWMutex
	next     HandlerToken
	channels map[string]map[HandlerToken]PushHandler
	tokens   map[HandlerToken]string
}

func newPushRouter() *pushRouter {
	return &pushRouter{
		channels: make(map[string]map[HandlerToken]PushHandler),
		tokens:   make(map[HandlerToken]string),
	}
}

func (r *pushRouter) Add(channel string, h PushHandler) HandlerToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	token := r.next
	if r.channels[channel] == nil {
		r.channels[channel] = make(map[HandlerToken]PushHandler)
	}
	r.channels[channel][token] = h
	r.tokens[token] = channel
	return token
}

func (r *pushRouter) Remove(token HandlerToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	channel, ok := r.tokens[token]
	if !ok {
		return
	}
	delete(r.tokens, token)
	delete(r.channels[channel], token)
	if len(r.channels[channel]) == 0 {
		delete(r.channels, channel)
	}
}

// Dispatch delivers a push to every exact-channel and wildcard handler.
// Handler panics are isolated so one handler cannot abort delivery to the
// rest.
func (r *pushRouter) Dispatch(p Push) {
	r.mu.RLock()
	handlers := make([]PushHandler, 0, 4)
	for _, h := range r.channels[p.Channel] {
		handlers = append(handlers, h)
	}
	if p.Channel != WildcardChannel {
		for _, h := range r.channels[WildcardChannel] {
			handlers = append(handlers, h)
		}
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		safeDispatch(h, p)
	}
}

func safeDispatch(h PushHandler, p Push) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("channel", p.Channel).Msg("push handler panicked")
		}
	}()
	h(p)
}
