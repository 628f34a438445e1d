package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tradewire/internal/application/port"
	"tradewire/internal/domain/model"
)

// Config holds the connection manager tunables.
type Config struct {
	Platform   string
	PublicURL  string
	PrivateURL string

	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	Budget   int
	Window   time.Duration
	MaxQueue int

	RequestTimeout time.Duration
	DialTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.Budget <= 0 {
		c.Budget = 50
	}
	if c.Window <= 0 {
		c.Window = time.Second
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 1024
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
}

// Manager owns the public and private venue connections: reconnection,
// authentication, subscription bookkeeping and the outbound rate budget.
type Manager struct {
	cfg   Config
	creds port.CredentialStore

	pending *pendingTable
	router  *pushRouter
	subs    *subRegistry

	mu    sync.Mutex
	conns map[Kind]*conn

	statusMu   sync.RWMutex
	statusNext HandlerToken
	statusObs  map[HandlerToken]func(Status)
}

// NewManager builds a manager; connections are established with Connect.
func NewManager(cfg Config, creds port.CredentialStore) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:       cfg,
		creds:     creds,
		pending:   newPendingTable(),
		router:    newPushRouter(),
		subs:      newSubRegistry(),
		conns:     make(map[Kind]*conn),
		statusObs: make(map[HandlerToken]func(Status)),
	}
}

// Connect starts the connection lifecycle for kind. Calling it again while
// the connection is live is a no-op.
func (m *Manager) Connect(ctx context.Context, kind Kind) error {
	url := m.cfg.PublicURL
	if kind == Private {
		url = m.cfg.PrivateURL
	}
	if url == "" {
		return fmt.Errorf("venue: no url configured for %s connection", kind)
	}

	m.mu.Lock()
	if _, ok := m.conns[kind]; ok {
		m.mu.Unlock()
		return nil
	}
	c := newConn(kind, url, m.cfg.Budget, m.cfg.MaxQueue)
	m.conns[kind] = c
	m.mu.Unlock()

	go m.run(ctx, c)
	return nil
}

// Disconnect closes a connection gracefully; no reconnect is scheduled.
func (m *Manager) Disconnect(kind Kind) error {
	m.mu.Lock()
	c, ok := m.conns[kind]
	if ok {
		delete(m.conns, kind)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	c.graceful.Store(true)
	c.closeWS()
	return nil
}

// State reports the current state of one connection.
func (m *Manager) State(kind Kind) State {
	m.mu.Lock()
	c, ok := m.conns[kind]
	m.mu.Unlock()
	if !ok {
		return StateDisconnected
	}
	return c.State()
}

// OnStatus registers a connection-status observer.
func (m *Manager) OnStatus(fn func(Status)) HandlerToken {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.statusNext++
	m.statusObs[m.statusNext] = fn
	return m.statusNext
}

// RemoveStatusObserver drops a status observer by its token.
func (m *Manager) RemoveStatusObserver(token HandlerToken) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	delete(m.statusObs, token)
}

// OnPush registers a push handler for a channel (or WildcardChannel).
func (m *Manager) OnPush(channel string, h PushHandler) HandlerToken {
	return m.router.Add(channel, h)
}

// RemovePushHandler drops a push handler by its token.
func (m *Manager) RemovePushHandler(token HandlerToken) {
	m.router.Remove(token)
}

// Subscribe registers a subscription. A duplicate key is a no-op that
// returns the existing key without a second upstream request.
func (m *Manager) Subscribe(ctx context.Context, kind Kind, channel string, symbols []string, params map[string]any) (SubKey, error) {
	key := NewSubKey(channel, symbols, params)
	if existing, ok := m.subs.Get(key); ok {
		return existing.Key, nil
	}

	sub := &Subscription{Key: key, Kind: kind, Channel: channel, Symbols: symbols, Params: params}
	if !m.subs.Put(sub) {
		return key, nil
	}

	res := m.Send(ctx, kind, MethodSubscribe, subscribeParams(sub))
	if !res.OK && !res.Timeout {
		// venue rejection: undo the registration; a timeout keeps it so
		// the key is replayed after reconnect
		m.subs.Remove(key)
		return "", &model.VenueError{Method: MethodSubscribe, Message: res.Err}
	}
	return key, nil
}

// Unsubscribe cancels future delivery for a key. An in-flight correlated
// request already sent for that subscription is not aborted.
func (m *Manager) Unsubscribe(ctx context.Context, key SubKey) error {
	sub, ok := m.subs.Remove(key)
	if !ok {
		return nil
	}
	res := m.Send(ctx, sub.Kind, MethodUnsubscribe, subscribeParams(sub))
	if !res.OK && !res.Timeout {
		return &model.VenueError{Method: MethodUnsubscribe, Message: res.Err}
	}
	return nil
}

// Subscriptions snapshots the live subscriptions for one connection kind.
func (m *Manager) Subscriptions(kind Kind) []*Subscription {
	return m.subs.ByKind(kind)
}

// Send issues a correlated request and blocks until its single resolution:
// venue response, venue error, or local timeout. Rate-limited sends queue
// rather than fail.
func (m *Manager) Send(ctx context.Context, kind Kind, method string, params any) Result {
	m.mu.Lock()
	c, ok := m.conns[kind]
	m.mu.Unlock()
	if !ok {
		return Result{OK: false, Err: model.ErrNotConnected.Error()}
	}
	return m.sendOn(ctx, c, method, params)
}

func (m *Manager) sendOn(ctx context.Context, c *conn, method string, params any) Result {
	id := uuid.NewString()
	payload, err := json.Marshal(Request{Method: method, Params: params, ReqID: id})
	if err != nil {
		return Result{OK: false, Err: err.Error()}
	}

	ch := m.pending.Add(id, method, m.cfg.RequestTimeout)
	c.limiter.Send(payload)

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return Result{OK: false, Err: ctx.Err().Error()}
	}
}

// run is the reconnect loop for one connection. A non-graceful close from
// any state schedules the next attempt; exhausting the attempt budget is
// the one fatal condition.
func (m *Manager) run(ctx context.Context, c *conn) {
	defer m.dropConn(c)
	attempt := 0
	for {
		if ctx.Err() != nil || c.graceful.Load() {
			m.setState(c, StateDisconnected, attempt, nil, false)
			return
		}
		if attempt > 0 {
			if attempt > m.cfg.MaxAttempts {
				log.Error().Str("conn", string(c.kind)).Int("attempts", attempt-1).Msg("reconnect attempts exhausted")
				m.setState(c, StateDisconnected, attempt, model.ErrReconnectExhausted, true)
				return
			}
			delay := backoffDelay(m.cfg.BaseDelay, m.cfg.MaxDelay, attempt-1)
			log.Warn().Str("conn", string(c.kind)).Int("attempt", attempt).Dur("delay", delay).Msg("reconnecting")
			if !sleepCtx(ctx, delay) {
				m.setState(c, StateDisconnected, attempt, nil, false)
				return
			}
		}

		m.setState(c, StateConnecting, attempt, nil, false)
		dctx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
		ws, _, err := websocket.DefaultDialer.DialContext(dctx, c.url, nil)
		cancel()
		if err != nil {
			log.Error().Str("conn", string(c.kind)).Err(err).Msg("dial failed")
			attempt++
			continue
		}
		c.setWS(ws)
		c.limiter.Reset() // fresh session starts with a full window budget
		m.setState(c, StateConnected, attempt, nil, false)

		sctx, stop := context.WithCancel(ctx)
		sessErr := make(chan error, 1)
		go m.readLoop(ws, sessErr)
		go m.windowLoop(sctx, c)

		ready := true
		if c.kind == Private {
			m.setState(c, StateAuthenticating, attempt, nil, false)
			if err := m.authenticate(sctx, c); err != nil {
				log.Error().Str("conn", string(c.kind)).Err(err).Msg("authentication failed")
				m.setState(c, StateConnecting, attempt, err, false)
				ready = false
			} else {
				m.setState(c, StateAuthenticated, attempt, nil, false)
			}
		}

		if ready {
			// private resubscription happens only after re-auth succeeded
			m.resubscribe(c)
			attempt = 0
			select {
			case <-ctx.Done():
			case err := <-sessErr:
				log.Warn().Str("conn", string(c.kind)).Err(err).Msg("connection dropped")
			}
		}

		stop()
		c.closeWS()
		if c.graceful.Load() || ctx.Err() != nil {
			m.setState(c, StateDisconnected, attempt, nil, false)
			return
		}
		attempt++
	}
}

// dropConn removes a finished connection from the table so a later Connect
// can start a fresh lifecycle. Disconnect may already have replaced or
// removed the entry; only this conn's own slot is cleared.
func (m *Manager) dropConn(c *conn) {
	m.mu.Lock()
	if m.conns[c.kind] == c {
		delete(m.conns, c.kind)
	}
	m.mu.Unlock()
}

func (m *Manager) readLoop(ws *websocket.Conn, sessErr chan<- error) {
	for {
		_, b, err := ws.ReadMessage()
		if err != nil {
			sessErr <- err
			return
		}
		m.handleInbound(b)
	}
}

// windowLoop resets the outbound budget every window, flushing the queue.
func (m *Manager) windowLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(m.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.limiter.Reset()
		}
	}
}

// handleInbound classifies one inbound frame: channel push, correlated
// response, or noise.
func (m *Manager) handleInbound(b []byte) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		log.Debug().Err(err).Msg("unparseable venue frame")
		return
	}
	if env.Channel != "" {
		m.router.Dispatch(Push{Channel: env.Channel, Data: env.Data})
		return
	}
	if env.ReqID == "" {
		return
	}
	ok := env.Error == "" && (env.Result == nil || *env.Result)
	if !m.pending.Resolve(env.ReqID, Result{OK: ok, Data: env.Data, Err: env.Error}) {
		log.Debug().Str("req_id", env.ReqID).Msg("response for unknown request ignored")
	}
}

// authenticate performs the single login exchange on the private
// connection. Failure aborts the attempt; the reconnect schedule applies.
func (m *Manager) authenticate(ctx context.Context, c *conn) error {
	token, err := m.creds.Get(ctx, m.cfg.Platform)
	if err != nil {
		return &model.AuthError{Message: err.Error()}
	}
	if token == "" {
		return &model.AuthError{Message: "no credential stored for " + m.cfg.Platform}
	}
	res := m.sendOn(ctx, c, MethodLogin, map[string]any{"token": token})
	if !res.OK {
		return &model.AuthError{Message: res.Err}
	}
	return nil
}

// resubscribe replays every subscription owned by this connection kind,
// in arbitrary order.
func (m *Manager) resubscribe(c *conn) {
	subs := m.subs.ByKind(c.kind)
	for _, sub := range subs {
		sub := sub
		go func() {
			res := m.sendOn(context.Background(), c, MethodSubscribe, subscribeParams(sub))
			if !res.OK {
				log.Error().Str("key", string(sub.Key)).Str("err", res.Err).Msg("resubscribe failed")
			}
		}()
	}
	if len(subs) > 0 {
		log.Info().Str("conn", string(c.kind)).Int("count", len(subs)).Msg("replaying subscriptions")
	}
}

func (m *Manager) setState(c *conn, s State, attempt int, err error, fatal bool) {
	c.setState(s)
	status := Status{Kind: c.kind, State: s, Attempt: attempt, Fatal: fatal}
	if err != nil {
		status.Err = err.Error()
	}

	m.statusMu.RLock()
	obs := make([]func(Status), 0, len(m.statusObs))
	for _, fn := range m.statusObs {
		obs = append(obs, fn)
	}
	m.statusMu.RUnlock()
	for _, fn := range obs {
		fn(status)
	}
}

func subscribeParams(s *Subscription) map[string]any {
	p := map[string]any{"channel": s.Channel, "symbols": s.Symbols}
	for k, v := range s.Params {
		p[k] = v
	}
	return p
}

// sleepCtx waits d or until ctx is done; reports whether the full delay
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
