package venue

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"tradewire/internal/domain/model"
)

// conn is the runtime of one logical connection. It is destroyed and
// recreated (the socket, not the struct) on every reconnect; the limiter
// and its queue survive the reconnect so queued sends are not lost.
type conn struct {
	kind    Kind
	url     string
	limiter *sendLimiter

	mu       sync.Mutex
	ws       *websocket.Conn
	state    atomic.Int32
	graceful atomic.Bool
}

func newConn(kind Kind, url string, budget, maxQueue int) *conn {
	c := &conn{kind: kind, url: url}
	c.limiter = newSendLimiter(budget, maxQueue, c.writeMessage)
	return c
}

func (c *conn) State() State {
	return State(c.state.Load())
}

func (c *conn) setState(s State) {
	c.state.Store(int32(s))
}

func (c *conn) setWS(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
}

func (c *conn) closeWS() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close()
	}
}

// writeMessage is the limiter's write target; it always addresses the
// current socket.
func (c *conn) writeMessage(payload []byte) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return model.ErrNotConnected
	}
	return ws.WriteMessage(websocket.TextMessage, payload)
}
