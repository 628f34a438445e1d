package venue

import "encoding/json"

// Kind selects one of the two logical connections.
type Kind string

const (
	Public  Kind = "public"
	Private Kind = "private"
)

// Outbound request methods understood by the venue.
const (
	MethodSubscribe      = "subscribe"
	MethodUnsubscribe    = "unsubscribe"
	MethodAddOrder       = "add_order"
	MethodEditOrder      = "edit_order"
	MethodCancelOrder    = "cancel_order"
	MethodCancelAll      = "cancel_all"
	MethodGetOpenOrders  = "get_open_orders"
	MethodGetOrderStatus = "get_order_status"
	MethodLogin          = "login"
)

// Request is the outbound wire shape: {method, params, req_id}.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	ReqID  string `json:"req_id"`
}

// envelope covers both inbound shapes: correlated responses carry req_id,
// channel pushes carry channel.
type envelope struct {
	ReqID   string          `json:"req_id,omitempty"`
	Result  *bool           `json:"result,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Channel string          `json:"channel,omitempty"`
}

// Result is the correlated outcome of an outbound request. Callers must
// check OK; failures are values, never panics.
type Result struct {
	OK      bool
	Timeout bool
	Data    json.RawMessage
	Err     string
}

// Push is a channel push message delivered to registered handlers.
type Push struct {
	Channel string
	Data    json.RawMessage
}

// PushHandler consumes channel pushes. Panics are isolated per handler.
type PushHandler func(Push)

// WildcardChannel matches every push channel.
const WildcardChannel = "*"
