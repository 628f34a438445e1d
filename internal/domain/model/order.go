package model

// OrderType is the venue order type family.
type OrderType string

const (
	OrderTypeMarket          OrderType = "market"
	OrderTypeLimit           OrderType = "limit"
	OrderTypeStopLoss        OrderType = "stop-loss"
	OrderTypeTakeProfit      OrderType = "take-profit"
	OrderTypeStopLossLimit   OrderType = "stop-loss-limit"
	OrderTypeTakeProfitLimit OrderType = "take-profit-limit"
)

// KnownOrderTypes lists every order type the executor accepts.
var KnownOrderTypes = []OrderType{
	OrderTypeMarket,
	OrderTypeLimit,
	OrderTypeStopLoss,
	OrderTypeTakeProfit,
	OrderTypeStopLossLimit,
	OrderTypeTakeProfitLimit,
}

// RequiresPrice reports whether the type is limit-family and needs a price.
func (t OrderType) RequiresPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		return true
	default:
		return false
	}
}

// RequiresStopPrice reports whether the type is stop-family and needs a
// trigger price.
func (t OrderType) RequiresStopPrice() bool {
	switch t {
	case OrderTypeStopLoss, OrderTypeTakeProfit, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		return true
	default:
		return false
	}
}

// OrderStatus is the lifecycle state of a tracked order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusClosed          OrderStatus = "CLOSED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// Terminal reports whether no further transition can occur.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusClosed, OrderStatusCanceled, OrderStatusExpired, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// rank orders statuses along the lifecycle so transitions never regress.
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusOpen:
		return 1
	case OrderStatusPartiallyFilled:
		return 2
	case OrderStatusClosed, OrderStatusCanceled, OrderStatusExpired, OrderStatusFailed:
		return 3
	default:
		return -1
	}
}

// CanTransition reports whether moving from s to next is a forward move in
// the lifecycle state machine.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case OrderStatusFailed:
		return s == OrderStatusPending
	case OrderStatusCanceled, OrderStatusExpired:
		return s == OrderStatusOpen || s == OrderStatusPartiallyFilled
	case OrderStatusPartiallyFilled:
		return s == OrderStatusOpen || s == OrderStatusPartiallyFilled
	default:
		return next.rank() > s.rank()
	}
}

// OrderRequest is a caller- or signal-originated request to place an order.
type OrderRequest struct {
	Symbol    string    `json:"symbol"`
	Side      Direction `json:"side"`
	Type      OrderType `json:"type"`
	Volume    float64   `json:"volume"`
	Price     float64   `json:"price,omitempty"`
	StopPrice float64   `json:"stop_price,omitempty"`
}

// Order is a tracked order. It is identified by a local correlation id
// until the venue acknowledges it with its own order id. Mutated only by
// venue acknowledgements and push events.
type Order struct {
	LocalID      string      `json:"local_id"`
	VenueID      string      `json:"venue_id,omitempty"`
	Symbol       string      `json:"symbol"`
	Side         Direction   `json:"side"`
	Type         OrderType   `json:"type"`
	Volume       float64     `json:"volume"`
	Price        float64     `json:"price,omitempty"`
	StopPrice    float64     `json:"stop_price,omitempty"`
	Status       OrderStatus `json:"status"`
	FilledVolume float64     `json:"filled_volume"`
	AvgFillPrice float64     `json:"avg_fill_price"`
	Reason       string      `json:"reason,omitempty"` // terminal reason for FAILED/CANCELED
	CreatedAt    int64       `json:"created_at"`
	UpdatedAt    int64       `json:"updated_at"`
}

// Remaining is the unfilled volume.
func (o *Order) Remaining() float64 {
	r := o.Volume - o.FilledVolume
	if r < 0 {
		return 0
	}
	return r
}

// Clone returns a copy safe to hand to callers.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
