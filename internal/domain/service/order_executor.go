package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tradewire/internal/application/port"
	"tradewire/internal/domain/model"
)

// VenueReply is the outcome of one private request to the venue.
type VenueReply struct {
	OK      bool
	Timeout bool
	Data    json.RawMessage
	Err     string
}

// orderTransport sends private requests over the venue connection.
type orderTransport interface {
	Request(ctx context.Context, method string, params any) VenueReply
}

// OrderExecutor validates, places and tracks orders. State is mutated only
// by venue acknowledgements and private push events; callers always get
// clones.
type OrderExecutor struct {
	transport orderTransport
	audit     port.AuditSink
	risk      *RiskManager

	mu        sync.Mutex
	orders    map[string]*model.Order // by local id
	byVenueID map[string]string       // venue order id -> local id
	waiters   map[string][]chan *model.Order
	// fills seen before their venue id registered
	unmatched map[string][]earlyFill

	now func() time.Time
}

// earlyFill is a fill that arrived on the stream before Place consumed the
// ack carrying its venue order id.
type earlyFill struct {
	price  float64
	volume float64
	seen   time.Time
}

// earlyFillGrace bounds how long a fill for an unknown venue id is held
// before it is discarded as genuinely foreign.
const earlyFillGrace = 10 * time.Second

func NewOrderExecutor(transport orderTransport, audit port.AuditSink) *OrderExecutor {
	return &OrderExecutor{
		transport: transport,
		audit:     audit,
		orders:    make(map[string]*model.Order),
		byVenueID: make(map[string]string),
		waiters:   make(map[string][]chan *model.Order),
		unmatched: make(map[string][]earlyFill),
		now:       time.Now,
	}
}

// SetRiskManager enables pre-trade limit checks on Place.
func (x *OrderExecutor) SetRiskManager(rm *RiskManager) {
	x.risk = rm
}

func validateRequest(req model.OrderRequest) error {
	if req.Symbol == "" {
		return &model.ValidationError{Field: "symbol", Reason: "required"}
	}
	if req.Side != model.DirectionBuy && req.Side != model.DirectionSell {
		return &model.ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	known := false
	for _, t := range model.KnownOrderTypes {
		if req.Type == t {
			known = true
			break
		}
	}
	if !known {
		return &model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown order type %q", req.Type)}
	}
	if req.Volume <= 0 {
		return &model.ValidationError{Field: "volume", Reason: "must be positive"}
	}
	if req.Type.RequiresPrice() && req.Price <= 0 {
		return &model.ValidationError{Field: "price", Reason: fmt.Sprintf("required for %s orders", req.Type)}
	}
	if req.Type.RequiresStopPrice() && req.StopPrice <= 0 {
		return &model.ValidationError{Field: "stop_price", Reason: fmt.Sprintf("required for %s orders", req.Type)}
	}
	return nil
}

// Place validates the request and submits it to the venue. Validation
// failures return before anything touches the network. A timeout leaves
// the order PENDING so a later recovery pass can reconcile it.
func (x *OrderExecutor) Place(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if x.risk != nil {
		if err := x.risk.CanPlace(req, x.Open()); err != nil {
			return nil, err
		}
		x.risk.RecordPlacement(req.Symbol)
	}

	ts := x.now().UnixMilli()
	order := &model.Order{
		LocalID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Volume:    req.Volume,
		Price:     req.Price,
		StopPrice: req.StopPrice,
		Status:    model.OrderStatusPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	x.mu.Lock()
	x.orders[order.LocalID] = order
	x.mu.Unlock()

	params := map[string]any{
		"symbol":   req.Symbol,
		"side":     string(req.Side),
		"type":     string(req.Type),
		"volume":   req.Volume,
		"local_id": order.LocalID,
	}
	if req.Price > 0 {
		params["price"] = req.Price
	}
	if req.StopPrice > 0 {
		params["stop_price"] = req.StopPrice
	}

	reply := x.transport.Request(ctx, "add_order", params)
	switch {
	case reply.Timeout:
		x.logAudit("order_timeout", order)
		return x.snapshot(order.LocalID), model.ErrRequestTimeout
	case !reply.OK:
		x.mu.Lock()
		x.transitionLocked(order, model.OrderStatusFailed, reply.Err)
		out := order.Clone()
		x.mu.Unlock()
		x.logAudit("order_rejected", out)
		return out, &model.VenueError{Method: "add_order", Message: reply.Err}
	}

	var ack struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(reply.Data, &ack); err != nil || ack.OrderID == "" {
		log.Warn().Str("local_id", order.LocalID).Msg("add_order ack without venue order id")
	}

	x.mu.Lock()
	if ack.OrderID != "" {
		order.VenueID = ack.OrderID
		x.byVenueID[ack.OrderID] = order.LocalID
	}
	x.transitionLocked(order, model.OrderStatusOpen, "")
	if ack.OrderID != "" {
		// fills on the stream can outrun the ack; replay any held for this id
		for _, f := range x.unmatched[ack.OrderID] {
			x.applyFillLocked(order, f.price, f.volume)
		}
		delete(x.unmatched, ack.OrderID)
	}
	out := order.Clone()
	x.mu.Unlock()

	x.logAudit("order_placed", out)
	return out, nil
}

// Edit changes price and/or volume of a live order.
func (x *OrderExecutor) Edit(ctx context.Context, localID string, volume, price float64) error {
	x.mu.Lock()
	order, ok := x.orders[localID]
	if !ok {
		x.mu.Unlock()
		return model.ErrOrderNotFound
	}
	if order.Status.Terminal() || order.VenueID == "" {
		status := order.Status
		x.mu.Unlock()
		return &model.ValidationError{Field: "status", Reason: fmt.Sprintf("order is %s and cannot be edited", status)}
	}
	venueID := order.VenueID
	x.mu.Unlock()

	params := map[string]any{"order_id": venueID}
	if volume > 0 {
		params["volume"] = volume
	}
	if price > 0 {
		params["price"] = price
	}

	reply := x.transport.Request(ctx, "edit_order", params)
	if reply.Timeout {
		return model.ErrRequestTimeout
	}
	if !reply.OK {
		return &model.VenueError{Method: "edit_order", Message: reply.Err}
	}

	x.mu.Lock()
	if order, ok := x.orders[localID]; ok && !order.Status.Terminal() {
		if volume > 0 {
			order.Volume = volume
		}
		if price > 0 {
			order.Price = price
		}
		order.UpdatedAt = x.now().UnixMilli()
	}
	x.mu.Unlock()
	return nil
}

// Cancel requests cancellation. The order stays live until the venue
// confirms through the open_orders push.
func (x *OrderExecutor) Cancel(ctx context.Context, localID string) error {
	x.mu.Lock()
	order, ok := x.orders[localID]
	if !ok {
		x.mu.Unlock()
		return model.ErrOrderNotFound
	}
	if order.Status.Terminal() {
		x.mu.Unlock()
		return nil
	}
	venueID := order.VenueID
	x.mu.Unlock()

	if venueID == "" {
		return &model.ValidationError{Field: "status", Reason: "order has no venue id yet"}
	}

	reply := x.transport.Request(ctx, "cancel_order", map[string]any{"order_id": venueID})
	if reply.Timeout {
		return model.ErrRequestTimeout
	}
	if !reply.OK {
		return &model.VenueError{Method: "cancel_order", Message: reply.Err}
	}
	return nil
}

// CancelAll asks the venue to cancel every open order for this session.
func (x *OrderExecutor) CancelAll(ctx context.Context) error {
	reply := x.transport.Request(ctx, "cancel_all", map[string]any{})
	if reply.Timeout {
		return model.ErrRequestTimeout
	}
	if !reply.OK {
		return &model.VenueError{Method: "cancel_all", Message: reply.Err}
	}
	return nil
}

func (x *OrderExecutor) snapshot(localID string) *model.Order {
	x.mu.Lock()
	defer x.mu.Unlock()
	if order, ok := x.orders[localID]; ok {
		return order.Clone()
	}
	return nil
}

// Status returns a snapshot of an order by local id.
func (x *OrderExecutor) Status(localID string) (*model.Order, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	order, ok := x.orders[localID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// Open returns snapshots of every non-terminal order.
func (x *OrderExecutor) Open() []*model.Order {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]*model.Order, 0, len(x.orders))
	for _, o := range x.orders {
		if !o.Status.Terminal() {
			out = append(out, o.Clone())
		}
	}
	return out
}

// WaitForTerminal blocks until the order reaches a terminal status, the
// timeout passes, or ctx is canceled. The waiter registration never
// outlives the call.
func (x *OrderExecutor) WaitForTerminal(ctx context.Context, localID string, timeout time.Duration) (*model.Order, error) {
	x.mu.Lock()
	order, ok := x.orders[localID]
	if !ok {
		x.mu.Unlock()
		return nil, model.ErrOrderNotFound
	}
	if order.Status.Terminal() {
		out := order.Clone()
		x.mu.Unlock()
		return out, nil
	}
	ch := make(chan *model.Order, 1)
	x.waiters[localID] = append(x.waiters[localID], ch)
	x.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o, nil
	case <-timer.C:
		x.removeWaiter(localID, ch)
		return nil, model.ErrWaitTimeout
	case <-ctx.Done():
		x.removeWaiter(localID, ch)
		return nil, ctx.Err()
	}
}

func (x *OrderExecutor) removeWaiter(localID string, ch chan *model.Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	ws := x.waiters[localID]
	for i, w := range ws {
		if w == ch {
			x.waiters[localID] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(x.waiters[localID]) == 0 {
		delete(x.waiters, localID)
	}
}

// ownTradesPayload is the private fills push shape.
type ownTradesPayload struct {
	Fills []struct {
		OrderID string    `json:"order_id"`
		Price   flexFloat `json:"price"`
		Volume  flexFloat `json:"volume"`
	} `json:"fills"`
}

// OnOwnTradesPush applies fill events. Fills for venue order ids not yet
// registered are held for a grace period so that a fill outrunning its
// add_order ack replays once Place registers the id.
func (x *OrderExecutor) OnOwnTradesPush(data json.RawMessage) {
	var p ownTradesPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("malformed own_trades push dropped")
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	now := x.now()
	for _, fill := range p.Fills {
		localID, ok := x.byVenueID[fill.OrderID]
		if !ok {
			x.unmatched[fill.OrderID] = append(x.unmatched[fill.OrderID], earlyFill{
				price:  float64(fill.Price),
				volume: float64(fill.Volume),
				seen:   now,
			})
			continue
		}
		order := x.orders[localID]
		if order == nil {
			continue
		}
		x.applyFillLocked(order, float64(fill.Price), float64(fill.Volume))
	}
	x.pruneEarlyFillsLocked(now)
}

// applyFillLocked folds one fill into the order and advances its status.
// Callers hold x.mu.
func (x *OrderExecutor) applyFillLocked(order *model.Order, price, vol float64) {
	if order.Status.Terminal() || vol <= 0 {
		return
	}
	prevFilled := order.FilledVolume
	order.AvgFillPrice = (order.AvgFillPrice*prevFilled + price*vol) / (prevFilled + vol)
	order.FilledVolume = prevFilled + vol

	next := model.OrderStatusPartiallyFilled
	if order.Remaining() == 0 {
		next = model.OrderStatusClosed
	}
	x.transitionLocked(order, next, "")
	x.logAudit("order_fill", order.Clone())
}

// pruneEarlyFillsLocked drops held fills older than earlyFillGrace.
// Callers hold x.mu.
func (x *OrderExecutor) pruneEarlyFillsLocked(now time.Time) {
	for id, fills := range x.unmatched {
		kept := fills[:0]
		for _, f := range fills {
			if now.Sub(f.seen) <= earlyFillGrace {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			delete(x.unmatched, id)
			continue
		}
		x.unmatched[id] = kept
	}
}

// openOrdersPayload is the private order-status push shape.
type openOrdersPayload struct {
	Orders []struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Reason  string `json:"reason"`
	} `json:"orders"`
}

// OnOpenOrdersPush applies venue-side status changes (cancels, expiries).
func (x *OrderExecutor) OnOpenOrdersPush(data json.RawMessage) {
	var p openOrdersPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("malformed open_orders push dropped")
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, upd := range p.Orders {
		localID, ok := x.byVenueID[upd.OrderID]
		if !ok {
			continue
		}
		order := x.orders[localID]
		if order == nil {
			continue
		}

		var next model.OrderStatus
		switch upd.Status {
		case "canceled":
			next = model.OrderStatusCanceled
		case "expired":
			next = model.OrderStatusExpired
		default:
			continue
		}
		if x.transitionLocked(order, next, upd.Reason) {
			x.logAudit("order_"+upd.Status, order.Clone())
		}
	}
}

// Recover reconciles local state with the venue after a reconnect:
// open orders unknown locally are adopted under fresh local ids.
func (x *OrderExecutor) Recover(ctx context.Context) error {
	reply := x.transport.Request(ctx, "get_open_orders", map[string]any{})
	if reply.Timeout {
		return model.ErrRequestTimeout
	}
	if !reply.OK {
		return &model.VenueError{Method: "get_open_orders", Message: reply.Err}
	}

	var p struct {
		Orders []struct {
			OrderID      string    `json:"order_id"`
			Symbol       string    `json:"symbol"`
			Side         string    `json:"side"`
			Type         string    `json:"type"`
			Volume       flexFloat `json:"volume"`
			Price        flexFloat `json:"price"`
			FilledVolume flexFloat `json:"filled_volume"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(reply.Data, &p); err != nil {
		return fmt.Errorf("decode open orders: %w", err)
	}

	ts := x.now().UnixMilli()
	adopted := 0
	x.mu.Lock()
	for _, vo := range p.Orders {
		if _, known := x.byVenueID[vo.OrderID]; known {
			continue
		}
		order := &model.Order{
			LocalID:      uuid.NewString(),
			VenueID:      vo.OrderID,
			Symbol:       vo.Symbol,
			Side:         model.Direction(vo.Side),
			Type:         model.OrderType(vo.Type),
			Volume:       float64(vo.Volume),
			Price:        float64(vo.Price),
			FilledVolume: float64(vo.FilledVolume),
			Status:       model.OrderStatusOpen,
			CreatedAt:    ts,
			UpdatedAt:    ts,
		}
		if order.FilledVolume > 0 {
			order.Status = model.OrderStatusPartiallyFilled
		}
		x.orders[order.LocalID] = order
		x.byVenueID[vo.OrderID] = order.LocalID
		adopted++
	}
	x.mu.Unlock()

	if adopted > 0 {
		log.Info().Int("orders", adopted).Msg("adopted open orders from venue")
	}
	return nil
}

// transitionLocked moves the order forward if the state machine allows it
// and wakes waiters on terminal. Callers hold x.mu.
func (x *OrderExecutor) transitionLocked(order *model.Order, next model.OrderStatus, reason string) bool {
	if !order.Status.CanTransition(next) {
		log.Warn().
			Str("local_id", order.LocalID).
			Str("from", string(order.Status)).
			Str("to", string(next)).
			Msg("order transition rejected")
		return false
	}
	order.Status = next
	if reason != "" {
		order.Reason = reason
	}
	order.UpdatedAt = x.now().UnixMilli()

	// terminal orders leave active tracking; waiters get the final snapshot
	if next.Terminal() {
		snap := order.Clone()
		for _, ch := range x.waiters[order.LocalID] {
			ch <- snap
		}
		delete(x.waiters, order.LocalID)
		delete(x.orders, order.LocalID)
		if order.VenueID != "" {
			delete(x.byVenueID, order.VenueID)
		}
	}
	return true
}

// logAudit records an order event without blocking the caller.
func (x *OrderExecutor) logAudit(eventType string, order *model.Order) {
	if x.audit == nil {
		return
	}
	details, err := json.Marshal(order)
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := x.audit.LogEvent(ctx, eventType, string(details)); err != nil {
			log.Warn().Err(err).Str("event", eventType).Msg("audit write failed")
		}
	}()
}
