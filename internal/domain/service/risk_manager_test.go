package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradewire/internal/domain/model"
)

func riskRequest(symbol string, volume, price float64) model.OrderRequest {
	return model.OrderRequest{
		Symbol: symbol,
		Side:   model.DirectionBuy,
		Type:   model.OrderTypeLimit,
		Volume: volume,
		Price:  price,
	}
}

func openOrders(symbols ...string) []*model.Order {
	out := make([]*model.Order, len(symbols))
	for i, s := range symbols {
		out[i] = &model.Order{Symbol: s, Status: model.OrderStatusOpen}
	}
	return out
}

func TestRiskNotionalLimit(t *testing.T) {
	rm := NewRiskManager(RiskLimits{MaxOrderNotional: 100000})

	if err := rm.CanPlace(riskRequest("BTC/USD", 1, 50000), nil); err != nil {
		t.Fatalf("within limit: %v", err)
	}

	err := rm.CanPlace(riskRequest("BTC/USD", 3, 50000), nil)
	var rerr *model.RiskError
	if !errors.As(err, &rerr) || rerr.Limit != "max_order_notional" {
		t.Fatalf("err = %v, want notional RiskError", err)
	}
}

func TestRiskOpenOrderLimits(t *testing.T) {
	rm := NewRiskManager(RiskLimits{MaxOpenPerSymbol: 2, MaxOpenTotal: 3})

	open := openOrders("BTC/USD", "BTC/USD")
	err := rm.CanPlace(riskRequest("BTC/USD", 1, 100), open)
	var rerr *model.RiskError
	if !errors.As(err, &rerr) || rerr.Limit != "max_open_per_symbol" {
		t.Fatalf("err = %v, want per-symbol RiskError", err)
	}

	// another symbol is fine until the total cap
	if err := rm.CanPlace(riskRequest("ETH/USD", 1, 100), open); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	open = openOrders("BTC/USD", "BTC/USD", "ETH/USD")
	err = rm.CanPlace(riskRequest("SOL/USD", 1, 100), open)
	if !errors.As(err, &rerr) || rerr.Limit != "max_open_total" {
		t.Fatalf("err = %v, want total RiskError", err)
	}
}

func TestRiskCooldown(t *testing.T) {
	rm := NewRiskManager(RiskLimits{Cooldown: time.Second})
	current := time.Unix(1700000000, 0)
	rm.now = func() time.Time { return current }

	rm.RecordPlacement("BTC/USD")

	current = current.Add(500 * time.Millisecond)
	err := rm.CanPlace(riskRequest("BTC/USD", 1, 100), nil)
	var rerr *model.RiskError
	if !errors.As(err, &rerr) || rerr.Limit != "cooldown" {
		t.Fatalf("err = %v, want cooldown RiskError", err)
	}

	// other symbols are unaffected
	if err := rm.CanPlace(riskRequest("ETH/USD", 1, 100), nil); err != nil {
		t.Fatalf("other symbol: %v", err)
	}

	current = current.Add(time.Second)
	if err := rm.CanPlace(riskRequest("BTC/USD", 1, 100), nil); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
}

func TestExecutorHonorsRiskLimits(t *testing.T) {
	tr := newFakeTransport()
	tr.replies["add_order"] = ackReply("V-1")
	x := NewOrderExecutor(tr, nil)
	x.SetRiskManager(NewRiskManager(RiskLimits{MaxOrderNotional: 1000}))

	_, err := x.Place(context.Background(), riskRequest("BTC/USD", 1, 50000))
	var rerr *model.RiskError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RiskError", err)
	}
	if n := tr.callCount(); n != 0 {
		t.Fatalf("transport saw %d calls for a risk-blocked order, want 0", n)
	}
}
