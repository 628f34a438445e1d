package service

import (
	"fmt"
	"sync"
	"time"

	"tradewire/internal/domain/model"
)

// RiskLimits bounds what the executor may send to the venue. A zero value
// disables the corresponding check.
type RiskLimits struct {
	MaxOrderNotional float64       // price * volume per order
	MaxOpenPerSymbol int           // live orders per symbol
	MaxOpenTotal     int           // live orders overall
	Cooldown         time.Duration // minimum gap between orders on one symbol
}

// RiskManager applies pre-trade limits. Checks run before any network
// activity, mirroring request validation.
type RiskManager struct {
	mu     sync.Mutex
	limits RiskLimits

	lastOrder map[string]time.Time // symbol -> last placement

	now func() time.Time
}

func NewRiskManager(limits RiskLimits) *RiskManager {
	return &RiskManager{
		limits:    limits,
		lastOrder: make(map[string]time.Time),
		now:       time.Now,
	}
}

// CanPlace checks the request against every configured limit. open is the
// executor's current set of live orders.
func (rm *RiskManager) CanPlace(req model.OrderRequest, open []*model.Order) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.limits.MaxOrderNotional > 0 && req.Price > 0 {
		notional := req.Price * req.Volume
		if notional > rm.limits.MaxOrderNotional {
			return &model.RiskError{
				Limit:  "max_order_notional",
				Reason: fmt.Sprintf("order notional %.2f exceeds %.2f", notional, rm.limits.MaxOrderNotional),
			}
		}
	}

	if rm.limits.MaxOpenTotal > 0 && len(open) >= rm.limits.MaxOpenTotal {
		return &model.RiskError{
			Limit:  "max_open_total",
			Reason: fmt.Sprintf("%d live orders (max %d)", len(open), rm.limits.MaxOpenTotal),
		}
	}

	if rm.limits.MaxOpenPerSymbol > 0 {
		n := 0
		for _, o := range open {
			if o.Symbol == req.Symbol {
				n++
			}
		}
		if n >= rm.limits.MaxOpenPerSymbol {
			return &model.RiskError{
				Limit:  "max_open_per_symbol",
				Reason: fmt.Sprintf("%s has %d live orders (max %d)", req.Symbol, n, rm.limits.MaxOpenPerSymbol),
			}
		}
	}

	if rm.limits.Cooldown > 0 {
		if last, ok := rm.lastOrder[req.Symbol]; ok {
			if elapsed := rm.now().Sub(last); elapsed < rm.limits.Cooldown {
				return &model.RiskError{
					Limit:  "cooldown",
					Reason: fmt.Sprintf("%s ordered %s ago (cooldown %s)", req.Symbol, elapsed.Round(time.Millisecond), rm.limits.Cooldown),
				}
			}
		}
	}

	return nil
}

// RecordPlacement starts the cooldown window for a symbol.
func (rm *RiskManager) RecordPlacement(symbol string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.lastOrder[symbol] = rm.now()
}
