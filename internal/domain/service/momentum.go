package service

import (
	"fmt"
	"math"

	"tradewire/internal/domain/model"
)

// Momentum signals in the direction of the recent price move when the
// delta ratio over the last Window trades exceeds Threshold.
type Momentum struct {
	Window    int     // trades considered
	Threshold float64 // minimum |delta| ratio, e.g. 0.005
}

func (a *Momentum) Name() string { return "momentum" }

func (a *Momentum) Analyze(symbol string, trades []model.Trade) *model.Candidate {
	if len(trades) < a.Window || a.Window < 2 {
		return nil
	}
	recent := trades[len(trades)-a.Window:]
	first := recent[0].Price
	last := recent[len(recent)-1].Price
	if first <= 0 {
		return nil
	}

	delta := (last - first) / first
	if math.Abs(delta) < a.Threshold {
		return nil
	}

	dir := model.DirectionBuy
	if delta < 0 {
		dir = model.DirectionSell
	}
	move := math.Abs(delta)
	stop, take := last*(1-move), last*(1+2*move)
	if dir == model.DirectionSell {
		stop, take = last*(1+move), last*(1-2*move)
	}
	return &model.Candidate{
		Strategy:   a.Name(),
		Direction:  dir,
		Confidence: clampConfidence(0.5 * move / a.Threshold),
		Entry:      last,
		StopLoss:   stop,
		TakeProfit: take,
		Rationale:  fmt.Sprintf("price moved %.2f%% over last %d trades", delta*100, a.Window),
	}
}
