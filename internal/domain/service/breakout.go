package service

import (
	"fmt"

	"tradewire/internal/domain/model"
)

// Breakout signals in the direction of a range escape: the current price
// must clear the prior high/low by more than Fraction of the range.
type Breakout struct {
	Window   int
	Fraction float64 // overshoot as a fraction of the range, e.g. 0.2
}

func (a *Breakout) Name() string { return "breakout" }

func (a *Breakout) Analyze(symbol string, trades []model.Trade) *model.Candidate {
	if len(trades) < a.Window || a.Window < 3 {
		return nil
	}
	sample := trades[len(trades)-a.Window:]
	last := sample[len(sample)-1].Price

	// range over the window excluding the trade being judged
	prior := sample[:len(sample)-1]
	high, low := prior[0].Price, prior[0].Price
	for _, t := range prior[1:] {
		if t.Price > high {
			high = t.Price
		}
		if t.Price < low {
			low = t.Price
		}
	}
	rng := high - low
	if rng <= 0 {
		return nil
	}

	var dir model.Direction
	var overshoot float64
	switch {
	case last > high+a.Fraction*rng:
		dir = model.DirectionBuy
		overshoot = (last - high) / rng
	case last < low-a.Fraction*rng:
		dir = model.DirectionSell
		overshoot = (low - last) / rng
	default:
		return nil
	}

	stop, take := high, last+rng
	if dir == model.DirectionSell {
		stop, take = low, last-rng
	}
	return &model.Candidate{
		Strategy:   a.Name(),
		Direction:  dir,
		Confidence: clampConfidence(0.5 * overshoot / a.Fraction),
		Entry:      last,
		StopLoss:   stop,
		TakeProfit: take,
		Rationale:  fmt.Sprintf("price %.4f escaped %0.4f-%0.4f range by %.1f%% of range", last, low, high, overshoot*100),
	}
}
