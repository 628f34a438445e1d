package service

import (
	"fmt"
	"math"

	"tradewire/internal/domain/model"
)

// MeanReversion signals against the move when the current price's z-score
// over the last Window trades exceeds ZThreshold.
type MeanReversion struct {
	Window     int
	ZThreshold float64 // e.g. 2.0
}

func (a *MeanReversion) Name() string { return "mean-reversion" }

func (a *MeanReversion) Analyze(symbol string, trades []model.Trade) *model.Candidate {
	if len(trades) < a.Window || a.Window < 2 {
		return nil
	}
	sample := trades[len(trades)-a.Window:]

	var sum float64
	for _, t := range sample {
		sum += t.Price
	}
	mean := sum / float64(len(sample))

	var varSum float64
	for _, t := range sample {
		d := t.Price - mean
		varSum += d * d
	}
	std := math.Sqrt(varSum / float64(len(sample)))
	if std == 0 {
		return nil
	}

	last := sample[len(sample)-1].Price
	z := (last - mean) / std
	if math.Abs(z) < a.ZThreshold {
		return nil
	}

	// stretched above the mean: expect a fall; below: expect a rise
	dir := model.DirectionSell
	stop := last + std
	if z < 0 {
		dir = model.DirectionBuy
		stop = last - std
	}
	return &model.Candidate{
		Strategy:   a.Name(),
		Direction:  dir,
		Confidence: clampConfidence(0.4 * math.Abs(z) / a.ZThreshold),
		Entry:      last,
		StopLoss:   stop,
		TakeProfit: mean,
		Rationale:  fmt.Sprintf("z-score %.2f over last %d trades (mean %.4f)", z, a.Window, mean),
	}
}
