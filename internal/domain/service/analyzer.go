package service

import (
	"tradewire/internal/domain/model"
)

// Analyzer is one independent strategy. It returns a candidate for the
// symbol or nil to abstain this tick. Analyzers are run in a fixed
// priority order which also breaks confidence ties during fusion.
type Analyzer interface {
	Name() string
	Analyze(symbol string, trades []model.Trade) *model.Candidate
}

// fuseCandidates picks the candidate with the strictly highest
// confidence; ties keep the earlier (higher-priority) analyzer. All-nil
// input means no signal this tick.
func fuseCandidates(candidates []*model.Candidate) *model.Candidate {
	var best *model.Candidate
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 0.95 {
		return 0.95
	}
	return v
}
