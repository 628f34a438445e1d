package model

// Direction is the trade direction of a signal candidate.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Candidate is one analyzer's directional proposal for a symbol.
// A nil candidate means the analyzer abstained this tick.
type Candidate struct {
	Strategy   string    `json:"strategy"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"` // 0..1
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Rationale  string    `json:"rationale"`
}

// Signal is the fused trading signal for a (symbol, tick). Immutable once
// emitted; the engine keeps only the most recent one per symbol.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Strategy   string    `json:"strategy"`
	Rationale  string    `json:"rationale"`
	Timestamp  int64     `json:"ts_ms"`
}
