package model

// Ticker is the normalized best-price view for a symbol.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Last      float64 `json:"last"`
	Volume24h float64 `json:"volume_24h"`
	Timestamp int64   `json:"ts_ms"`
}

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// OrderBook holds both sides of a symbol's book, bids descending and
// asks ascending, each truncated to the configured depth.
type OrderBook struct {
	Symbol    string      `json:"symbol"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp int64       `json:"ts_ms"`
}

// Trade is a single public trade from the venue tape.
type Trade struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Side      string  `json:"side"` // "buy" or "sell" (taker side)
	Timestamp int64   `json:"ts_ms"`
}
