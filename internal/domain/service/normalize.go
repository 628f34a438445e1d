package service

import (
	"bytes"
	"strconv"
)

// flexFloat coerces JSON numbers, numeric strings, null and absent fields
// to float64. Venues disagree on whether prices are strings; missing or
// unparseable values normalize to zero, never to an error.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		b = bytes.Trim(b, `"`)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// tickerPayload is the canonical shape a ticker push normalizes into.
type tickerPayload struct {
	Symbol    string    `json:"symbol"`
	Bid       flexFloat `json:"bid"`
	Ask       flexFloat `json:"ask"`
	Last      flexFloat `json:"last"`
	Volume24h flexFloat `json:"volume_24h"`
}

// bookPayload carries one order book snapshot or incremental update.
// Levels are [price, volume, ...] arrays; trailing elements are ignored.
type bookPayload struct {
	Symbol   string        `json:"symbol"`
	Snapshot bool          `json:"snapshot"`
	Bids     [][]flexFloat `json:"bids"`
	Asks     [][]flexFloat `json:"asks"`
}

// tradePayload carries a batch of public trades.
type tradePayload struct {
	Symbol string `json:"symbol"`
	Trades []struct {
		Price  flexFloat `json:"price"`
		Volume flexFloat `json:"volume"`
		Side   string    `json:"side"`
		Time   flexFloat `json:"time"` // unix ms
	} `json:"trades"`
}
