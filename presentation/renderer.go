package presentation

import (
	"fmt"
	"strings"

	"tradewire/internal/domain/model"
)

// ANSI color codes
const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

// Colorize applies ANSI color to a string
func Colorize(s, color string) string {
	return color + s + ansiReset
}

// Renderer renders the live market board to the terminal.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderLine renders one board line: per symbol the latest quote and, when
// present, the latest signal. Symbols without data render as dashes.
func (r *Renderer) RenderLine(symbols []string, tickers map[string]model.Ticker, signals map[string]*model.Signal, live bool) string {
	var sb strings.Builder

	if live {
		sb.WriteString("\r")
	}

	sb.WriteString(Colorize("[TRADEWIRE] ", ansiDim))

	for i, sym := range symbols {
		if i > 0 {
			sb.WriteString(Colorize("  ||  ", ansiDim))
		}

		sb.WriteString(sym)
		sb.WriteString(" ")

		tk, ok := tickers[sym]
		if !ok {
			sb.WriteString(Colorize("--/--", ansiYellow))
		} else {
			quote := fmt.Sprintf("%.2f/%.2f last=%.2f", tk.Bid, tk.Ask, tk.Last)
			col := ansiYellow
			if tk.Last >= tk.Ask {
				col = ansiGreen
			} else if tk.Last <= tk.Bid {
				col = ansiRed
			}
			sb.WriteString(Colorize(quote, col))
		}

		if sig := signals[sym]; sig != nil {
			col := ansiGreen
			if sig.Direction == model.DirectionSell {
				col = ansiRed
			}
			sb.WriteString(" ")
			sb.WriteString(Colorize(fmt.Sprintf("%s %s %.0f%%", sig.Strategy, sig.Direction, sig.Confidence*100), col))
		}
	}

	if live {
		sb.WriteString(ansiClearEOL)
	}

	return sb.String()
}
