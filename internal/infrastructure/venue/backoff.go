package venue

import (
	"math"
	"time"
)

// backoffDelay returns base * 1.5^attempt capped at max. Attempt counts
// from zero for the first retry.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		return base
	}
	d := float64(base) * math.Pow(1.5, float64(attempt))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}
