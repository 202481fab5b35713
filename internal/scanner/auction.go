// Package scanner implements the cross-chain order profitability scanner:
// a Dutch-auction time model, a big-integer profit estimator, a multi-factor
// opportunity scorer, and a batch scanner that fans out per-order evaluation
// over the market data provider and produces a ranked report.
package scanner

// Progress returns the fraction of the auction window elapsed at now,
// clamped to [0,1]. Timestamps are unix milliseconds. A degenerate window
// (end <= start) never divides by zero: the auction counts as complete once
// now >= start, and as not started before that.
func Progress(now, start, end int64) float64 {
	if end <= start {
		if now >= start {
			return 1
		}
		return 0
	}
	p := float64(now-start) / float64(end-start)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// TimeRemaining returns max(0, end-now) in milliseconds.
func TimeRemaining(now, end int64) int64 {
	if end <= now {
		return 0
	}
	return end - now
}
