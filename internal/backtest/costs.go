package backtest

// Execution-cost model for synthesized 0DTE quotes. Real 0DTE chains are
// not in the dataset, so bid/ask is derived from the model mid: a dollar
// spread clamped to [0.02, 0.10] that caps at half the premium, which
// makes the percentage spread widen as premiums shrink.

const (
	minSpreadDollars = 0.02
	maxSpreadDollars = 0.10
)

// SynthSpread returns the synthetic bid and ask around a model mid.
func SynthSpread(mid float64) (bid, ask float64) {
	spread := mid * 0.5
	if spread > maxSpreadDollars {
		spread = maxSpreadDollars
	}
	if spread < minSpreadDollars {
		spread = minSpreadDollars
	}

	bid = mid - spread/2
	if bid < 0 {
		bid = 0
	}
	ask = mid + spread/2
	return bid, ask
}

// SpreadPct returns the spread as a fraction of the bid. A zero bid
// reports an effectively infinite spread so the entry filter rejects it.
func SpreadPct(bid, ask float64) float64 {
	if bid <= 0 {
		return 1e9
	}
	return (ask - bid) / bid
}

// EntryFill applies slippage to a buy at the ask. Both calls and puts
// are bought premium, so entry slippage is always adverse upward.
func EntryFill(ask, slippagePct float64) float64 {
	return ask * (1 + slippagePct)
}

// ExitFill applies slippage to a sell at the mid, always adverse
// downward. The fill never goes negative.
func ExitFill(mid, slippagePct float64) float64 {
	fill := mid * (1 - slippagePct)
	if fill < 0 {
		return 0
	}
	return fill
}
