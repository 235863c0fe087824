package options

import (
	"math"
)

// OptionType distinguishes calls from puts.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (o OptionType) String() string {
	if o == Put {
		return "put"
	}
	return "call"
}

// Greeks holds the closed-form sensitivities alongside the price.
type Greeks struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64 // per calendar day
	Vega  float64 // per 1% IV change
}

const (
	tradingDaysPerYear  = 252.0
	tradingHoursPerDay  = 6.5
	expirationHour      = 16.0
	calendarDaysPerYear = 365.0
)

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func d1d2(s, k, t, r, sigma float64) (float64, float64) {
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	return d1, d1 - sigma*math.Sqrt(t)
}

// Price returns the Black-Scholes price of a European option. At T<=0 it
// returns intrinsic value. Inputs S, K and sigma must be positive for T>0;
// validating them is the caller's contract.
func Price(s, k, t, r, sigma float64, optType OptionType) float64 {
	if t <= 0 {
		if optType == Call {
			return math.Max(s-k, 0)
		}
		return math.Max(k-s, 0)
	}

	d1, d2 := d1d2(s, k, t, r, sigma)

	var price float64
	if optType == Call {
		price = s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	} else {
		price = k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
	}

	// Floor at zero to wipe out numerical negatives.
	return math.Max(price, 0)
}

// Delta returns the option's price sensitivity to the underlying. At
// expiration it degenerates to the moneyness indicator.
func Delta(s, k, t, r, sigma float64, optType OptionType) float64 {
	if t <= 0 {
		if optType == Call {
			if s > k {
				return 1.0
			}
			return 0.0
		}
		if s < k {
			return -1.0
		}
		return 0.0
	}

	d1, _ := d1d2(s, k, t, r, sigma)
	if optType == Call {
		return normCDF(d1)
	}
	return -normCDF(-d1)
}

// Gamma is identical for calls and puts; zero at expiration.
func Gamma(s, k, t, r, sigma float64) float64 {
	if t <= 0 {
		return 0.0
	}
	d1, _ := d1d2(s, k, t, r, sigma)
	return normPDF(d1) / (s * sigma * math.Sqrt(t))
}

// Theta returns time decay per calendar day; zero at expiration.
func Theta(s, k, t, r, sigma float64, optType OptionType) float64 {
	if t <= 0 {
		return 0.0
	}

	d1, d2 := d1d2(s, k, t, r, sigma)
	term1 := -s * normPDF(d1) * sigma / (2 * math.Sqrt(t))

	var term2 float64
	if optType == Call {
		term2 = -r * k * math.Exp(-r*t) * normCDF(d2)
	} else {
		term2 = r * k * math.Exp(-r*t) * normCDF(-d2)
	}

	return (term1 + term2) / calendarDaysPerYear
}

// Vega returns sensitivity per 1% IV change; identical for calls and puts.
func Vega(s, k, t, r, sigma float64) float64 {
	if t <= 0 {
		return 0.0
	}
	d1, _ := d1d2(s, k, t, r, sigma)
	return s * normPDF(d1) * math.Sqrt(t) / 100.0
}

// AllGreeks computes price plus the full Greek set in one call.
func AllGreeks(s, k, t, r, sigma float64, optType OptionType) Greeks {
	return Greeks{
		Price: Price(s, k, t, r, sigma, optType),
		Delta: Delta(s, k, t, r, sigma, optType),
		Gamma: Gamma(s, k, t, r, sigma),
		Theta: Theta(s, k, t, r, sigma, optType),
		Vega:  Vega(s, k, t, r, sigma),
	}
}

// ATMStrike selects the at/near-the-money strike, biased slightly
// in-the-money: floor for calls, ceil for puts. The bias is a deliberate
// execution-realism choice.
func ATMStrike(price float64, optType OptionType, spacing float64) float64 {
	if spacing <= 0 {
		spacing = 1.0
	}
	if optType == Call {
		return math.Floor(price/spacing) * spacing
	}
	return math.Ceil(price/spacing) * spacing
}

// TimeToExpiry0DTE converts wall-clock hour/minute to years until the
// 16:00 same-day expiry, over a 252-day x 6.5-hour trading year. Past
// 16:00 the next session's expiry applies.
func TimeToExpiry0DTE(hour, minute int) float64 {
	return TimeToExpiryUntil(hour, minute, 16, 0)
}

// TimeToExpiryUntil is TimeToExpiry0DTE with a configurable expiry
// clock, used on half days where contracts settle at the early close.
func TimeToExpiryUntil(hour, minute, closeHour, closeMinute int) float64 {
	now := float64(hour) + float64(minute)/60.0
	expiry := float64(closeHour) + float64(closeMinute)/60.0

	var hoursLeft float64
	if now > expiry {
		hoursLeft = 24 - now + expiry
	} else {
		hoursLeft = expiry - now
	}

	return hoursLeft / (tradingDaysPerYear * tradingHoursPerDay)
}

// ContractPnL converts an option price move into dollars for N contracts
// of 100 shares each.
func ContractPnL(entryPrice, exitPrice float64, contracts int) float64 {
	return (exitPrice - entryPrice) * 100 * float64(contracts)
}
