package indicators

// EMA is an incrementally updated exponential moving average with
// alpha = 2/(period+1). An unseeded EMA initializes to the first value it
// sees; a seeded EMA blends its seed with the first value using the same
// alpha, carrying the prior session's slope into the new session.
type EMA struct {
	period      int
	alpha       float64
	last        float64
	initialized bool
}

// NewEMA creates an unseeded EMA.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// NewSeededEMA creates an EMA whose value "before" the first bar is seed.
func NewSeededEMA(period int, seed float64) *EMA {
	e := NewEMA(period)
	e.last = seed
	e.initialized = true
	return e
}

// Update folds the next value into the average and returns the new EMA.
func (e *EMA) Update(value float64) float64 {
	if !e.initialized {
		e.last = value
		e.initialized = true
		return e.last
	}
	e.last = value*e.alpha + e.last*(1-e.alpha)
	return e.last
}

// Value returns the last computed EMA.
func (e *EMA) Value() float64 {
	return e.last
}

// Period returns the configured smoothing period.
func (e *EMA) Period() int {
	return e.period
}

// ResetState clears the EMA for a fresh, unseeded session.
func (e *EMA) ResetState() {
	e.last = 0
	e.initialized = false
}
