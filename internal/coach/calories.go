package coach

import "time"

// CalorieEstimator estimates energy burned for a completed session. The
// default is a crude linear model; it exists so the history record always
// carries a number, not for physiological accuracy.
type CalorieEstimator interface {
	Estimate(active time.Duration, intensity int) float64
}

// Base burn rate in kcal per active minute, shifted per intensity tier.
const (
	baseKcalPerMinute      = 7.0
	intensityKcalPerMinute = 1.5
)

// LinearEstimator is the default CalorieEstimator.
type LinearEstimator struct{}

// Estimate implements CalorieEstimator.
func (LinearEstimator) Estimate(active time.Duration, intensity int) float64 {
	rate := baseKcalPerMinute + intensityKcalPerMinute*float64(intensity)
	if rate < 1.0 {
		rate = 1.0
	}
	kcal := rate * active.Minutes()
	if kcal < 0 {
		return 0
	}
	return kcal
}
