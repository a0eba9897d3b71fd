package schedule

import (
	"math"
	"time"
)

// The policy is a deliberately minimal fixed-multiplier scheme: no ease
// factors, no streaks, no forgetting curves. The only inputs are the
// example's current interval and the user's two settings, which keeps every
// transition stateless and trivially testable.

// MinIntervalMinutes is the floor for any interval. It prevents an interval
// from collapsing to zero or below under a pathological multiplier.
const MinIntervalMinutes = 1.0

// OnCorrect returns the interval after a correct answer: the current
// interval scaled by the user's multiplier, never below the floor.
func OnCorrect(intervalMinutes, multiplier float64) float64 {
	return math.Max(MinIntervalMinutes, intervalMinutes*multiplier)
}

// OnIncorrect returns the interval after an incorrect answer: a reset to the
// user's configured initial interval, regardless of how large the prior
// interval was.
func OnIncorrect(initialIntervalMinutes int) float64 {
	return float64(initialIntervalMinutes)
}

// NextReviewAt places the next review the given number of minutes after now.
func NextReviewAt(now time.Time, intervalMinutes float64) time.Time {
	return now.Add(time.Duration(intervalMinutes * float64(time.Minute)))
}
