package schedule

import (
	"math"
	"testing"
	"time"
)

func TestOnCorrect(t *testing.T) {
	tests := []struct {
		name       string
		interval   float64
		multiplier float64
		want       float64
	}{
		{"doubles with multiplier 2", 5.0, 2.0, 10.0},
		{"identity with multiplier 1", 7.5, 1.0, 7.5},
		{"large growth", 100.0, 10.0, 1000.0},
		{"floor holds for tiny product", 1.0, 0.1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OnCorrect(tt.interval, tt.multiplier)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("OnCorrect(%v, %v) = %v, want %v", tt.interval, tt.multiplier, got, tt.want)
			}
		})
	}
}

func TestOnCorrectNeverShrinksBelowFloor(t *testing.T) {
	for _, interval := range []float64{1.0, 2.5, 60.0, 1440.0} {
		for _, multiplier := range []float64{1.0, 1.5, 2.0, 5.0, 10.0} {
			got := OnCorrect(interval, multiplier)
			if got < MinIntervalMinutes {
				t.Errorf("OnCorrect(%v, %v) = %v, below floor", interval, multiplier, got)
			}
			if got < interval {
				t.Errorf("OnCorrect(%v, %v) = %v, shrank with multiplier >= 1", interval, multiplier, got)
			}
		}
	}
}

func TestOnIncorrectResetsToInitial(t *testing.T) {
	for _, initial := range []int{1, 5, 60, 1440} {
		got := OnIncorrect(initial)
		if got != float64(initial) {
			t.Errorf("OnIncorrect(%d) = %v, want %v", initial, got, float64(initial))
		}
	}
}

func TestNextReviewAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("whole minutes", func(t *testing.T) {
		got := NextReviewAt(now, 10.0)
		want := now.Add(10 * time.Minute)
		if !got.Equal(want) {
			t.Errorf("NextReviewAt = %v, want %v", got, want)
		}
	})

	t.Run("fractional minutes", func(t *testing.T) {
		got := NextReviewAt(now, 2.5)
		want := now.Add(2*time.Minute + 30*time.Second)
		if !got.Equal(want) {
			t.Errorf("NextReviewAt = %v, want %v", got, want)
		}
	})
}
