// Package sm2 implements the SM-2 variant used to schedule reviews.
// Everything here is pure: no clocks, no storage.
package sm2

import (
	"math"

	"github.com/conorfennell/knolreview/internal/domain"
)

const (
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 3.0
	DefaultEaseFactor = 2.5

	MinQuality  = 0
	MaxQuality  = 5
	PassQuality = 3

	graduationRepetitions = 2
	graduationInterval    = 21
)

// State is the scheduling part of an item.
type State struct {
	EaseFactor  float64
	Interval    int
	Repetitions int
}

// Outcome is the result of scheduling one review.
type Outcome struct {
	State
	Quality int
	Correct bool
	Status  domain.Status
}

// ClampQuality forces q into [0,5] so the algorithm stays total.
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// ClampEase bounds an ease factor to [1.3, 3.0].
func ClampEase(ef float64) float64 {
	return math.Max(MinEaseFactor, math.Min(MaxEaseFactor, ef))
}

// EaseDelta is the SM-2 ease adjustment for quality q.
// q=5 gives +0.1, q=4 gives 0, q=0 gives -0.8.
func EaseDelta(q int) float64 {
	d := float64(MaxQuality - q)
	return 0.1 - d*(0.08+d*0.02)
}

// Schedule maps the current state and a review quality to the next state.
func Schedule(cur State, quality int, s Settings) Outcome {
	q := ClampQuality(quality)
	out := Outcome{Quality: q, Correct: q >= PassQuality}

	var interval float64
	reps := cur.Repetitions
	if out.Correct {
		switch reps {
		case 0:
			interval = float64(s.GraduatingInterval)
		case 1:
			interval = float64(s.SecondInterval)
		default:
			interval = math.Round(float64(cur.Interval) * cur.EaseFactor)
		}
		reps++
	} else {
		reps = 0
		interval = s.AgainMultiplier * float64(cur.Interval)
	}

	ef := ClampEase(cur.EaseFactor + EaseDelta(q))

	interval = clamp(math.Round(interval*s.IntervalModifier), s.MinInterval, s.MaxInterval)
	switch q {
	case 5:
		interval = math.Round(interval * s.EasyMultiplier)
	case 2:
		interval = math.Round(interval * s.HardMultiplier)
	}
	if s.ClampAfterMultiplier {
		interval = clamp(interval, s.MinInterval, s.MaxInterval)
	}

	out.EaseFactor = ef
	out.Interval = int(interval)
	out.Repetitions = reps
	out.Status = statusFor(out.Correct, reps, out.Interval)
	return out
}

func statusFor(correct bool, reps, interval int) domain.Status {
	switch {
	case !correct:
		return domain.StatusLearning
	case reps >= graduationRepetitions && interval >= graduationInterval:
		return domain.StatusGraduated
	case reps >= 1:
		return domain.StatusReview
	default:
		return domain.StatusLearning
	}
}

// StatusForRepetitions is the status an unsuspended item resumes with.
func StatusForRepetitions(reps int) domain.Status {
	switch {
	case reps <= 0:
		return domain.StatusNew
	case reps == 1:
		return domain.StatusLearning
	default:
		return domain.StatusReview
	}
}

func clamp(v float64, lo, hi int) float64 {
	return math.Max(float64(lo), math.Min(float64(hi), v))
}
