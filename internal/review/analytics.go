package review

import (
	"cmp"
	"math"
	"slices"

	"github.com/conorfennell/knolreview/internal/domain"
)

// Statistics summarizes the item store and session log.
type Statistics struct {
	TotalItems        int                   `json:"total_items"`
	TotalReviews      int                   `json:"total_reviews"`
	CorrectReviews    int                   `json:"correct_reviews"`
	RetentionRate     float64               `json:"retention_rate"` // percent of logged sessions passed
	AverageEaseFactor float64               `json:"average_ease_factor"`
	StatusCounts      map[domain.Status]int `json:"status_counts"`
	DueCount          int                   `json:"due_count"`
	OverdueCount      int                   `json:"overdue_count"`
	RetentionCurve    []RetentionPoint      `json:"retention_curve"`
	ProblemAreas      []ProblemArea         `json:"problem_areas"`
}

// RetentionPoint is the pass rate of reviews taken about Days after the
// previous review of the same item.
type RetentionPoint struct {
	Days          int     `json:"days"`
	RetentionRate float64 `json:"retention_rate"` // percent
	SampleSize    int     `json:"sample_size"`
}

// Severity grades a problem area.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// ProblemArea is a subject/chapter group that is performing poorly.
type ProblemArea struct {
	Subject        string   `json:"subject"`
	Chapter        string   `json:"chapter"`
	ItemCount      int      `json:"item_count"`
	MeanAccuracy   float64  `json:"mean_accuracy"`
	MeanEaseFactor float64  `json:"mean_ease_factor"`
	LowPerformers  int      `json:"low_performers"`
	Severity       Severity `json:"severity"`
}

// DifficultyAdjustment suggests moving an item to another tier.
type DifficultyAdjustment struct {
	ItemID     string            `json:"item_id"`
	Current    domain.Difficulty `json:"current"`
	Suggested  domain.Difficulty `json:"suggested"`
	Accuracy   float64           `json:"accuracy"`
	EaseFactor float64           `json:"ease_factor"`
	Reason     string            `json:"reason"`
}

// RetentionBuckets are the review lags, in days, the retention curve
// reports on.
var RetentionBuckets = []int{1, 3, 7, 14, 30, 60, 90}

const (
	bucketTolerance = 2.0

	minGroupSize         = 3
	lowPerformerAccuracy = 60.0
	problemAccuracy      = 70.0
	problemEase          = 2.0
	highSeverityAccuracy = 50.0

	minReviewsForSuggest = 3
	easySuggestAccuracy  = 90.0
	easySuggestEase      = 2.8
	hardSuggestAccuracy  = 50.0
	hardSuggestEase      = 2.0
)

// GetStatistics computes the current statistics.
func (e *Engine) GetStatistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.clock.Now()
	st := Statistics{
		TotalItems:   len(e.items),
		StatusCounts: make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, s := range domain.Statuses {
		st.StatusCounts[s] = 0
	}

	var easeSum float64
	for _, it := range e.items {
		easeSum += it.EaseFactor
		st.StatusCounts[it.Status]++
		if it.Due(now) {
			st.DueCount++
			if it.Overdue(now) {
				st.OverdueCount++
			}
		}
	}
	if len(e.items) > 0 {
		st.AverageEaseFactor = easeSum / float64(len(e.items))
	}

	e.sessions.each(func(s domain.ReviewSession) {
		st.TotalReviews++
		if s.Correct() {
			st.CorrectReviews++
		}
	})
	if st.TotalReviews > 0 {
		st.RetentionRate = float64(st.CorrectReviews) / float64(st.TotalReviews) * 100
	}

	st.RetentionCurve = e.retentionCurveLocked()
	st.ProblemAreas = e.problemAreasLocked()
	return st
}

// RetentionCurve reports the pass rate per review-lag bucket. Buckets
// without samples are omitted.
func (e *Engine) RetentionCurve() []RetentionPoint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.retentionCurveLocked()
}

func (e *Engine) retentionCurveLocked() []RetentionPoint {
	points := make([]RetentionPoint, 0, len(RetentionBuckets))
	for _, days := range RetentionBuckets {
		var n, passed int
		e.sessions.each(func(s domain.ReviewSession) {
			if s.FirstReview || math.Abs(s.ElapsedDays-float64(days)) > bucketTolerance {
				return
			}
			n++
			if s.Correct() {
				passed++
			}
		})
		if n == 0 {
			continue
		}
		points = append(points, RetentionPoint{
			Days:          days,
			RetentionRate: float64(passed) / float64(n) * 100,
			SampleSize:    n,
		})
	}
	return points
}

// ProblemAreas finds subject/chapter groups that need attention, worst
// first. Only items with at least one review count towards a group and its
// minimum size: an unreviewed item has no accuracy to average.
func (e *Engine) ProblemAreas() []ProblemArea {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.problemAreasLocked()
}

func (e *Engine) problemAreasLocked() []ProblemArea {
	type key struct{ subject, chapter string }
	groups := make(map[key][]*domain.ReviewItem)
	for _, it := range e.items {
		if it.TotalReviews == 0 {
			continue
		}
		k := key{it.Subject, it.Chapter}
		groups[k] = append(groups[k], it)
	}

	areas := make([]ProblemArea, 0)
	for k, items := range groups {
		if len(items) < minGroupSize {
			continue
		}
		var accSum, easeSum float64
		var low int
		for _, it := range items {
			accSum += it.Accuracy
			easeSum += it.EaseFactor
			if it.Accuracy < lowPerformerAccuracy {
				low++
			}
		}
		n := float64(len(items))
		meanAcc, meanEase := accSum/n, easeSum/n
		if meanAcc >= problemAccuracy && meanEase >= problemEase && low*2 <= len(items) {
			continue
		}
		severity := SeverityLow
		switch {
		case meanAcc < highSeverityAccuracy:
			severity = SeverityHigh
		case meanAcc < problemAccuracy:
			severity = SeverityMedium
		}
		areas = append(areas, ProblemArea{
			Subject:        k.subject,
			Chapter:        k.chapter,
			ItemCount:      len(items),
			MeanAccuracy:   meanAcc,
			MeanEaseFactor: meanEase,
			LowPerformers:  low,
			Severity:       severity,
		})
	}

	slices.SortFunc(areas, func(a, b ProblemArea) int {
		if c := cmp.Compare(b.Severity.rank(), a.Severity.rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.MeanAccuracy, b.MeanAccuracy); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Subject, b.Subject); c != 0 {
			return c
		}
		return cmp.Compare(a.Chapter, b.Chapter)
	})
	return areas
}

// GetDifficultyAdjustments suggests tier changes for items whose record
// no longer matches their tier.
func (e *Engine) GetDifficultyAdjustments() []DifficultyAdjustment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []DifficultyAdjustment
	for _, it := range e.sortedItemsLocked() {
		if it.TotalReviews < minReviewsForSuggest {
			continue
		}
		var suggested domain.Difficulty
		var reason string
		switch {
		case it.Accuracy >= easySuggestAccuracy && it.EaseFactor > easySuggestEase:
			suggested, reason = domain.Easy, "consistently recalled with high ease"
		case it.Accuracy <= hardSuggestAccuracy && it.EaseFactor < hardSuggestEase:
			suggested, reason = domain.Hard, "frequently failed with low ease"
		default:
			continue
		}
		if suggested == it.Difficulty {
			continue
		}
		out = append(out, DifficultyAdjustment{
			ItemID:     it.ID,
			Current:    it.Difficulty,
			Suggested:  suggested,
			Accuracy:   it.Accuracy,
			EaseFactor: it.EaseFactor,
			Reason:     reason,
		})
	}
	return out
}
