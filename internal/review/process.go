package review

import (
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/sm2"
)

// ReviewResult is returned by ProcessReview and carried by the
// reviewProcessed event.
type ReviewResult struct {
	Item           domain.ReviewItem    `json:"item"`
	Session        domain.ReviewSession `json:"session"`
	NextReviewDate time.Time            `json:"next_review_date"`
}

// ProcessReview records a review of item id with the given quality (0-5,
// clamped) and response time, and reschedules the item.
func (e *Engine) ProcessReview(id string, quality int, responseTimeMs int64) (ReviewResult, error) {
	e.mu.Lock()
	it, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return ReviewResult{}, notFound(id)
	}
	now := e.clock.Now()
	q := sm2.ClampQuality(quality)
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}

	perf := sm2.Performance{
		TotalReviews:        it.TotalReviews,
		CorrectReviews:      it.CorrectReviews,
		Accuracy:            it.Accuracy,
		AverageResponseTime: it.AverageResponseTime,
	}.Record(q, responseTimeMs)

	out := sm2.Schedule(sm2.State{
		EaseFactor:  it.EaseFactor,
		Interval:    it.Interval,
		Repetitions: it.Repetitions,
	}, q, e.settings)

	session := domain.ReviewSession{
		ItemID:           it.ID,
		Quality:          q,
		ResponseTimeMs:   responseTimeMs,
		PreviousInterval: it.Interval,
		NewInterval:      out.Interval,
		PreviousEase:     it.EaseFactor,
		NewEase:          out.EaseFactor,
		Timestamp:        now,
		Subject:          it.Subject,
		Chapter:          it.Chapter,
	}
	if it.LastReview != nil {
		session.ElapsedDays = now.Sub(*it.LastReview).Hours() / 24
	} else {
		session.FirstReview = true
	}

	it.TotalReviews = perf.TotalReviews
	it.CorrectReviews = perf.CorrectReviews
	it.Accuracy = perf.Accuracy
	it.AverageResponseTime = perf.AverageResponseTime
	it.EaseFactor = out.EaseFactor
	it.Interval = out.Interval
	it.Repetitions = out.Repetitions
	if it.Status != domain.StatusSuspended {
		it.Status = out.Status
	}
	reviewed := now
	it.LastReview = &reviewed
	it.NextReview = now.Add(time.Duration(out.Interval) * 24 * time.Hour)
	it.UpdatedAt = now

	e.sessions.append(session)
	result := ReviewResult{Item: it.Clone(), Session: session, NextReviewDate: it.NextReview}
	queue := e.refreshQueueLocked(now)
	e.mu.Unlock()

	e.log.Debug("review processed",
		"id", id,
		"quality", q,
		"interval", out.Interval,
		"ease", out.EaseFactor,
		"status", result.Item.Status,
	)
	e.commit(
		Event{Name: EventReviewProcessed, Payload: result},
		Event{Name: EventQueueUpdated, Payload: queue},
	)
	return result, nil
}
