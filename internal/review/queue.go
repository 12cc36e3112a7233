package review

import (
	"cmp"
	"slices"
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
)

// Filter narrows queue and item listings. Zero fields match everything.
type Filter struct {
	Subject    string            `json:"subject,omitempty"`
	Chapter    string            `json:"chapter,omitempty"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	Type       domain.ItemType   `json:"type,omitempty"`
	Status     domain.Status     `json:"status,omitempty"`
	Origin     string            `json:"origin,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

func (f Filter) match(it *domain.ReviewItem) bool {
	switch {
	case f.Subject != "" && it.Subject != f.Subject:
		return false
	case f.Chapter != "" && it.Chapter != f.Chapter:
		return false
	case f.Difficulty != "" && it.Difficulty != f.Difficulty:
		return false
	case f.Type != "" && it.Type != f.Type:
		return false
	case f.Status != "" && it.Status != f.Status:
		return false
	case f.Origin != "" && it.Origin != f.Origin:
		return false
	}
	return true
}

func (f Filter) limit(items []domain.ReviewItem) []domain.ReviewItem {
	if f.Limit > 0 && len(items) > f.Limit {
		return items[:f.Limit]
	}
	return items
}

// GetReviewQueue returns the due items matching f in review order:
// overdue before exactly due, then ascending ease factor.
func (e *Engine) GetReviewQueue(f Filter) []domain.ReviewItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queueLocked(e.clock.Now(), f)
}

// GetNextReviewItem returns the head of the filtered queue.
func (e *Engine) GetNextReviewItem(f Filter) (domain.ReviewItem, bool) {
	f.Limit = 1
	q := e.GetReviewQueue(f)
	if len(q) == 0 {
		return domain.ReviewItem{}, false
	}
	return q[0], true
}

// refreshQueueLocked returns the unfiltered queue after a mutation, as
// the payload of the queueUpdated event.
func (e *Engine) refreshQueueLocked(now time.Time) []domain.ReviewItem {
	return e.queueLocked(now, Filter{})
}

func (e *Engine) queueLocked(now time.Time, f Filter) []domain.ReviewItem {
	due := make([]*domain.ReviewItem, 0)
	for _, it := range e.items {
		if it.Due(now) && f.match(it) {
			due = append(due, it)
		}
	}
	slices.SortFunc(due, func(a, b *domain.ReviewItem) int {
		return compareDue(a, b, now)
	})
	out := make([]domain.ReviewItem, len(due))
	for i, it := range due {
		out[i] = it.Clone()
	}
	return f.limit(out)
}

// compareDue orders overdue items first, then lower ease factor. Earlier
// due time and then id break remaining ties so the order is total.
func compareDue(a, b *domain.ReviewItem, now time.Time) int {
	ao, bo := a.Overdue(now), b.Overdue(now)
	if ao != bo {
		if ao {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.EaseFactor, b.EaseFactor); c != 0 {
		return c
	}
	if c := a.NextReview.Compare(b.NextReview); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (e *Engine) sortedItemsLocked() []*domain.ReviewItem {
	out := make([]*domain.ReviewItem, 0, len(e.items))
	for _, it := range e.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b *domain.ReviewItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
