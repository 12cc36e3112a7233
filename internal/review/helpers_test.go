package review

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	opts.Clock = clock
	e, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close(context.Background()) })
	return e, clock
}

func mustAdd(t *testing.T, e *Engine, in NewItem) domain.ReviewItem {
	t.Helper()
	if in.ContentRef == "" {
		in.ContentRef = "content for " + in.ID
	}
	it, err := e.AddItem(in)
	require.NoError(t, err)
	return it
}

// reviewedItem builds a stored item with a review history, for seeding
// engines through ImportData.
func reviewedItem(id, subject, chapter string, accuracy, ease float64) domain.ReviewItem {
	return domain.ReviewItem{
		ID:             id,
		ContentRef:     id,
		Subject:        subject,
		Chapter:        chapter,
		Type:           domain.TypeFlashcard,
		Difficulty:     domain.Medium,
		EaseFactor:     ease,
		Interval:       1,
		Repetitions:    1,
		NextReview:     t0.Add(day),
		TotalReviews:   10,
		CorrectReviews: int(accuracy / 10),
		Accuracy:       accuracy,
		Status:         domain.StatusReview,
		CreatedAt:      t0,
		UpdatedAt:      t0,
	}
}

func seed(t *testing.T, e *Engine, items []domain.ReviewItem, sessions []domain.ReviewSession) {
	t.Helper()
	snap := e.ExportData()
	snap.Items = items
	snap.Sessions = sessions
	require.NoError(t, e.ImportData(snap))
}

// recorder collects engine events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) names() []EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventName, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}
