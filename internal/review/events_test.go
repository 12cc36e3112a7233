package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/sm2"
)

func TestEvents(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	rec := &recorder{}
	unsubscribe := e.Subscribe(rec.handle)

	mustAdd(t, e, NewItem{ID: "a"})
	res, err := e.ProcessReview("a", 4, 0)
	require.NoError(t, err)
	_, err = e.AdjustItemDifficulty("a", domain.Hard)
	require.NoError(t, err)
	_, err = e.UpdateSettings(sm2.DefaultSettings())
	require.NoError(t, err)
	e.ResetAllData()

	assert.Equal(t, []EventName{
		EventQueueUpdated,
		EventReviewProcessed, EventQueueUpdated,
		EventDifficultyAdjusted, EventQueueUpdated,
		EventSettingsUpdated,
		EventDataReset, EventQueueUpdated,
	}, rec.names())

	rec.mu.Lock()
	first := rec.events[0].Payload.([]domain.ReviewItem)
	processed := rec.events[1].Payload.(ReviewResult)
	afterReview := rec.events[2].Payload.([]domain.ReviewItem)
	rec.mu.Unlock()
	assert.Equal(t, []string{"a"}, ids(first))
	assert.Equal(t, res, processed)
	assert.Empty(t, afterReview, "reviewed item left the queue")

	unsubscribe()
	unsubscribe()
	mustAdd(t, e, NewItem{ID: "b"})
	assert.Len(t, rec.names(), 8)
}

func TestEventPayloadIsACopy(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.Subscribe(func(ev Event) {
		if q, ok := ev.Payload.([]domain.ReviewItem); ok {
			for i := range q {
				q[i].EaseFactor = 1.3
			}
		}
	})
	mustAdd(t, e, NewItem{ID: "a"})

	got, err := e.GetItem("a")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.EaseFactor)
}
