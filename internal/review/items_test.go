package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
)

func TestAddItemDefaults(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	it, err := e.AddItem(NewItem{ContentRef: "What is ATP?", Subject: "Biology", Tags: []string{"energy"}})
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID, "id is generated when not supplied")
	assert.Equal(t, domain.TypeFlashcard, it.Type)
	assert.Equal(t, domain.Medium, it.Difficulty)
	assert.Equal(t, 0, it.Repetitions)
	assert.Nil(t, it.LastReview)
	assert.Equal(t, t0, it.CreatedAt)
}

func TestAddItemValidation(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "dup"})

	testCases := []struct {
		name string
		in   NewItem
	}{
		{"missing content", NewItem{ID: "x"}},
		{"bad difficulty", NewItem{ContentRef: "c", Difficulty: "brutal"}},
		{"empty tag", NewItem{ContentRef: "c", Tags: []string{""}}},
		{"duplicate id", NewItem{ID: "dup", ContentRef: "c"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.AddItem(tc.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateItemLeavesScheduling(t *testing.T) {
	e, clock := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "a", Subject: "Old"})
	before, err := e.ProcessReview("a", 5, 0)
	require.NoError(t, err)

	clock.Advance(day)
	subject, content := "New", "rewritten"
	hard := domain.Hard
	got, err := e.UpdateItem("a", ItemUpdate{
		Subject:    &subject,
		ContentRef: &content,
		Difficulty: &hard,
		Tags:       []string{"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Subject)
	assert.Equal(t, "rewritten", got.ContentRef)
	assert.Equal(t, domain.Hard, got.Difficulty)
	assert.Equal(t, []string{"x", "y"}, got.Tags)
	assert.Equal(t, before.Item.EaseFactor, got.EaseFactor)
	assert.Equal(t, before.Item.Interval, got.Interval)
	assert.Equal(t, before.Item.NextReview, got.NextReview)
	assert.Equal(t, t0.Add(day), got.UpdatedAt)

	empty := ""
	_, err = e.UpdateItem("a", ItemUpdate{ContentRef: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.UpdateItem("missing", ItemUpdate{Subject: &subject})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuspendAndUnsuspend(t *testing.T) {
	e, clock := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "new"})
	mustAdd(t, e, NewItem{ID: "seen"})
	_, err := e.ProcessReview("seen", 4, 0)
	require.NoError(t, err)
	_, err = e.ProcessReview("seen", 4, 0)
	require.NoError(t, err)

	for _, id := range []string{"new", "seen"} {
		it, err := e.SuspendItem(id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuspended, it.Status)
	}
	assert.Empty(t, e.GetReviewQueue(Filter{}))

	clock.Advance(30 * day)
	assert.Empty(t, e.GetReviewQueue(Filter{}), "suspended items never become due")

	it, err := e.UnsuspendItem("new")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, it.Status)
	assert.Equal(t, clock.Now(), it.NextReview)

	it, err = e.UnsuspendItem("seen")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReview, it.Status)
	assert.Equal(t, t0.Add(6*day), it.NextReview, "due date kept for items with repetitions")

	assert.Equal(t, []string{"seen", "new"}, ids(e.GetReviewQueue(Filter{})))

	_, err = e.SuspendItem("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.UnsuspendItem("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnsuspendAfterOneRepetition(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "a"})
	_, err := e.ProcessReview("a", 3, 0)
	require.NoError(t, err)
	_, err = e.SuspendItem("a")
	require.NoError(t, err)

	it, err := e.UnsuspendItem("a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLearning, it.Status)
}

func TestDeleteItemPurgesSessions(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "a"})
	mustAdd(t, e, NewItem{ID: "b"})
	for _, id := range []string{"a", "b", "a"} {
		_, err := e.ProcessReview(id, 4, 0)
		require.NoError(t, err)
	}

	require.NoError(t, e.DeleteItem("a"))

	_, err := e.GetItem("a")
	assert.ErrorIs(t, err, ErrNotFound)
	sessions := e.ExportData().Sessions
	require.Len(t, sessions, 1)
	assert.Equal(t, "b", sessions[0].ItemID)

	assert.ErrorIs(t, e.DeleteItem("a"), ErrNotFound)
}

func TestAdjustItemDifficulty(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "a"})

	it, err := e.AdjustItemDifficulty("a", domain.Easy)
	require.NoError(t, err)
	assert.Equal(t, domain.Easy, it.Difficulty)
	assert.InDelta(t, 2.7, it.EaseFactor, 1e-9)

	it, err = e.AdjustItemDifficulty("a", domain.Easy)
	require.NoError(t, err)
	assert.InDelta(t, 2.7, it.EaseFactor, 1e-9, "same tier leaves ease alone")

	it, err = e.AdjustItemDifficulty("a", domain.Hard)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, it.EaseFactor, 1e-9)

	_, err = e.AdjustItemDifficulty("a", "impossible")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.AdjustItemDifficulty("missing", domain.Easy)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustItemDifficultyToMedium(t *testing.T) {
	testCases := []struct {
		name string
		from domain.Difficulty
	}{
		{name: "from hard", from: domain.Hard},
		{name: "from easy", from: domain.Easy},
		{name: "from medium", from: domain.Medium},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(t, Options{})
			mustAdd(t, e, NewItem{ID: "x", Difficulty: tc.from})

			it, err := e.AdjustItemDifficulty("x", domain.Medium)
			require.NoError(t, err)
			assert.Equal(t, domain.Medium, it.Difficulty)
			assert.InDelta(t, 2.5, it.EaseFactor, 1e-9)
		})
	}
}

func TestAdjustItemDifficultyClampsEase(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	low := reviewedItem("low", "s", "c", 20, 1.4)
	low.Difficulty = domain.Easy
	seed(t, e, []domain.ReviewItem{low}, nil)

	it, err := e.AdjustItemDifficulty("low", domain.Hard)
	require.NoError(t, err)
	assert.Equal(t, 1.3, it.EaseFactor)
}

func TestItemsListing(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	mustAdd(t, e, NewItem{ID: "b", Origin: "deck"})
	mustAdd(t, e, NewItem{ID: "a", Origin: "deck"})
	mustAdd(t, e, NewItem{ID: "c"})
	_, err := e.ProcessReview("a", 5, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(e.Items(Filter{})), "listing includes items that are not due")
	assert.Equal(t, []string{"a", "b"}, ids(e.Items(Filter{Origin: "deck"})))
}
