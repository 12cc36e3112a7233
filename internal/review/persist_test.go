package review

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/sm2"
	"github.com/conorfennell/knolreview/internal/storage"
)

// flakyStore fails every Save while failing is set and every Load when
// loadErr is set.
type flakyStore struct {
	*storage.Memory
	failing atomic.Bool
	loadErr error
	saves   atomic.Int32
}

func (s *flakyStore) Save(ctx context.Context, key string, blob []byte) error {
	s.saves.Add(1)
	if s.failing.Load() {
		return errors.New("disk full")
	}
	return s.Memory.Save(ctx, key, blob)
}

func (s *flakyStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Memory.Load(ctx, key)
}

func TestStateSurvivesRestart(t *testing.T) {
	store := storage.NewMemory()
	first, _ := newTestEngine(t, Options{Store: store})
	mustAdd(t, first, NewItem{ID: "a", Subject: "Biology"})
	_, err := first.ProcessReview("a", 5, 100)
	require.NoError(t, err)
	custom := sm2.DefaultSettings()
	custom.EasyMultiplier = 3
	_, err = first.UpdateSettings(custom)
	require.NoError(t, err)

	second, _ := newTestEngine(t, Options{Store: store})
	assert.Equal(t, first.ExportData().Items, second.ExportData().Items)
	assert.Equal(t, first.ExportData().Sessions, second.ExportData().Sessions)
	assert.Equal(t, custom, second.Settings())
}

func TestCorruptedStateIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Save(ctx, KeyItems, []byte("{not json")))
	require.NoError(t, store.Save(ctx, KeySessions, []byte(`[{"item_id":"a","quality":4}]`)))
	require.NoError(t, store.Save(ctx, KeySettings, []byte(`{"min_interval":0}`)))

	e, _ := newTestEngine(t, Options{Store: store})
	assert.Empty(t, e.Items(Filter{}))
	assert.Len(t, e.ExportData().Sessions, 1)
	assert.Equal(t, sm2.DefaultSettings(), e.Settings())
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	store := &flakyStore{Memory: storage.NewMemory(), loadErr: errors.New("connection refused")}
	e, _ := newTestEngine(t, Options{Store: store})
	assert.Empty(t, e.Items(Filter{}))
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	store := &flakyStore{Memory: storage.NewMemory()}
	store.failing.Store(true)
	e, _ := newTestEngine(t, Options{Store: store, SaveAttempts: 2, RetryInterval: time.Millisecond})

	mustAdd(t, e, NewItem{ID: "a"})
	res, err := e.ProcessReview("a", 4, 0)
	require.NoError(t, err, "persistence failures are not returned from mutations")
	assert.Equal(t, 1, res.Item.Repetitions)

	got, err := e.GetItem("a")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Repetitions)

	perr := e.PersistErr()
	require.Error(t, perr)
	assert.ErrorIs(t, perr, ErrPersistence)
	var warning *PersistenceWarning
	require.ErrorAs(t, perr, &warning)
	assert.Equal(t, KeyItems, warning.Key)
	assert.GreaterOrEqual(t, store.saves.Load(), int32(2), "saves are retried")

	store.failing.Store(false)
	require.NoError(t, e.Flush(context.Background()))
	assert.NoError(t, e.PersistErr())

	blob, err := store.Memory.Load(context.Background(), KeyItems)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"id":"a"`)
}

func TestWriteBehindFlush(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	e, _ := newTestEngine(t, Options{Store: store, WriteBehind: true})

	mustAdd(t, e, NewItem{ID: "a"})
	require.NoError(t, e.Flush(ctx))

	blob, err := store.Load(ctx, KeyItems)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"id":"a"`)

	mustAdd(t, e, NewItem{ID: "b"})
	require.NoError(t, e.Close(ctx))
	blob, err = store.Load(ctx, KeyItems)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"id":"b"`)
}

func TestSettingsOverride(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	persisted := sm2.DefaultSettings()
	persisted.MaxInterval = 90
	first, _ := newTestEngine(t, Options{Store: store})
	_, err := first.UpdateSettings(persisted)
	require.NoError(t, err)

	override := sm2.DefaultSettings()
	override.MaxInterval = 30
	e, _ := newTestEngine(t, Options{Store: store, Settings: &override})
	assert.Equal(t, 30, e.Settings().MaxInterval)

	invalidSettings := sm2.DefaultSettings()
	invalidSettings.EasyMultiplier = 0
	_, err = New(ctx, Options{Settings: &invalidSettings})
	assert.ErrorIs(t, err, ErrValidation)
}
