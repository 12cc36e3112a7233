package review

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/logger"
	"github.com/conorfennell/knolreview/internal/sm2"
)

// Keys under which the engine state is stored.
const (
	KeyItems    = "review_items"
	KeySessions = "review_sessions"
	KeySettings = "review_settings"
)

var stateKeys = []string{KeyItems, KeySessions, KeySettings}

// restore loads persisted state. Any key that cannot be read or decoded is
// treated as absent so a damaged store never prevents construction.
func (e *Engine) restore(ctx context.Context, store Store) {
	load := func(key string, v interface{}) bool {
		blob, err := store.Load(ctx, key)
		if err != nil {
			e.log.Warn("failed to load persisted state, starting empty", "key", key, "error", err)
			return false
		}
		if blob == nil {
			return false
		}
		if err := json.Unmarshal(blob, v); err != nil {
			e.log.Warn("corrupted persisted state ignored", "key", key, "error", err)
			return false
		}
		return true
	}

	var items []domain.ReviewItem
	if load(KeyItems, &items) {
		for i := range items {
			it := items[i]
			if err := validate.Struct(it); err != nil {
				e.log.Warn("skipping invalid persisted item", "id", it.ID, "error", err)
				continue
			}
			e.items[it.ID] = &it
		}
	}

	var sessions []domain.ReviewSession
	if load(KeySessions, &sessions) {
		e.sessions.replace(sessions)
	}

	var settings sm2.Settings
	if load(KeySettings, &settings) {
		if err := settings.Validate(); err != nil {
			e.log.Warn("persisted settings invalid, using defaults", "error", err)
		} else {
			e.settings = settings
		}
	}
}

// encodeState serializes the engine state, one blob per key.
func (e *Engine) encodeState() (map[string][]byte, error) {
	e.mu.RLock()
	items := make([]domain.ReviewItem, 0, len(e.items))
	for _, it := range e.items {
		items = append(items, it.Clone())
	}
	sessions := e.sessions.all()
	settings := e.settings
	e.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	out := make(map[string][]byte, len(stateKeys))
	for key, v := range map[string]interface{}{
		KeyItems:    items,
		KeySessions: sessions,
		KeySettings: settings,
	} {
		blob, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[key] = blob
	}
	return out, nil
}

// persister writes engine snapshots to the store. Each flush snapshots the
// state at save time, so saves never go backwards even when they queue up.
type persister struct {
	store    Store
	log      *logger.Logger
	encode   func() (map[string][]byte, error)
	attempts uint
	interval time.Duration

	saveMu sync.Mutex

	errMu   sync.Mutex
	lastErr error

	writeBehind bool
	dirty       chan struct{}
	stop        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func newPersister(opts Options, log *logger.Logger, encode func() (map[string][]byte, error)) *persister {
	p := &persister{
		store:       opts.Store,
		log:         log,
		encode:      encode,
		attempts:    opts.SaveAttempts,
		interval:    opts.RetryInterval,
		writeBehind: opts.WriteBehind,
	}
	if p.attempts == 0 {
		p.attempts = 3
	}
	if p.interval == 0 {
		p.interval = 50 * time.Millisecond
	}
	if p.writeBehind {
		p.dirty = make(chan struct{}, 1)
		p.stop = make(chan struct{})
		p.wg.Add(1)
		go p.loop()
	}
	return p
}

func (p *persister) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.dirty:
			p.flush(context.Background())
		case <-p.stop:
			return
		}
	}
}

// changed is called after every mutation.
func (p *persister) changed() {
	if p == nil {
		return
	}
	if p.writeBehind {
		select {
		case p.dirty <- struct{}{}:
		default:
		}
		return
	}
	p.flush(context.Background())
}

func (p *persister) flush(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	blobs, err := p.encode()
	if err != nil {
		return p.record(&PersistenceWarning{Key: "state", Err: err})
	}
	var failed error
	for _, key := range stateKeys {
		if err := p.save(ctx, key, blobs[key]); err != nil {
			p.log.Warn("failed to persist engine state", "key", key, "error", err)
			if failed == nil {
				failed = &PersistenceWarning{Key: key, Err: err}
			}
		}
	}
	return p.record(failed)
}

func (p *persister) save(ctx context.Context, key string, blob []byte) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.store.Save(ctx, key, blob)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.attempts))
	return err
}

func (p *persister) record(err error) error {
	p.errMu.Lock()
	p.lastErr = err
	p.errMu.Unlock()
	return err
}

func (p *persister) lastError() error {
	if p == nil {
		return nil
	}
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.lastErr
}

func (p *persister) close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		if p.writeBehind {
			close(p.stop)
			p.wg.Wait()
		}
	})
	return p.flush(ctx)
}
