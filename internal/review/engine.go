// Package review is the scheduling engine: it owns every review item and
// the session log, orders the due queue, and derives analytics from both.
package review

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/logger"
	"github.com/conorfennell/knolreview/internal/sm2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store is the persistence collaborator. Load returns nil, nil for a key
// that was never saved.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Clock  Clock          // nil: SystemClock
	Store  Store          // nil: state is kept in memory only
	Logger *logger.Logger // nil: discard
	// Settings overrides both the defaults and any persisted settings.
	Settings       *sm2.Settings
	SessionLogSize int // 0: DefaultSessionLogSize
	// WriteBehind moves saves to a background goroutine. Flush forces a
	// synchronous save; Close flushes and stops the goroutine.
	WriteBehind   bool
	SaveAttempts  uint          // 0: 3
	RetryInterval time.Duration // 0: 50ms
}

// Engine schedules reviews for a set of items. It is safe for concurrent
// use; every mutation is applied atomically.
type Engine struct {
	mu       sync.RWMutex
	clock    Clock
	log      *logger.Logger
	items    map[string]*domain.ReviewItem
	sessions *sessionLog
	settings sm2.Settings

	bus     eventBus
	persist *persister
}

// New builds an engine and restores any state found in opts.Store.
// Unreadable or corrupted stored state is logged and ignored.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Settings != nil {
		if err := opts.Settings.Validate(); err != nil {
			return nil, invalid(err)
		}
	}
	e := &Engine{
		clock:    opts.Clock,
		log:      opts.Logger,
		items:    make(map[string]*domain.ReviewItem),
		sessions: newSessionLog(opts.SessionLogSize),
		settings: sm2.DefaultSettings(),
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.log == nil {
		e.log = logger.Nop()
	}

	if opts.Store != nil {
		e.restore(ctx, opts.Store)
		e.persist = newPersister(opts, e.log, e.encodeState)
	}
	if opts.Settings != nil {
		e.settings = *opts.Settings
	}

	e.log.Info("review engine ready",
		"items", len(e.items),
		"sessions", e.sessions.len(),
		"write_behind", opts.WriteBehind,
	)
	return e, nil
}

// Subscribe registers h for all engine events and returns a function that
// removes it.
func (e *Engine) Subscribe(h Handler) (unsubscribe func()) {
	return e.bus.subscribe(h)
}

// Settings returns the active algorithm parameters.
func (e *Engine) Settings() sm2.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// Flush saves the current state synchronously.
func (e *Engine) Flush(ctx context.Context) error {
	return e.persist.flush(ctx)
}

// PersistErr returns the most recent persistence failure, or nil once a
// later save has succeeded.
func (e *Engine) PersistErr() error {
	return e.persist.lastError()
}

// Close stops background saving and flushes what is pending.
func (e *Engine) Close(ctx context.Context) error {
	return e.persist.close(ctx)
}

// commit runs after a mutation has released the lock: it persists the new
// state and then notifies subscribers.
func (e *Engine) commit(events ...Event) {
	e.persist.changed()
	e.bus.emit(events...)
}
