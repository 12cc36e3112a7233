package review

import (
	"sort"
	"sync"
)

// EventName identifies a notification emitted by the engine.
type EventName string

const (
	EventReviewProcessed    EventName = "reviewProcessed"    // payload: ReviewResult
	EventQueueUpdated       EventName = "queueUpdated"       // payload: []domain.ReviewItem
	EventSettingsUpdated    EventName = "settingsUpdated"    // payload: sm2.Settings
	EventDifficultyAdjusted EventName = "difficultyAdjusted" // payload: domain.ReviewItem
	EventDataReset          EventName = "dataReset"          // payload: ResetResult
)

// Event is delivered to subscribers after the operation that caused it
// has completed.
type Event struct {
	Name    EventName
	Payload interface{}
}

// Handler receives engine events. Handlers run on the caller's goroutine
// and must not block for long.
type Handler func(Event)

type eventBus struct {
	mu       sync.Mutex
	next     int
	handlers map[int]Handler
}

func (b *eventBus) subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

func (b *eventBus) emit(events ...Event) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hs := make([]Handler, len(ids))
	for i, id := range ids {
		hs[i] = b.handlers[id]
	}
	b.mu.Unlock()

	for _, ev := range events {
		for _, h := range hs {
			h(ev)
		}
	}
}
