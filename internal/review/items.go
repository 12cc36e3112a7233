package review

import (
	"github.com/google/uuid"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/sm2"
)

// NewItem is the input to AddItem. Scheduling fields always start from
// defaults.
type NewItem struct {
	ID         string            `json:"id,omitempty" validate:"omitempty,max=128"`
	ContentRef string            `json:"content_ref" validate:"required"`
	Subject    string            `json:"subject"`
	Chapter    string            `json:"chapter"`
	Type       domain.ItemType   `json:"type,omitempty" validate:"omitempty,max=32"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Tags       []string          `json:"tags,omitempty" validate:"dive,required"`
	Origin     string            `json:"origin,omitempty"`
}

// ItemUpdate changes content metadata. Nil fields are left alone.
type ItemUpdate struct {
	ContentRef *string            `json:"content_ref,omitempty" validate:"omitnil,min=1"`
	Subject    *string            `json:"subject,omitempty"`
	Chapter    *string            `json:"chapter,omitempty"`
	Difficulty *domain.Difficulty `json:"difficulty,omitempty" validate:"omitnil,oneof=easy medium hard"`
	Type       *domain.ItemType   `json:"type,omitempty" validate:"omitnil,min=1,max=32"`
	Tags       []string           `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// AddItem creates a new item that is due immediately.
func (e *Engine) AddItem(in NewItem) (domain.ReviewItem, error) {
	e.mu.Lock()
	it, err := e.addItemLocked(in)
	if err != nil {
		e.mu.Unlock()
		return domain.ReviewItem{}, err
	}
	out := it.Clone()
	queue := e.refreshQueueLocked(e.clock.Now())
	e.mu.Unlock()

	e.commit(Event{Name: EventQueueUpdated, Payload: queue})
	return out, nil
}

func (e *Engine) addItemLocked(in NewItem) (*domain.ReviewItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := e.items[id]; exists {
		return nil, invalidf("item %q already exists", id)
	}
	now := e.clock.Now()
	it := &domain.ReviewItem{
		ID:         id,
		ContentRef: in.ContentRef,
		Subject:    in.Subject,
		Chapter:    in.Chapter,
		Type:       in.Type,
		Tags:       append([]string(nil), in.Tags...),
		Origin:     in.Origin,
		Difficulty: in.Difficulty,
		EaseFactor: sm2.DefaultEaseFactor,
		NextReview: now,
		Status:     domain.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if it.Type == "" {
		it.Type = domain.TypeFlashcard
	}
	if it.Difficulty == "" {
		it.Difficulty = domain.Medium
	}
	e.items[id] = it
	return it, nil
}

// GetItem returns a copy of the item.
func (e *Engine) GetItem(id string) (domain.ReviewItem, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	it, ok := e.items[id]
	if !ok {
		return domain.ReviewItem{}, notFound(id)
	}
	return it.Clone(), nil
}

// Items lists every item matching f, due or not, ordered by id.
func (e *Engine) Items(f Filter) []domain.ReviewItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.ReviewItem
	for _, it := range e.sortedItemsLocked() {
		if f.match(it) {
			out = append(out, it.Clone())
		}
	}
	return f.limit(out)
}

// UpdateItem edits content metadata only; scheduling state is untouched.
func (e *Engine) UpdateItem(id string, u ItemUpdate) (domain.ReviewItem, error) {
	if err := validate.Struct(u); err != nil {
		return domain.ReviewItem{}, invalid(err)
	}
	e.mu.Lock()
	it, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return domain.ReviewItem{}, notFound(id)
	}
	if u.ContentRef != nil {
		it.ContentRef = *u.ContentRef
	}
	if u.Subject != nil {
		it.Subject = *u.Subject
	}
	if u.Chapter != nil {
		it.Chapter = *u.Chapter
	}
	if u.Difficulty != nil {
		it.Difficulty = *u.Difficulty
	}
	if u.Type != nil {
		it.Type = *u.Type
	}
	if u.Tags != nil {
		it.Tags = append([]string(nil), u.Tags...)
	}
	it.UpdatedAt = e.clock.Now()
	out := it.Clone()
	e.mu.Unlock()

	e.commit()
	return out, nil
}

// SuspendItem removes the item from the due queue until unsuspended.
func (e *Engine) SuspendItem(id string) (domain.ReviewItem, error) {
	return e.mutateQueued(id, func(it *domain.ReviewItem) {
		it.Status = domain.StatusSuspended
	})
}

// UnsuspendItem restores the status implied by the repetition count. An
// item that was never passed becomes due again immediately.
func (e *Engine) UnsuspendItem(id string) (domain.ReviewItem, error) {
	return e.mutateQueued(id, func(it *domain.ReviewItem) {
		if it.Status != domain.StatusSuspended {
			return
		}
		it.Status = sm2.StatusForRepetitions(it.Repetitions)
		if it.Repetitions == 0 {
			it.NextReview = e.clock.Now()
		}
	})
}

// mutateQueued applies fn to an item under the lock and republishes the
// queue.
func (e *Engine) mutateQueued(id string, fn func(*domain.ReviewItem)) (domain.ReviewItem, error) {
	e.mu.Lock()
	it, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return domain.ReviewItem{}, notFound(id)
	}
	now := e.clock.Now()
	fn(it)
	it.UpdatedAt = now
	out := it.Clone()
	queue := e.refreshQueueLocked(now)
	e.mu.Unlock()

	e.commit(Event{Name: EventQueueUpdated, Payload: queue})
	return out, nil
}

// DeleteItem removes the item and its review history.
func (e *Engine) DeleteItem(id string) error {
	e.mu.Lock()
	if _, ok := e.items[id]; !ok {
		e.mu.Unlock()
		return notFound(id)
	}
	delete(e.items, id)
	purged := e.sessions.removeItem(id)
	queue := e.refreshQueueLocked(e.clock.Now())
	e.mu.Unlock()

	e.log.Debug("item deleted", "id", id, "sessions_purged", purged)
	e.commit(Event{Name: EventQueueUpdated, Payload: queue})
	return nil
}

// difficultyStep is the ease nudge applied when an item changes tier.
const difficultyStep = 0.2

// AdjustItemDifficulty moves the item to tier. Moving to easy raises the
// ease factor and moving to hard lowers it; moving to medium leaves it.
func (e *Engine) AdjustItemDifficulty(id string, tier domain.Difficulty) (domain.ReviewItem, error) {
	if !tier.Valid() {
		return domain.ReviewItem{}, invalidf("unknown difficulty %q", tier)
	}
	e.mu.Lock()
	it, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return domain.ReviewItem{}, notFound(id)
	}
	if tier != it.Difficulty {
		switch tier {
		case domain.Easy:
			it.EaseFactor = sm2.ClampEase(it.EaseFactor + difficultyStep)
		case domain.Hard:
			it.EaseFactor = sm2.ClampEase(it.EaseFactor - difficultyStep)
		}
	}
	it.Difficulty = tier
	now := e.clock.Now()
	it.UpdatedAt = now
	out := it.Clone()
	queue := e.refreshQueueLocked(now)
	e.mu.Unlock()

	e.commit(
		Event{Name: EventDifficultyAdjusted, Payload: out.Clone()},
		Event{Name: EventQueueUpdated, Payload: queue},
	)
	return out, nil
}
