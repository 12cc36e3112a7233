package review

import (
	"slices"
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/sm2"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

// Snapshot is the full exportable engine state.
type Snapshot struct {
	Version    int                    `json:"version"`
	ExportedAt time.Time              `json:"exported_at"`
	Items      []domain.ReviewItem    `json:"items" validate:"dive"`
	Sessions   []domain.ReviewSession `json:"sessions" validate:"dive"`
	Settings   sm2.Settings           `json:"settings"`
}

// ImportFailure describes one entry ImportItems could not add.
type ImportFailure struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// ImportResult reports a bulk import.
type ImportResult struct {
	Imported int                 `json:"imported"`
	Items    []domain.ReviewItem `json:"items,omitempty"`
	Failures []ImportFailure     `json:"failures,omitempty"`
}

// ResetResult is the payload of the dataReset event.
type ResetResult struct {
	ItemsRemoved    int `json:"items_removed"`
	SessionsRemoved int `json:"sessions_removed"`
}

// ImportItems adds every entry independently. A bad entry is recorded in
// the result and never stops the batch.
func (e *Engine) ImportItems(entries []NewItem) ImportResult {
	var res ImportResult
	e.mu.Lock()
	for i, in := range entries {
		it, err := e.addItemLocked(in)
		if err != nil {
			res.Failures = append(res.Failures, ImportFailure{Index: i, ID: in.ID, Reason: err.Error(), Err: err})
			continue
		}
		res.Imported++
		res.Items = append(res.Items, it.Clone())
	}
	var queue []domain.ReviewItem
	if res.Imported > 0 {
		queue = e.refreshQueueLocked(e.clock.Now())
	}
	e.mu.Unlock()

	if res.Imported > 0 {
		e.commit(Event{Name: EventQueueUpdated, Payload: queue})
	}
	e.log.Info("items imported", "imported", res.Imported, "failed", len(res.Failures))
	return res
}

// ExportData returns a copy of all items (ordered by id), the session log
// (oldest first) and the settings.
func (e *Engine) ExportData() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: e.clock.Now(),
		Items:      make([]domain.ReviewItem, 0, len(e.items)),
		Sessions:   e.sessions.all(),
		Settings:   e.settings,
	}
	for _, it := range e.sortedItemsLocked() {
		snap.Items = append(snap.Items, it.Clone())
	}
	return snap
}

// ImportData merges a snapshot: items replace those with the same id,
// sessions are merged by time and re-capped, settings are replaced. The
// snapshot is validated as a whole before anything changes. Sessions for
// items that exist neither in the engine nor in the snapshot are dropped.
func (e *Engine) ImportData(snap Snapshot) error {
	if err := validate.Struct(snap); err != nil {
		return invalid(err)
	}
	if err := snap.Settings.Validate(); err != nil {
		return invalid(err)
	}

	e.mu.Lock()
	for _, it := range snap.Items {
		c := it.Clone()
		e.items[c.ID] = &c
	}
	sessions := make([]domain.ReviewSession, 0, len(snap.Sessions))
	for _, s := range snap.Sessions {
		if _, ok := e.items[s.ItemID]; ok {
			sessions = append(sessions, s)
		}
	}
	dropped := len(snap.Sessions) - len(sessions)
	e.sessions.replace(mergeSessions(e.sessions.all(), sessions))
	e.settings = snap.Settings
	settings := e.settings
	queue := e.refreshQueueLocked(e.clock.Now())
	e.mu.Unlock()

	e.log.Info("snapshot imported",
		"items", len(snap.Items),
		"sessions", len(sessions),
		"orphan_sessions_dropped", dropped,
	)
	e.commit(
		Event{Name: EventSettingsUpdated, Payload: settings},
		Event{Name: EventQueueUpdated, Payload: queue},
	)
	return nil
}

// mergeSessions combines two logs in timestamp order, dropping exact
// duplicates of the same review.
func mergeSessions(a, b []domain.ReviewSession) []domain.ReviewSession {
	type key struct {
		item string
		at   int64
	}
	seen := make(map[key]bool, len(a)+len(b))
	out := make([]domain.ReviewSession, 0, len(a)+len(b))
	for _, s := range append(append([]domain.ReviewSession(nil), a...), b...) {
		k := key{s.ItemID, s.Timestamp.UnixNano()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(x, y domain.ReviewSession) int {
		return x.Timestamp.Compare(y.Timestamp)
	})
	return out
}

// UpdateSettings replaces the algorithm parameters. Existing intervals are
// not recomputed.
func (e *Engine) UpdateSettings(s sm2.Settings) (sm2.Settings, error) {
	if err := s.Validate(); err != nil {
		return sm2.Settings{}, invalid(err)
	}
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()

	e.commit(Event{Name: EventSettingsUpdated, Payload: s})
	return s, nil
}

// ResetAllData drops every item and session and restores default settings.
func (e *Engine) ResetAllData() ResetResult {
	e.mu.Lock()
	res := ResetResult{ItemsRemoved: len(e.items), SessionsRemoved: e.sessions.len()}
	e.items = make(map[string]*domain.ReviewItem)
	e.sessions.replace(nil)
	e.settings = sm2.DefaultSettings()
	queue := e.refreshQueueLocked(e.clock.Now())
	e.mu.Unlock()

	e.log.Warn("all review data reset", "items", res.ItemsRemoved, "sessions", res.SessionsRemoved)
	e.commit(
		Event{Name: EventDataReset, Payload: res},
		Event{Name: EventQueueUpdated, Payload: queue},
	)
	return res
}
