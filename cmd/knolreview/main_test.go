package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/deck"
	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/review"
	"github.com/conorfennell/knolreview/internal/sm2"
)

type cli struct {
	t    *testing.T
	args []string
}

func newCLI(t *testing.T) *cli {
	dsn := filepath.Join(t.TempDir(), "state.db")
	return &cli{t: t, args: []string{"--store.driver", "sqlite", "--store.dsn", dsn, "--log.level", "error"}}
}

func (c *cli) exec(args ...string) ([]byte, error) {
	cmd, a := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(append([]string{}, args...), c.args...))
	err := execute(context.Background(), cmd, a)
	return out.Bytes(), err
}

func (c *cli) run(v any, args ...string) {
	c.t.Helper()
	out, err := c.exec(args...)
	require.NoError(c.t, err, "knolreview %v", args)
	if v != nil {
		require.NoError(c.t, json.Unmarshal(out, v), "output: %s", out)
	}
}

func TestReviewLifecycle(t *testing.T) {
	c := newCLI(t)

	var added domain.ReviewItem
	c.run(&added, "add", "--id", "go", "--content", "What is Go?", "--subject", "Languages", "--tags", "go,lang")
	assert.Equal(t, "go", added.ID)
	assert.Equal(t, domain.StatusNew, added.Status)
	assert.Equal(t, []string{"go", "lang"}, added.Tags)

	var queue []domain.ReviewItem
	c.run(&queue, "queue")
	require.Len(t, queue, 1)

	var next domain.ReviewItem
	c.run(&next, "next", "--subject", "Languages")
	assert.Equal(t, "go", next.ID)

	var res review.ReviewResult
	c.run(&res, "review", "go", "4", "--response-ms", "1200")
	assert.Equal(t, 1, res.Item.Interval)
	assert.Equal(t, 1, res.Item.Repetitions)

	queue = nil
	c.run(&queue, "queue")
	assert.Empty(t, queue, "state is persisted between runs")

	var stats review.Statistics
	c.run(&stats, "stats")
	assert.Equal(t, 1, stats.TotalItems)
	assert.Equal(t, 1, stats.TotalReviews)

	var suspended domain.ReviewItem
	c.run(&suspended, "suspend", "go")
	assert.Equal(t, domain.StatusSuspended, suspended.Status)

	var adjusted domain.ReviewItem
	c.run(&adjusted, "adjust", "go", "hard")
	assert.Equal(t, domain.Hard, adjusted.Difficulty)

	var updated domain.ReviewItem
	c.run(&updated, "update", "go", "--chapter", "Basics")
	assert.Equal(t, "Basics", updated.Chapter)
	assert.Equal(t, "Languages", updated.Subject)

	c.run(nil, "delete", "go")
	_, err := c.exec("show", "go")
	require.ErrorIs(t, err, review.ErrNotFound)
}

func TestReviewRejectsBadQuality(t *testing.T) {
	c := newCLI(t)
	c.run(nil, "add", "--id", "a", "--content", "x")
	_, err := c.exec("review", "a", "five")
	require.Error(t, err)
}

func TestExportResetImport(t *testing.T) {
	c := newCLI(t)
	c.run(nil, "add", "--id", "a", "--content", "first")
	c.run(nil, "add", "--id", "b", "--content", "second")
	c.run(nil, "review", "a", "5")

	file := filepath.Join(t.TempDir(), "export.json")
	c.run(nil, "export", "--out", file)

	_, err := c.exec("reset")
	require.Error(t, err, "reset needs confirmation")

	var reset review.ResetResult
	c.run(&reset, "reset", "--yes")
	assert.Equal(t, 2, reset.ItemsRemoved)

	var items []domain.ReviewItem
	c.run(&items, "list")
	assert.Empty(t, items)

	c.run(nil, "import", file)
	c.run(&items, "list")
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Repetitions)
}

func TestImportItems(t *testing.T) {
	c := newCLI(t)
	file := filepath.Join(t.TempDir(), "items.json")
	body := `[{"id":"x","content_ref":"one"},{"content_ref":""},{"content_ref":"two","difficulty":"easy"}]`
	require.NoError(t, os.WriteFile(file, []byte(body), 0o600))

	var res review.ImportResult
	c.run(&res, "import-items", file)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
}

func TestSettings(t *testing.T) {
	c := newCLI(t)

	var s sm2.Settings
	c.run(&s, "settings")
	assert.Equal(t, sm2.DefaultSettings(), s)

	c.run(&s, "settings", "set", "--max-interval", "120", "--easy-multiplier", "2.5")
	assert.Equal(t, 120, s.MaxInterval)

	s = sm2.Settings{}
	c.run(&s, "settings")
	assert.Equal(t, 120, s.MaxInterval, "updated settings survive a restart")
	assert.Equal(t, 2.5, s.EasyMultiplier)

	_, err := c.exec("settings", "set", "--min-interval", "500")
	require.ErrorIs(t, err, review.ErrValidation)
}

func TestSync(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.md"), []byte("# Maths\nQ: 2+2?\nA: 4\n---\nQ: 3*3?\nA: 9\n"), 0o644))

	var reports []deck.Report
	c.run(&reports, "sync", dir)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Added)

	var items []domain.ReviewItem
	c.run(&items, "list", "--subject", "Maths")
	assert.Len(t, items, 2)

	_, err := c.exec("sync")
	require.Error(t, err, "no sources configured")
}
