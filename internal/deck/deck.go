// Package deck reconciles markdown decks with the review engine. Every card
// becomes a review item whose id is the card's content hash and whose
// origin is the deck source it came from.
package deck

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/gitsource"
	"github.com/conorfennell/knolreview/internal/knol"
	"github.com/conorfennell/knolreview/internal/logger"
	"github.com/conorfennell/knolreview/internal/parser"
	"github.com/conorfennell/knolreview/internal/review"
)

// Engine is the part of review.Engine deck sync needs.
type Engine interface {
	GetItem(id string) (domain.ReviewItem, error)
	Items(f review.Filter) []domain.ReviewItem
	ImportItems(entries []review.NewItem) review.ImportResult
	DeleteItem(id string) error
}

var _ Engine = (*review.Engine)(nil)

// Report summarises one reconciliation.
type Report struct {
	Source   string   `json:"source"`
	Path     string   `json:"path"`
	Parsed   int      `json:"parsed"`
	Added    int      `json:"added"`
	Orphaned int      `json:"orphaned"`
	Errors   []string `json:"errors,omitempty"`
}

// Syncer reconciles deck sources. Git sources are checked out under
// ReposDir.
type Syncer struct {
	Engine   Engine
	ReposDir string
	Log      *logger.Logger
}

// SyncAll reconciles every source in turn. A failing source is logged and
// reported; it doesn't stop the others.
func (s *Syncer) SyncAll(ctx context.Context, sources []string) []Report {
	reports := make([]Report, 0, len(sources))
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		rep, err := s.Sync(ctx, src)
		if err != nil {
			s.log().Error("failed to sync source", "source", src, "error", err)
			rep.Errors = append(rep.Errors, err.Error())
		}
		reports = append(reports, rep)
	}
	return reports
}

// Sync reconciles one source, a local directory or a git URL: cards not yet
// known are imported and items from this source whose card is gone are
// deleted.
func (s *Syncer) Sync(ctx context.Context, source string) (Report, error) {
	log := s.log().With("source", source)
	rep := Report{Source: source, Path: source}

	if gitsource.IsURL(source) {
		local, err := gitsource.LocalPath(s.ReposDir, source)
		if err != nil {
			return rep, err
		}
		if err := gitsource.Sync(ctx, log, source, local); err != nil {
			return rep, err
		}
		rep.Path = local
	}

	cards, parseErrs, err := collect(rep.Path)
	if err != nil {
		return rep, err
	}
	for _, perr := range parseErrs {
		rep.Errors = append(rep.Errors, perr.Error())
	}
	rep.Parsed = len(cards)

	found := make(map[string]bool, len(cards))
	var fresh []review.NewItem
	for _, card := range cards {
		if found[card.Hash] {
			continue
		}
		found[card.Hash] = true
		if _, err := s.Engine.GetItem(card.Hash); err == nil {
			continue
		}
		fresh = append(fresh, newItem(card, source))
	}

	if len(fresh) > 0 {
		res := s.Engine.ImportItems(fresh)
		rep.Added = res.Imported
		for _, f := range res.Failures {
			rep.Errors = append(rep.Errors, fmt.Sprintf("import %s: %s", f.ID, f.Reason))
		}
	}

	for _, it := range s.Engine.Items(review.Filter{Origin: source}) {
		if found[it.ID] {
			continue
		}
		if err := s.Engine.DeleteItem(it.ID); err != nil {
			log.Warn("failed to delete orphaned item", "id", it.ID, "error", err)
			continue
		}
		rep.Orphaned++
	}

	log.Info("reconciliation complete",
		"path", rep.Path,
		"parsed_cards", rep.Parsed,
		"added", rep.Added,
		"orphaned_deleted", rep.Orphaned,
		"errors", len(rep.Errors),
	)
	return rep, nil
}

func (s *Syncer) log() *logger.Logger {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}

// collect parses every .md file under root. Unparseable files are returned
// as errors alongside the cards that did parse.
func collect(root string) ([]domain.Card, []error, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil, fmt.Errorf("deck source %s: %w", root, err)
	}

	var cards []domain.Card
	var parseErrs []error
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileCards, perr := parser.ParseFile(path)
		if perr != nil {
			parseErrs = append(parseErrs, perr)
			return nil
		}
		for _, card := range fileCards {
			card.Hash = knol.Hash(card)
			cards = append(cards, card)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return cards, parseErrs, nil
}

func newItem(card domain.Card, origin string) review.NewItem {
	return review.NewItem{
		ID:         card.Hash,
		ContentRef: card.Question,
		Subject:    card.Subject,
		Chapter:    card.Chapter,
		Type:       domain.TypeFlashcard,
		Difficulty: card.Difficulty,
		Tags:       card.Tags,
		Origin:     origin,
	}
}
