// Package parser extracts review cards from markdown decks.
//
// A card starts with a "Q:" line and may carry "A:", "C:" (context),
// "T:" (comma separated tags) and "D:" (easy, medium or hard) lines.
// Question, answer and context continue over following lines until the
// next prefix. A "---" line or the next "Q:" ends the card. "# Subject"
// and "## Chapter" headings apply to every card after them.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
)

type field int

const (
	none field = iota
	question
	answer
	context
	tags
	difficulty
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", question},
	{"A:", answer},
	{"C:", context},
	{"T:", tags},
	{"D:", difficulty},
}

const separator = "---"

// ParseFile reads the deck at path.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cards, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cards, nil
}

type cardBuilder struct {
	cards   []domain.Card
	card    domain.Card
	current field
	block   []string
	open    bool

	subject string
	chapter string
}

func (b *cardBuilder) flushBlock() error {
	if b.current == none {
		return nil
	}
	content := strings.TrimRight(strings.Join(b.block, "\n"), "\n ")
	switch b.current {
	case question:
		b.card.Question = content
	case answer:
		b.card.Answer = content
	case context:
		b.card.Context = content
	case tags:
		b.card.Tags = splitTags(content)
	case difficulty:
		d := domain.Difficulty(strings.ToLower(strings.TrimSpace(content)))
		if d == "" {
			break
		}
		if !d.Valid() {
			return fmt.Errorf("unknown difficulty %q", content)
		}
		b.card.Difficulty = d
	}
	b.block = nil
	b.current = none
	return nil
}

func (b *cardBuilder) finish() error {
	if err := b.flushBlock(); err != nil {
		return err
	}
	if b.open && b.card.Question != "" {
		b.cards = append(b.cards, b.card)
	}
	b.card = domain.Card{}
	b.open = false
	return nil
}

// Parse reads cards from r.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	b := &cardBuilder{}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == separator {
			if err := b.finish(); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		if heading, level := parseHeading(line); level > 0 {
			if err := b.finish(); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if level == 1 {
				b.subject, b.chapter = heading, ""
			} else {
				b.chapter = heading
			}
			continue
		}

		f, rest := matchPrefix(line)
		if f == none {
			// single-line fields don't continue
			if b.current != none && b.current != tags && b.current != difficulty {
				b.block = append(b.block, line)
			}
			continue
		}

		if f == question && b.open {
			if err := b.finish(); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		if err := b.flushBlock(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if f == question {
			b.open = true
			b.card.Subject = b.subject
			b.card.Chapter = b.chapter
		}
		if !b.open {
			continue
		}
		b.current = f
		b.block = append(b.block, rest)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := b.finish(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo, err)
	}
	return b.cards, nil
}

func matchPrefix(line string) (field, string) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.field, strings.TrimPrefix(line[len(p.prefix):], " ")
		}
	}
	return none, ""
}

// parseHeading recognises "# X" (level 1) and "## X" (level 2). Deeper
// headings are ordinary text.
func parseHeading(line string) (string, int) {
	switch {
	case strings.HasPrefix(line, "## "):
		return strings.TrimSpace(line[3:]), 2
	case strings.HasPrefix(line, "# "):
		return strings.TrimSpace(line[2:]), 1
	}
	return "", 0
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
