// Package knol derives stable identifiers for deck cards.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
)

// Normalize returns the canonical text of a card: question, answer and
// context, each lowercased with line endings unified and runs of spaces
// collapsed, joined by newlines. Metadata such as tags, difficulty or the
// heading a card sits under is not part of its identity.
func Normalize(card domain.Card) string {
	parts := []string{card.Question, card.Answer, card.Context}
	for i, p := range parts {
		parts[i] = normalizePart(p)
	}
	return strings.Join(parts, "\n")
}

func normalizePart(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

// Hash is the hex SHA-256 of the normalized card. Deck sync uses it as the
// review item id, so editing a card's text creates a new item.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return hex.EncodeToString(sum[:])
}
