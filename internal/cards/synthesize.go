// Package cards derives user-facing triage cards from cleaned bulletins.
package cards

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
	"github.com/couchcryptid/hurricane-triage/internal/rules"
)

// TitlePlaceholder is used when the cleaned text has no tokens at all.
const TitlePlaceholder = "Update"

// titleWords is how many leading tokens of the text form the title.
const titleWords = 10

// summaryMaxChars bounds the summary when no sentence terminator is found.
const summaryMaxChars = 240

// summarySeparators are tried in this fixed order. The first separator that
// occurs anywhere in the text decides the split, even if a later-listed
// separator occurs earlier in the string. This mirrors a split-on-separator
// scan, not an earliest-index merge, and is relied on by downstream
// deduplication signatures.
var summarySeparators = []string{". ", "! ", "? "}

// Title joins the first ten whitespace-delimited tokens of the text.
func Title(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return TitlePlaceholder
	}
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.Join(words, " ")
}

// Summary returns the text up to and including the first sentence terminator,
// or the first 240 characters trimmed when none is present.
func Summary(text string) string {
	for _, sep := range summarySeparators {
		if i := strings.Index(text, sep); i >= 0 {
			return strings.TrimSpace(text[:i]) + strings.TrimSpace(sep)
		}
	}
	r := []rune(text)
	if len(r) > summaryMaxChars {
		r = r[:summaryMaxChars]
	}
	return strings.TrimSpace(string(r))
}

// CardID produces the deterministic card identity from the clean update and
// its classification. Reprocessing the same clean update with unchanged rules
// reproduces the same ID, making re-runs naturally idempotent; a rule change
// that alters category or mode yields a distinct card.
func CardID(cleanUpdateID string, category domain.Category, mode domain.Mode) string {
	seed := fmt.Sprintf("%s-%s-%s", cleanUpdateID, category, mode)
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:])
}

// Synthesizer combines classification output with bulletin metadata into
// Card candidates.
type Synthesizer struct {
	table    *rules.Table
	fallback domain.Category
}

// NewSynthesizer creates a Synthesizer. fallback is the category assigned
// when no category pattern matches the text.
func NewSynthesizer(table *rules.Table, fallback domain.Category) *Synthesizer {
	return &Synthesizer{table: table, fallback: fallback}
}

// Synthesize classifies the cleaned text and assembles a Card, denormalizing
// the originating bulletin's source, URL, and publication time.
func (s *Synthesizer) Synthesize(clean domain.CleanUpdate, source, sourceURL string, publishedAt time.Time) domain.Card {
	c := s.table.Classify(clean.CleanedText, source)

	category := c.Category
	if category == "" {
		category = s.fallback
	}

	return domain.Card{
		ID:            CardID(clean.ID, category, c.Mode),
		CleanUpdateID: clean.ID,
		Mode:          c.Mode,
		Category:      category,
		ActionType:    c.ActionType,
		Urgency:       c.Urgency,
		County:        c.County,
		City:          c.City,
		Title:         Title(clean.CleanedText),
		Summary:       Summary(clean.CleanedText),
		Source:        source,
		SourceURL:     sourceURL,
		PublishedAt:   publishedAt,
	}
}
