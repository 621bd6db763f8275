// Package clean normalizes raw bulletins into plain text suitable for
// classification. HTML sources are stripped to visible text, whitespace is
// collapsed, and the result is content-hashed so reprocessing the same
// bulletin is detectable.
package clean

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// Normalize collapses all runs of whitespace to single spaces and trims the
// ends. Applying it twice yields the same result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// StripHTML extracts the visible text of an HTML fragment. Script and style
// contents are dropped, and element boundaries become spaces so adjacent
// blocks do not run together.
func StripHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		collectText(node, &b)
	}
	return Normalize(b.String()), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// FromRaw derives the clean update for a raw bulletin. HTML content is
// preferred over the plain-text field when present. The clean update shares
// the raw update's ID so the one-to-one relation holds by construction.
func FromRaw(raw domain.RawUpdate) (domain.CleanUpdate, error) {
	var cleaned string
	if raw.RawHTML != nil && strings.TrimSpace(*raw.RawHTML) != "" {
		text, err := StripHTML(*raw.RawHTML)
		if err != nil {
			return domain.CleanUpdate{}, fmt.Errorf("clean %s: %w", raw.ID, err)
		}
		cleaned = text
	} else {
		cleaned = Normalize(raw.RawText)
	}

	hash := sha256.Sum256([]byte(cleaned))
	return domain.CleanUpdate{
		ID:          raw.ID,
		RawUpdateID: raw.ID,
		CleanedText: cleaned,
		CleanedHash: hex.EncodeToString(hash[:]),
		CreatedAt:   domain.Now(),
	}, nil
}
