// Package dedup clusters structurally identical cards published close
// together in time into duplicate groups.
//
// Cards are candidates for the same cluster only when their signatures are
// byte-identical; there is no fuzzy matching. Within a signature, clustering
// uses an anchored time window: the first card fixes the window's origin and
// every later card within the window of that fixed origin joins the same
// group. The anchor never advances, so a group's span is bounded by the
// window by construction.
//
// The batch pass is additive: it only considers cards that have no group yet.
// A card arriving after a group was formed starts a fresh group even when its
// signature and timing would have fit the earlier one.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// DefaultWindow is how far a card's publication time may trail a group's
// anchor and still join that group.
const DefaultWindow = 6 * time.Hour

// Group is one duplicate cluster produced by clustering: the deterministic
// group identity, the signature it was built from, and the member card IDs
// in publication order. The first member is the anchor.
type Group struct {
	ID        string
	Signature string
	Members   []string
}

// Normalize lowercases and collapses whitespace. It is idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Signature builds the exact-match grouping key for a card:
// normalized title, category, and county, with the action type appended
// when present.
func Signature(card domain.Card) string {
	county := ""
	if card.County != nil {
		county = string(*card.County)
	}
	parts := []string{Normalize(card.Title), string(card.Category), county}
	if card.ActionType != nil {
		parts = append(parts, *card.ActionType)
	}
	return strings.Join(parts, "|")
}

// GroupID derives the deterministic group identity from the signature and
// the card that anchored the group.
func GroupID(signature, anchorCardID string) string {
	hash := sha256.Sum256([]byte(signature + "|" + anchorCardID))
	return hex.EncodeToString(hash[:])
}

// Cluster partitions cards into duplicate groups. Cards must already be in
// ascending published_at order with ties in arrival order; that ordering is
// preserved within each signature. Every card ends up in exactly one group —
// a signature seen once yields a singleton group.
func Cluster(cardList []domain.Card, window time.Duration) []Group {
	bySignature := make(map[string][]domain.Card)
	var order []string
	for _, card := range cardList {
		sig := Signature(card)
		if _, seen := bySignature[sig]; !seen {
			order = append(order, sig)
		}
		bySignature[sig] = append(bySignature[sig], card)
	}

	var groups []Group
	for _, sig := range order {
		members := bySignature[sig]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].PublishedAt.Before(members[j].PublishedAt)
		})

		var anchor time.Time
		anchored := false
		current := -1
		for _, card := range members {
			if !anchored || card.PublishedAt.Sub(anchor) > window {
				anchor = card.PublishedAt
				anchored = true
				groups = append(groups, Group{ID: GroupID(sig, card.ID), Signature: sig})
				current = len(groups) - 1
			}
			groups[current].Members = append(groups[current].Members, card.ID)
		}
	}

	return groups
}
