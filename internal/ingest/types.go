// Package ingest collects hurricane bulletins from the configured sources.
// Each source yields bulletins with stable item identities so repeated runs
// over the same window are idempotent downstream.
package ingest

import (
	"context"
	"time"
)

// Bulletin is one fetched advisory before storage. Either Text or HTML
// carries the content; HTML takes precedence during cleaning when set.
type Bulletin struct {
	ItemID      string
	URL         string
	PublishedAt time.Time
	Text        string
	HTML        *string
}

// Source fetches bulletins from one upstream provider.
type Source interface {
	// Name is the stable source label recorded on every raw update. It also
	// feeds county inference, so official county sources should carry the
	// county name.
	Name() string
	Fetch(ctx context.Context) ([]Bulletin, error)
}
