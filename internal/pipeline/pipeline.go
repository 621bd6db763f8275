// Package pipeline orchestrates the triage stages: ingest raw bulletins,
// clean them to plain text, extract classified cards, and cluster duplicate
// cards into groups. Every stage is a single scan-then-process pass over the
// records the previous stage left pending, so a full run is idempotent and
// can be re-executed at any time.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hurricane-triage/internal/cards"
	"github.com/couchcryptid/hurricane-triage/internal/clean"
	"github.com/couchcryptid/hurricane-triage/internal/dedup"
	"github.com/couchcryptid/hurricane-triage/internal/domain"
	"github.com/couchcryptid/hurricane-triage/internal/ingest"
	"github.com/couchcryptid/hurricane-triage/internal/observability"
	"github.com/couchcryptid/hurricane-triage/internal/store"
)

// CardPublisher pushes newly extracted cards to a downstream consumer.
type CardPublisher interface {
	PublishCards(ctx context.Context, cardList []domain.Card) error
}

// Pipeline wires the stages around the shared store.
type Pipeline struct {
	store       *store.Store
	sources     []ingest.Source
	synthesizer *cards.Synthesizer
	window      time.Duration
	publisher   CardPublisher // nil when publishing is disabled
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(s *store.Store, sources []ingest.Source, synthesizer *cards.Synthesizer,
	window time.Duration, publisher CardPublisher,
	logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:       s,
		sources:     sources,
		synthesizer: synthesizer,
		window:      window,
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once at least one full run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes all four stages in order. Stage errors abort the run; a
// per-record failure inside a stage only skips that record.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"ingest", p.Ingest},
		{"clean", p.Clean},
		{"extract", p.Extract},
		{"dedup", p.Dedup},
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		start := time.Now()
		if err := stage.fn(ctx); err != nil {
			return err
		}
		p.metrics.StageDuration.WithLabelValues(stage.name).Observe(time.Since(start).Seconds())
	}

	p.ready.Store(true)
	return nil
}

// Ingest fetches bulletins from every source and stores the new ones. A
// failing source is logged and skipped so one outage does not starve the
// rest of the run.
func (p *Pipeline) Ingest(ctx context.Context) error {
	for _, source := range p.sources {
		bulletins, err := source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("source fetch failed", "source", source.Name(), "error", err)
			p.metrics.RecordFailures.WithLabelValues("ingest").Inc()
			continue
		}

		p.logger.Info("Fetched bulletins", "source", source.Name(), "count", len(bulletins))
		p.metrics.BulletinsIngested.WithLabelValues(source.Name()).Add(float64(len(bulletins)))

		inserted, skipped := 0, 0
		for _, b := range bulletins {
			raw := rawUpdateFrom(source.Name(), b)
			outcome, err := p.store.InsertRawUpdate(ctx, raw)
			if err != nil {
				p.logger.Warn("insert raw update failed", "source", source.Name(), "url", b.URL, "error", err)
				p.metrics.RecordFailures.WithLabelValues("ingest").Inc()
				continue
			}
			switch outcome {
			case store.Inserted:
				inserted++
				p.metrics.RecordsInserted.WithLabelValues("ingest").Inc()
			case store.AlreadyExists:
				skipped++
				p.metrics.DuplicatesSkipped.WithLabelValues("ingest").Inc()
			}
		}
		p.logger.Info("Ingest pass complete", "source", source.Name(), "inserted", inserted, "skipped", skipped)
	}
	return nil
}

// Clean normalizes every raw update that has no clean record yet.
func (p *Pipeline) Clean(ctx context.Context) error {
	pending, err := p.store.ListRawWithoutClean(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Found raw updates to clean", "count", len(pending))

	for _, raw := range pending {
		cleaned, err := clean.FromRaw(raw)
		if err != nil {
			p.logger.Warn("clean failed, skipping record", "raw_update", raw.ID, "error", err)
			p.metrics.RecordFailures.WithLabelValues("clean").Inc()
			continue
		}

		outcome, err := p.store.InsertCleanUpdate(ctx, cleaned)
		if err != nil {
			p.logger.Warn("insert clean update failed", "raw_update", raw.ID, "error", err)
			p.metrics.RecordFailures.WithLabelValues("clean").Inc()
			continue
		}
		switch outcome {
		case store.Inserted:
			p.metrics.RecordsInserted.WithLabelValues("clean").Inc()
		case store.AlreadyExists:
			p.metrics.DuplicatesSkipped.WithLabelValues("clean").Inc()
		}
	}
	return nil
}

// Extract synthesizes a card for every clean update that has none, and
// publishes the newly created cards when a publisher is configured.
func (p *Pipeline) Extract(ctx context.Context) error {
	pending, err := p.store.ListCleanWithoutCard(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Found clean updates to extract", "count", len(pending))

	var created []domain.Card
	for _, rec := range pending {
		card := p.synthesizer.Synthesize(rec.CleanUpdate, rec.Source, rec.SourceURL, rec.PublishedAt)

		outcome, err := p.store.InsertCard(ctx, card)
		if err != nil {
			p.logger.Warn("insert card failed", "clean_update", rec.ID, "error", err)
			p.metrics.RecordFailures.WithLabelValues("extract").Inc()
			continue
		}
		switch outcome {
		case store.Inserted:
			created = append(created, card)
			p.metrics.RecordsInserted.WithLabelValues("extract").Inc()
		case store.AlreadyExists:
			p.metrics.DuplicatesSkipped.WithLabelValues("extract").Inc()
		}
	}

	if p.publisher != nil && len(created) > 0 {
		if err := p.publisher.PublishCards(ctx, created); err != nil {
			// Publishing is best-effort; the cards are already durable.
			p.logger.Error("publish cards failed", "count", len(created), "error", err)
		} else {
			p.metrics.CardsPublished.Add(float64(len(created)))
		}
	}
	return nil
}

// Dedup clusters the cards that have no duplicate group yet. Cards already
// assigned to a group are never revisited, so each pass only extends the
// grouping to new arrivals.
func (p *Pipeline) Dedup(ctx context.Context) error {
	ungrouped, err := p.store.ListUngroupedCards(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Found ungrouped cards", "count", len(ungrouped))

	groups := dedup.Cluster(ungrouped, p.window)
	for _, group := range groups {
		outcome, err := p.store.InsertDuplicateGroup(ctx, domain.DuplicateGroup{
			ID:        group.ID,
			CreatedAt: domain.Now(),
			Signature: group.Signature,
		})
		if err != nil {
			p.logger.Warn("insert duplicate group failed", "group", group.ID, "error", err)
			p.metrics.RecordFailures.WithLabelValues("dedup").Inc()
			continue
		}
		if outcome == store.Inserted {
			p.metrics.GroupsCreated.Inc()
		}

		for _, cardID := range group.Members {
			if err := p.store.AssignDuplicateGroup(ctx, cardID, group.ID); err != nil {
				p.logger.Warn("assign duplicate group failed", "card", cardID, "group", group.ID, "error", err)
				p.metrics.RecordFailures.WithLabelValues("dedup").Inc()
			}
		}
	}
	return nil
}

// rawUpdateFrom derives the stored form of a fetched bulletin. The raw ID
// hashes the source label and the bulletin's most stable identity so
// refetching the same item always maps to the same record.
func rawUpdateFrom(sourceName string, b ingest.Bulletin) domain.RawUpdate {
	identity := b.ItemID
	if identity == "" {
		identity = b.URL
	}
	idHash := sha256.Sum256([]byte(sourceName + "|" + identity))

	content := b.Text
	if b.HTML != nil {
		content = *b.HTML
	}
	contentHash := sha256.Sum256([]byte(content))

	return domain.RawUpdate{
		ID:           hex.EncodeToString(idHash[:]),
		Source:       sourceName,
		SourceURL:    b.URL,
		SourceItemID: b.ItemID,
		PublishedAt:  b.PublishedAt.UTC(),
		FetchedAt:    domain.Now(),
		RawText:      b.Text,
		RawHTML:      b.HTML,
		ContentHash:  hex.EncodeToString(contentHash[:]),
	}
}
