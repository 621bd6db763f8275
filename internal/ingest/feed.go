package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedSource ingests an RSS or Atom feed, typically a local news outlet or a
// municipal alert feed, restricted to the configured ingestion window.
type FeedSource struct {
	name   string
	url    string
	start  time.Time
	end    time.Time
	parser *gofeed.Parser
	logger *slog.Logger
}

// NewFeedSource creates a feed source. Name becomes the source label on
// every bulletin the feed yields.
func NewFeedSource(name, feedURL string, start, end time.Time, timeout time.Duration, logger *slog.Logger) *FeedSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &FeedSource{
		name:   name,
		url:    feedURL,
		start:  start,
		end:    end,
		parser: parser,
		logger: logger,
	}
}

// Name implements Source.
func (s *FeedSource) Name() string { return s.name }

// Fetch implements Source. Items without a GUID fall back to their link for
// identity; items without any timestamp or outside the window are skipped.
func (s *FeedSource) Fetch(ctx context.Context) ([]Bulletin, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.url, err)
	}

	var bulletins []Bulletin
	for _, item := range feed.Items {
		itemID := item.GUID
		if itemID == "" {
			itemID = item.Link
		}
		if itemID == "" {
			s.logger.Warn("Skip feed item without identity", "feed", s.url, "title", item.Title)
			continue
		}

		publishedAt := item.PublishedParsed
		if publishedAt == nil {
			publishedAt = item.UpdatedParsed
		}
		if publishedAt == nil {
			s.logger.Warn("Skip feed item without timestamp", "feed", s.url, "item", itemID)
			continue
		}
		ts := publishedAt.UTC()
		if ts.Before(s.start) || ts.After(s.end) {
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		// Feed bodies are HTML more often than not; let the cleaner strip
		// them rather than guessing here. The title is prepended so it
		// survives into the cleaned text.
		html := "<p>" + item.Title + "</p>" + content
		bulletins = append(bulletins, Bulletin{
			ItemID:      itemID,
			URL:         item.Link,
			PublishedAt: ts,
			Text:        item.Title,
			HTML:        &html,
		})
	}

	s.logger.Debug("Fetched feed", "feed", s.url, "items", len(bulletins))
	return bulletins, nil
}
