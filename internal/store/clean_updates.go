package store

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// PendingClean is a clean update joined with the source metadata of its
// originating raw bulletin, ready for card synthesis.
type PendingClean struct {
	domain.CleanUpdate
	Source      string
	SourceURL   string
	PublishedAt time.Time
}

// InsertCleanUpdate writes a clean record if its raw update has none yet.
func (s *Store) InsertCleanUpdate(ctx context.Context, clean domain.CleanUpdate) (InsertOutcome, error) {
	outcome, err := s.insertIfAbsent(ctx, `
INSERT OR IGNORE INTO clean_updates (id, raw_update_id, cleaned_text, cleaned_hash, created_at)
VALUES (?, ?, ?, ?, ?)`,
		clean.ID, clean.RawUpdateID, clean.CleanedText, clean.CleanedHash, fmtTime(clean.CreatedAt),
	)
	if err != nil {
		return Failed, fmt.Errorf("insert clean update %s: %w", clean.ID, err)
	}
	return outcome, nil
}

// ListCleanWithoutCard returns clean updates that have no card yet, joined
// with the raw bulletin's source, URL, and publication time.
func (s *Store) ListCleanWithoutCard(ctx context.Context) ([]PendingClean, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.raw_update_id, c.cleaned_text, c.cleaned_hash, c.created_at,
       r.source, r.source_url, r.published_at
FROM clean_updates c
JOIN raw_updates r ON r.id = c.raw_update_id
LEFT JOIN cards k ON k.clean_update_id = c.id
WHERE k.id IS NULL
ORDER BY r.published_at ASC, c.rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clean without card: %w", err)
	}
	defer rows.Close()

	var result []PendingClean
	for rows.Next() {
		var p PendingClean
		var createdAt, publishedAt string
		if err := rows.Scan(&p.ID, &p.RawUpdateID, &p.CleanedText, &p.CleanedHash, &createdAt,
			&p.Source, &p.SourceURL, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan clean update: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		p.PublishedAt = parseTime(publishedAt)
		result = append(result, p)
	}
	return result, rows.Err()
}
