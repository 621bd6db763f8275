package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// InsertRawUpdate writes a raw bulletin if no record with the same natural
// key exists. Uniqueness is enforced on (source, source_url) and
// (source, source_item_id) as well as the primary key.
func (s *Store) InsertRawUpdate(ctx context.Context, raw domain.RawUpdate) (InsertOutcome, error) {
	outcome, err := s.insertIfAbsent(ctx, `
INSERT OR IGNORE INTO raw_updates
    (id, source, source_url, source_item_id, published_at, fetched_at, raw_text, raw_html, content_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		raw.ID, raw.Source, raw.SourceURL, nullIfEmpty(raw.SourceItemID),
		fmtTime(raw.PublishedAt), fmtTime(raw.FetchedAt),
		raw.RawText, raw.RawHTML, raw.ContentHash,
	)
	if err != nil {
		return Failed, fmt.Errorf("insert raw update %s: %w", raw.ID, err)
	}
	return outcome, nil
}

// ListRawWithoutClean returns raw updates that have no clean record yet,
// oldest publication first.
func (s *Store) ListRawWithoutClean(ctx context.Context) ([]domain.RawUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.source, r.source_url, COALESCE(r.source_item_id, ''),
       r.published_at, r.fetched_at, r.raw_text, r.raw_html, r.content_hash
FROM raw_updates r
LEFT JOIN clean_updates c ON c.raw_update_id = r.id
WHERE c.id IS NULL
ORDER BY r.published_at ASC, r.rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list raw without clean: %w", err)
	}
	defer rows.Close()

	var result []domain.RawUpdate
	for rows.Next() {
		var raw domain.RawUpdate
		var publishedAt, fetchedAt string
		if err := rows.Scan(&raw.ID, &raw.Source, &raw.SourceURL, &raw.SourceItemID,
			&publishedAt, &fetchedAt, &raw.RawText, &raw.RawHTML, &raw.ContentHash); err != nil {
			return nil, fmt.Errorf("scan raw update: %w", err)
		}
		raw.PublishedAt = parseTime(publishedAt)
		raw.FetchedAt = parseTime(fetchedAt)
		result = append(result, raw)
	}
	return result, rows.Err()
}

// nullIfEmpty maps "" onto NULL so the (source, source_item_id) uniqueness
// constraint ignores sources without native item IDs.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
