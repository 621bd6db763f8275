package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Stats summarizes the card set for the dashboard, optionally restricted to
// a publication-time range. Cards without a county are bucketed under
// "unknown".
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByCounty   map[string]int `json:"by_county"`
	ByUrgency  map[string]int `json:"by_urgency"`
	ByMode     map[string]int `json:"by_mode"`
}

// CardStats computes card counts grouped by category, county, urgency,
// and mode.
func (s *Store) CardStats(ctx context.Context, from, to *time.Time) (Stats, error) {
	stats := Stats{
		ByCategory: map[string]int{},
		ByCounty:   map[string]int{},
		ByUrgency:  map[string]int{},
		ByMode:     map[string]int{},
	}

	buckets := []struct {
		expr string
		dest map[string]int
	}{
		{"category", stats.ByCategory},
		{"COALESCE(county, 'unknown')", stats.ByCounty},
		{"urgency", stats.ByUrgency},
		{"mode", stats.ByMode},
	}

	for _, b := range buckets {
		q := boundPublished(sq.Select(b.expr+" AS bucket", "COUNT(*)").From("cards"), from, to).
			GroupBy("bucket")

		query, args, err := q.ToSql()
		if err != nil {
			return Stats{}, fmt.Errorf("build stats query: %w", err)
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return Stats{}, fmt.Errorf("card stats: %w", err)
		}
		for rows.Next() {
			var bucket string
			var count int
			if err := rows.Scan(&bucket, &count); err != nil {
				rows.Close()
				return Stats{}, fmt.Errorf("scan stats row: %w", err)
			}
			b.dest[bucket] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return Stats{}, err
		}
		rows.Close()
	}

	for _, count := range stats.ByMode {
		stats.Total += count
	}
	return stats, nil
}
