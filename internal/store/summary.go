package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

const (
	topActionLimit       = 5
	leadingCategoryLimit = 3
)

// CategoryCount pairs a category with its card count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary is the dashboard headline: the most urgent actionable cards, the
// busiest categories, and the action/info split.
type Summary struct {
	TopUrgentActions  []domain.Card
	LeadingCategories []CategoryCount
	ActionCount       int
	InfoCount         int
}

// CardSummary computes the headline over cards published in the optional
// time range: the top five action cards by urgency rank then recency, the
// three largest categories, and per-mode totals.
func (s *Store) CardSummary(ctx context.Context, from, to *time.Time) (Summary, error) {
	var summary Summary

	actions, err := s.ListCards(ctx, CardFilter{
		Mode: domain.ModeAction, From: from, To: to, Limit: topActionLimit,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summary top actions: %w", err)
	}
	summary.TopUrgentActions = actions

	q := boundPublished(sq.Select("category", "COUNT(*) AS n").From("cards"), from, to).
		GroupBy("category").OrderBy("n DESC").Limit(leadingCategoryLimit)
	query, args, err := q.ToSql()
	if err != nil {
		return Summary{}, fmt.Errorf("build category query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Summary{}, fmt.Errorf("summary categories: %w", err)
	}
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			rows.Close()
			return Summary{}, fmt.Errorf("scan category count: %w", err)
		}
		summary.LeadingCategories = append(summary.LeadingCategories, cc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Summary{}, err
	}
	rows.Close()

	q = boundPublished(sq.Select("mode", "COUNT(*)").From("cards"), from, to).GroupBy("mode")
	query, args, err = q.ToSql()
	if err != nil {
		return Summary{}, fmt.Errorf("build totals query: %w", err)
	}
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Summary{}, fmt.Errorf("summary totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mode string
		var count int
		if err := rows.Scan(&mode, &count); err != nil {
			return Summary{}, fmt.Errorf("scan mode count: %w", err)
		}
		switch domain.Mode(mode) {
		case domain.ModeAction:
			summary.ActionCount = count
		case domain.ModeInfo:
			summary.InfoCount = count
		}
	}
	return summary, rows.Err()
}

func boundPublished(q sq.SelectBuilder, from, to *time.Time) sq.SelectBuilder {
	if from != nil {
		q = q.Where(sq.GtOrEq{"published_at": fmtTime(*from)})
	}
	if to != nil {
		q = q.Where(sq.LtOrEq{"published_at": fmtTime(*to)})
	}
	return q
}
