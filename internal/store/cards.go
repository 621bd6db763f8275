package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// urgencyRankSQL orders the closed urgency set high > medium > low.
const urgencyRankSQL = "CASE urgency WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END"

var cardColumns = []string{
	"id", "clean_update_id", "mode", "category", "action_type", "urgency",
	"county", "city", "title", "summary", "source", "source_url",
	"published_at", "duplicate_group_id",
}

// CardFilter narrows a card listing. Mode is required; nil fields are
// unconstrained. Limit is clamped to [1, MaxCardLimit].
type CardFilter struct {
	Mode     domain.Mode
	County   *domain.County
	Category *domain.Category
	Urgency  *domain.Urgency
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// MaxCardLimit caps a single card page.
const MaxCardLimit = 30

// InsertCard writes a card if its deterministic identity is absent.
func (s *Store) InsertCard(ctx context.Context, card domain.Card) (InsertOutcome, error) {
	var county *string
	if card.County != nil {
		c := string(*card.County)
		county = &c
	}
	outcome, err := s.insertIfAbsent(ctx, `
INSERT OR IGNORE INTO cards
    (id, clean_update_id, mode, category, action_type, urgency, county, city,
     title, summary, source, source_url, published_at, duplicate_group_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		card.ID, card.CleanUpdateID, string(card.Mode), string(card.Category),
		card.ActionType, string(card.Urgency), county, card.City,
		card.Title, card.Summary, card.Source, card.SourceURL, fmtTime(card.PublishedAt),
	)
	if err != nil {
		return Failed, fmt.Errorf("insert card %s: %w", card.ID, err)
	}
	return outcome, nil
}

// ListUngroupedCards returns cards with no duplicate group, in ascending
// published_at order with ties broken by insertion order.
func (s *Store) ListUngroupedCards(ctx context.Context) ([]domain.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE duplicate_group_id IS NULL
ORDER BY published_at ASC, rowid ASC`, columnList())
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ungrouped cards: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}

// AssignDuplicateGroup sets a card's group exactly once: a card that already
// belongs to a group is left untouched.
func (s *Store) AssignDuplicateGroup(ctx context.Context, cardID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE cards SET duplicate_group_id = ? WHERE id = ? AND duplicate_group_id IS NULL",
		groupID, cardID,
	)
	if err != nil {
		return fmt.Errorf("assign group to card %s: %w", cardID, err)
	}
	return nil
}

// ListCards returns cards matching the filter. Action-mode listings are
// ordered by urgency rank descending then most recent first; info-mode
// listings by most recent first only.
func (s *Store) ListCards(ctx context.Context, f CardFilter) ([]domain.Card, error) {
	q := sq.Select(cardColumns...).From("cards").Where(sq.Eq{"mode": string(f.Mode)})

	if f.County != nil {
		q = q.Where(sq.Eq{"county": string(*f.County)})
	}
	if f.Category != nil {
		q = q.Where(sq.Eq{"category": string(*f.Category)})
	}
	if f.Urgency != nil {
		q = q.Where(sq.Eq{"urgency": string(*f.Urgency)})
	}
	if f.From != nil {
		q = q.Where(sq.GtOrEq{"published_at": fmtTime(*f.From)})
	}
	if f.To != nil {
		q = q.Where(sq.LtOrEq{"published_at": fmtTime(*f.To)})
	}

	if f.Mode == domain.ModeAction {
		q = q.OrderBy(urgencyRankSQL+" DESC", "published_at DESC")
	} else {
		q = q.OrderBy("published_at DESC")
	}

	limit := f.Limit
	if limit <= 0 || limit > MaxCardLimit {
		limit = MaxCardLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q = q.Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build card query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}

func columnList() string {
	list := ""
	for i, c := range cardColumns {
		if i > 0 {
			list += ", "
		}
		list += c
	}
	return list
}

func scanCards(rows *sql.Rows) ([]domain.Card, error) {
	var result []domain.Card
	for rows.Next() {
		var card domain.Card
		var mode, category, urgency, publishedAt string
		var county *string
		if err := rows.Scan(&card.ID, &card.CleanUpdateID, &mode, &category,
			&card.ActionType, &urgency, &county, &card.City,
			&card.Title, &card.Summary, &card.Source, &card.SourceURL,
			&publishedAt, &card.DuplicateGroupID); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		card.Mode = domain.Mode(mode)
		card.Category = domain.Category(category)
		card.Urgency = domain.Urgency(urgency)
		if county != nil {
			c := domain.County(*county)
			card.County = &c
		}
		card.PublishedAt = parseTime(publishedAt)
		result = append(result, card)
	}
	return result, rows.Err()
}
