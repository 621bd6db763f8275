package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// InsertDuplicateGroup writes a duplicate group if its deterministic
// identity is absent.
func (s *Store) InsertDuplicateGroup(ctx context.Context, group domain.DuplicateGroup) (InsertOutcome, error) {
	outcome, err := s.insertIfAbsent(ctx, `
INSERT OR IGNORE INTO duplicate_groups (id, created_at, signature)
VALUES (?, ?, ?)`,
		group.ID, fmtTime(group.CreatedAt), group.Signature,
	)
	if err != nil {
		return Failed, fmt.Errorf("insert duplicate group %s: %w", group.ID, err)
	}
	return outcome, nil
}

// CountGroupMembers returns how many cards point at the given group.
func (s *Store) CountGroupMembers(ctx context.Context, groupID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cards WHERE duplicate_group_id = ?", groupID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count group members: %w", err)
	}
	return n, nil
}
