package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/db"
)

// TagRepository handles database operations for the shared tag vocabulary
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *db.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetOrCreate inserts a tag by canonical name or returns the existing row.
// The upsert resolves concurrent inserts of the same name to the existing
// row via the unique constraint, so it is race-safe by construction.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	query := `
		INSERT INTO tags (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`

	tag := &models.Tag{}
	if err := r.db.QueryRow(ctx, query, name).Scan(&tag.ID, &tag.Name); err != nil {
		return nil, fmt.Errorf("failed to get or create tag %q: %w", name, err)
	}

	return tag, nil
}

// ListForPin retrieves the tags associated with a pin, owner-scoped
func (r *TagRepository) ListForPin(ctx context.Context, userID string, pinID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.name
		FROM tags t
		JOIN pin_tags pt ON pt.tag_id = t.id
		JOIN pins p ON p.id = pt.pin_id
		WHERE p.id = $1 AND p.user_id = $2
		ORDER BY t.name ASC
	`

	rows, err := r.db.Query(ctx, query, pinID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for pin: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// ReplaceForPin replaces the full association set for a pin. Not additive:
// calling it twice with the same input produces the same end state.
func (r *TagRepository) ReplaceForPin(ctx context.Context, pinID uuid.UUID, tagIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return replacePinTags(ctx, tx, pinID, tagIDs)
	})
}

// replacePinTags swaps the association set within an existing transaction
func replacePinTags(ctx context.Context, tx querier, pinID uuid.UUID, tagIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM pin_tags WHERE pin_id = $1`, pinID); err != nil {
		return fmt.Errorf("failed to clear pin tags: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO pin_tags (pin_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT (pin_id, tag_id) DO NOTHING
		`, pinID, tagID)
		if err != nil {
			return fmt.Errorf("failed to associate tag %d: %w", tagID, err)
		}
	}

	return nil
}
