package repository

import (
	"context"
	"fmt"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/db"
)

// UserRepository handles database operations for synced user rows
type UserRepository struct {
	db *db.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *db.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure upserts a user row from session data. Called lazily on first
// authenticated request; the session provider stays authoritative, so
// existing rows are refreshed rather than preserved.
func (r *UserRepository) Ensure(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, email, verified, firstname, lastname, is_admin, third_party)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			email       = EXCLUDED.email,
			verified    = EXCLUDED.verified,
			firstname   = EXCLUDED.firstname,
			lastname    = EXCLUDED.lastname,
			is_admin    = EXCLUDED.is_admin,
			third_party = EXCLUDED.third_party
	`

	_, err := r.db.Exec(ctx, query,
		user.UserID, user.Email, user.Verified, user.Firstname,
		user.Lastname, user.IsAdmin, user.ThirdParty,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", user.UserID, err)
	}

	return nil
}
