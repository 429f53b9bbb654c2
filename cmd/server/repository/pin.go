package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/apperror"
	"github.com/pindrop/pindrop/common/db"
)

// querier is satisfied by both the pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PinRepository handles database operations for pins and their payloads
type PinRepository struct {
	db *db.DB
}

// NewPinRepository creates a new pin repository
func NewPinRepository(db *db.DB) *PinRepository {
	return &PinRepository{db: db}
}

// CreateSkeleton inserts the bare pins row for a webpage pin before the
// render and enrichment stages run. Timestamps are read back from the row.
func (r *PinRepository) CreateSkeleton(ctx context.Context, pin *models.Pin) error {
	query := `
		INSERT INTO pins (id, user_id, type, classification, title, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		pin.ID, pin.UserID, pin.Type, pin.Classification, pin.Title, pin.Thumbnail,
	).Scan(&pin.CreatedAt, &pin.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pin skeleton: %w", err)
	}

	return nil
}

// CompleteWebpage promotes a skeleton into a finished webpage pin: the pins
// row gains its real title, thumbnail and classification, the webpage payload
// is inserted and the tag set is replaced, all in one transaction.
func (r *PinRepository) CompleteWebpage(ctx context.Context, pin *models.Pin, wp *models.WebpagePayload, tagIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE pins
			SET title = $1, thumbnail = $2, classification = $3, updated_at = now()
			WHERE id = $4
		`, pin.Title, pin.Thumbnail, pin.Classification, pin.ID)
		if err != nil {
			return fmt.Errorf("failed to update pin: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO webpages (
				pin_id, url, content, text_content, clean_content, length,
				summary, byline, site_name, lang, screenshot, classification, comments
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, pin.ID, wp.URL, wp.Content, wp.TextContent, wp.CleanContent, wp.Length,
			wp.Summary, wp.Byline, wp.SiteName, wp.Lang, wp.Screenshot, wp.Classification, wp.Comments)
		if err != nil {
			return fmt.Errorf("failed to insert webpage payload: %w", err)
		}

		return replacePinTags(ctx, tx, pin.ID, tagIDs)
	})
}

// CreateImage inserts an image pin, its payload and tags in one transaction
func (r *PinRepository) CreateImage(ctx context.Context, pin *models.Pin, img *models.ImagePayload, tagIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := insertPin(ctx, tx, pin); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO images (pin_id, file_path, width, height, format, summary, comments)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, pin.ID, img.FilePath, img.Width, img.Height, img.Format, img.Summary, img.Comments)
		if err != nil {
			return fmt.Errorf("failed to insert image payload: %w", err)
		}

		return replacePinTags(ctx, tx, pin.ID, tagIDs)
	})
}

// CreateNote inserts a note pin, its payload and tags in one transaction
func (r *PinRepository) CreateNote(ctx context.Context, pin *models.Pin, note *models.NotePayload, tagIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := insertPin(ctx, tx, pin); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO notes (pin_id, content, summary, comments)
			VALUES ($1, $2, $3, $4)
		`, pin.ID, note.Content, note.Summary, note.Comments)
		if err != nil {
			return fmt.Errorf("failed to insert note payload: %w", err)
		}

		return replacePinTags(ctx, tx, pin.ID, tagIDs)
	})
}

func insertPin(ctx context.Context, tx querier, pin *models.Pin) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO pins (id, user_id, type, classification, title, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, pin.ID, pin.UserID, pin.Type, pin.Classification, pin.Title, pin.Thumbnail,
	).Scan(&pin.CreatedAt, &pin.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pin: %w", err)
	}
	return nil
}

// GetByID retrieves a pin with its payload and tag names, scoped to the
// owner. A pin owned by another user is indistinguishable from a missing one.
func (r *PinRepository) GetByID(ctx context.Context, userID string, pinID uuid.UUID) (*models.Pin, error) {
	pin := &models.Pin{}
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, type, classification, title, thumbnail, created_at, updated_at
		FROM pins
		WHERE id = $1 AND user_id = $2
	`, pinID, userID).Scan(
		&pin.ID, &pin.UserID, &pin.Type, &pin.Classification,
		&pin.Title, &pin.Thumbnail, &pin.CreatedAt, &pin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("pin", pinID.String())
		}
		return nil, fmt.Errorf("failed to get pin: %w", err)
	}

	if err := r.loadPayload(ctx, pin); err != nil {
		return nil, err
	}

	if err := r.loadTags(ctx, pin); err != nil {
		return nil, err
	}

	return pin, nil
}

// List retrieves all pins for a user, newest first, with payloads and tags
func (r *PinRepository) List(ctx context.Context, userID string) ([]*models.Pin, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.user_id, p.type, p.classification, p.title, p.thumbnail,
		       p.created_at, p.updated_at,
		       COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		FROM pins p
		LEFT JOIN pin_tags pt ON pt.pin_id = p.id
		LEFT JOIN tags t ON t.id = pt.tag_id
		WHERE p.user_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	var pins []*models.Pin
	for rows.Next() {
		pin := &models.Pin{}
		err := rows.Scan(
			&pin.ID, &pin.UserID, &pin.Type, &pin.Classification,
			&pin.Title, &pin.Thumbnail, &pin.CreatedAt, &pin.UpdatedAt, &pin.Tags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins = append(pins, pin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pins: %w", err)
	}

	for _, pin := range pins {
		if err := r.loadPayload(ctx, pin); err != nil {
			return nil, err
		}
	}

	return pins, nil
}

func (r *PinRepository) loadPayload(ctx context.Context, pin *models.Pin) error {
	switch pin.Type {
	case models.PinTypeWebpage:
		wp := &models.WebpagePayload{}
		err := r.db.QueryRow(ctx, `
			SELECT url, content, text_content, clean_content, length, summary,
			       byline, site_name, lang, screenshot, classification, comments
			FROM webpages WHERE pin_id = $1
		`, pin.ID).Scan(
			&wp.URL, &wp.Content, &wp.TextContent, &wp.CleanContent, &wp.Length,
			&wp.Summary, &wp.Byline, &wp.SiteName, &wp.Lang, &wp.Screenshot,
			&wp.Classification, &wp.Comments,
		)
		if err != nil {
			// Skeleton pins have no payload row until the pipeline completes
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to load webpage payload: %w", err)
		}
		pin.Payload = wp

	case models.PinTypeImage:
		img := &models.ImagePayload{}
		err := r.db.QueryRow(ctx, `
			SELECT file_path, width, height, format, summary, comments
			FROM images WHERE pin_id = $1
		`, pin.ID).Scan(&img.FilePath, &img.Width, &img.Height, &img.Format, &img.Summary, &img.Comments)
		if err != nil {
			return fmt.Errorf("failed to load image payload: %w", err)
		}
		pin.Payload = img

	case models.PinTypeNote:
		note := &models.NotePayload{}
		err := r.db.QueryRow(ctx, `
			SELECT content, summary, comments
			FROM notes WHERE pin_id = $1
		`, pin.ID).Scan(&note.Content, &note.Summary, &note.Comments)
		if err != nil {
			return fmt.Errorf("failed to load note payload: %w", err)
		}
		pin.Payload = note

	default:
		return fmt.Errorf("unknown pin type %q", pin.Type)
	}

	return nil
}

func (r *PinRepository) loadTags(ctx context.Context, pin *models.Pin) error {
	rows, err := r.db.Query(ctx, `
		SELECT t.name
		FROM tags t
		JOIN pin_tags pt ON pt.tag_id = t.id
		WHERE pt.pin_id = $1
		ORDER BY t.name ASC
	`, pin.ID)
	if err != nil {
		return fmt.Errorf("failed to load pin tags: %w", err)
	}
	defer rows.Close()

	pin.Tags = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan tag name: %w", err)
		}
		pin.Tags = append(pin.Tags, name)
	}
	return rows.Err()
}

// GetType returns the pin type for an owner-scoped pin, doubling as an
// existence check for operations that only touch associations.
func (r *PinRepository) GetType(ctx context.Context, userID string, pinID uuid.UUID) (models.PinType, error) {
	var pinType models.PinType
	err := r.db.QueryRow(ctx, `
		SELECT type FROM pins WHERE id = $1 AND user_id = $2
	`, pinID, userID).Scan(&pinType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NotFound("pin", pinID.String())
		}
		return "", fmt.Errorf("failed to get pin type: %w", err)
	}
	return pinType, nil
}

// Delete removes a pin. Payload rows and tag associations go with it via
// cascade; tag rows themselves are kept.
func (r *PinRepository) Delete(ctx context.Context, userID string, pinID uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		DELETE FROM pins WHERE id = $1 AND user_id = $2
	`, pinID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete pin: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperror.NotFound("pin", pinID.String())
	}
	return nil
}

// UpdateComments writes the comments column on the payload table matching
// the pin's type and touches the pin's updated_at.
func (r *PinRepository) UpdateComments(ctx context.Context, userID string, pinID uuid.UUID, comments string) error {
	pinType, err := r.GetType(ctx, userID, pinID)
	if err != nil {
		return err
	}

	var table string
	switch pinType {
	case models.PinTypeWebpage:
		table = "webpages"
	case models.PinTypeImage:
		table = "images"
	case models.PinTypeNote:
		table = "notes"
	default:
		return fmt.Errorf("unknown pin type %q", pinType)
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET comments = $1 WHERE pin_id = $2`, table), comments, pinID)
		if err != nil {
			return fmt.Errorf("failed to update comments: %w", err)
		}
		// A webpage skeleton has no payload row yet; the comment has nowhere
		// to land
		if ct.RowsAffected() == 0 {
			return apperror.NotFound("pin", pinID.String())
		}
		if _, err := tx.Exec(ctx, `UPDATE pins SET updated_at = now() WHERE id = $1`, pinID); err != nil {
			return fmt.Errorf("failed to touch pin: %w", err)
		}
		return nil
	})
}

// SaveNote rewrites a note pin's title, payload and tag set in one
// transaction. Callers resolve which fields take precedence before this runs.
func (r *PinRepository) SaveNote(ctx context.Context, userID string, pinID uuid.UUID, title string, note *models.NotePayload, tagIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE pins SET title = $1, updated_at = now()
			WHERE id = $2 AND user_id = $3 AND type = $4
		`, title, pinID, userID, models.PinTypeNote)
		if err != nil {
			return fmt.Errorf("failed to update note pin: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperror.NotFound("pin", pinID.String())
		}

		_, err = tx.Exec(ctx, `
			UPDATE notes SET content = $1, summary = $2 WHERE pin_id = $3
		`, note.Content, note.Summary, pinID)
		if err != nil {
			return fmt.Errorf("failed to update note payload: %w", err)
		}

		return replacePinTags(ctx, tx, pinID, tagIDs)
	})
}
