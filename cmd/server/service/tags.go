package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/logger"
)

// TagStore is the persistence surface the resolver needs
type TagStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
	ListForPin(ctx context.Context, userID string, pinID uuid.UUID) ([]*models.Tag, error)
	ReplaceForPin(ctx context.Context, pinID uuid.UUID, tagIDs []int64) error
}

// TagResolver canonicalizes tag names and resolves them to shared tag rows
type TagResolver struct {
	tags TagStore
	log  *logger.Logger
}

// NewTagResolver creates a new tag resolver
func NewTagResolver(tags TagStore, log *logger.Logger) *TagResolver {
	return &TagResolver{
		tags: tags,
		log:  log,
	}
}

// Normalize trims and lowercases tag names, dropping empties and duplicates
// while preserving first-seen order. "Go", "go" and " GO " all collapse to
// one entry.
func Normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		canonical := strings.ToLower(strings.TrimSpace(name))
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

// Resolve canonicalizes the given names and maps each to a tag row,
// creating rows that do not exist yet. Returns the tag IDs and the
// canonical names in matching order.
func (r *TagResolver) Resolve(ctx context.Context, names []string) ([]int64, []string, error) {
	canonical := Normalize(names)

	ids := make([]int64, 0, len(canonical))
	for _, name := range canonical {
		tag, err := r.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}

	return ids, canonical, nil
}

// Merge combines AI-suggested tags with user-provided ones. User tags come
// first so their casing wins normalization order.
func Merge(userTags, aiTags []string) []string {
	combined := make([]string, 0, len(userTags)+len(aiTags))
	combined = append(combined, userTags...)
	combined = append(combined, aiTags...)
	return Normalize(combined)
}
