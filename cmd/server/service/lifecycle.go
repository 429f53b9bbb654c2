package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/apperror"
	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/logger"
)

// UpdateNoteInput is the request to rewrite a note pin
type UpdateNoteInput struct {
	Title   string
	Content string
	Summary string
	Tags    []string
}

// PinLifecycle handles reads and mutations of existing pins: retrieval,
// comment and note updates, tag replacement, and cascading deletion with
// best-effort asset cleanup.
type PinLifecycle struct {
	pins       PinStore
	tagStore   TagStore
	tags       *TagResolver
	analysis   *analysisCache
	store      *assets.Store
	tracker    *Tracker
	retries    int
	retryDelay time.Duration
	log        *logger.Logger
}

// NewPinLifecycle creates a new pin lifecycle service
func NewPinLifecycle(
	pins PinStore,
	tagStore TagStore,
	tags *TagResolver,
	enricher Enricher,
	cache Cache,
	cacheTTL time.Duration,
	store *assets.Store,
	tracker *Tracker,
	retries int,
	retryDelay time.Duration,
	log *logger.Logger,
) *PinLifecycle {
	return &PinLifecycle{
		pins:       pins,
		tagStore:   tagStore,
		tags:       tags,
		analysis:   newAnalysisCache(enricher, cache, cacheTTL, log),
		store:      store,
		tracker:    tracker,
		retries:    retries,
		retryDelay: retryDelay,
		log:        log,
	}
}

// Get retrieves a single pin with payload and tags
func (s *PinLifecycle) Get(ctx context.Context, userID string, pinID uuid.UUID) (*models.Pin, error) {
	return s.pins.GetByID(ctx, userID, pinID)
}

// List retrieves all of a user's pins, newest first
func (s *PinLifecycle) List(ctx context.Context, userID string) ([]*models.Pin, error) {
	return s.pins.List(ctx, userID)
}

// UpdateComments replaces the comments on a pin's payload. An empty string
// clears them.
func (s *PinLifecycle) UpdateComments(ctx context.Context, userID string, pinID uuid.UUID, comments string) error {
	return s.pins.UpdateComments(ctx, userID, pinID, comments)
}

// UpdateNote rewrites a note pin's content and re-runs analysis over the new
// text. The fresh AI title and summary win over provided values; when
// analysis fails the provided title and the existing summary are kept.
func (s *PinLifecycle) UpdateNote(ctx context.Context, userID string, pinID uuid.UUID, input UpdateNoteInput) (*models.Pin, error) {
	if input.Content == "" {
		return nil, apperror.Validation("content", "content is required")
	}

	existing, err := s.pins.GetByID(ctx, userID, pinID)
	if err != nil {
		return nil, err
	}
	if existing.Type != models.PinTypeNote {
		return nil, apperror.Validation("type", "only note pins can be edited")
	}

	title := input.Title
	if title == "" {
		title = existing.Title
	}
	summary := input.Summary
	if summary == "" {
		if note, ok := existing.Payload.(*models.NotePayload); ok {
			summary = note.Summary
		}
	}
	tagNames := input.Tags

	// Fresh analysis wins over provided fields when it succeeds
	analysis, err := s.analysis.Note(ctx, input.Content)
	if err != nil {
		s.log.Warn("note re-analysis failed, keeping provided fields",
			"pin_id", pinID, "error", err)
	} else {
		if analysis.Title != "" {
			title = analysis.Title
		}
		summary = analysis.Summary
		tagNames = Merge(input.Tags, analysis.Tags)
	}

	tagIDs, _, err := s.tags.Resolve(ctx, tagNames)
	if err != nil {
		return nil, err
	}

	payload := &models.NotePayload{
		Content: input.Content,
		Summary: summary,
	}
	if err := s.pins.SaveNote(ctx, userID, pinID, title, payload, tagIDs); err != nil {
		return nil, err
	}

	return s.pins.GetByID(ctx, userID, pinID)
}

// UpdateTags replaces a pin's tag set and returns the canonical names
func (s *PinLifecycle) UpdateTags(ctx context.Context, userID string, pinID uuid.UUID, names []string) ([]string, error) {
	if _, err := s.pins.GetType(ctx, userID, pinID); err != nil {
		return nil, err
	}

	tagIDs, canonical, err := s.tags.Resolve(ctx, names)
	if err != nil {
		return nil, err
	}

	if err := s.tagStore.ReplaceForPin(ctx, pinID, tagIDs); err != nil {
		return nil, fmt.Errorf("replace pin tags: %w", err)
	}

	return canonical, nil
}

// GetTags retrieves a pin's tags
func (s *PinLifecycle) GetTags(ctx context.Context, userID string, pinID uuid.UUID) ([]*models.Tag, error) {
	if _, err := s.pins.GetType(ctx, userID, pinID); err != nil {
		return nil, err
	}
	return s.tagStore.ListForPin(ctx, userID, pinID)
}

// Delete removes a pin and its payload, then cleans up stored assets.
// Asset removal is best effort: each file gets a bounded number of attempts
// and stubborn paths land in the tracker for the sweeper.
func (s *PinLifecycle) Delete(ctx context.Context, userID string, pinID uuid.UUID) error {
	pin, err := s.pins.GetByID(ctx, userID, pinID)
	if err != nil {
		return err
	}

	if err := s.pins.Delete(ctx, userID, pinID); err != nil {
		return err
	}

	for _, path := range s.assetPaths(pin) {
		if err := s.removeWithRetry(path); err != nil {
			s.log.Warn("asset removal failed, deferring to sweeper",
				"pin_id", pinID, "path", path, "error", err)
			s.tracker.Add(path)
		}
	}

	s.log.Info("pin deleted", "pin_id", pinID, "user_id", userID, "type", pin.Type)
	return nil
}

// assetPaths lists the stored files belonging to a pin
func (s *PinLifecycle) assetPaths(pin *models.Pin) []string {
	var paths []string

	if pin.Thumbnail != nil && *pin.Thumbnail != "" {
		paths = append(paths, s.store.ThumbnailPath(pin.UserID, *pin.Thumbnail))
	}

	switch payload := pin.Payload.(type) {
	case *models.WebpagePayload:
		if payload.Screenshot != "" {
			paths = append(paths, s.store.ScreenshotPath(pin.UserID, payload.Screenshot))
		}
	case *models.ImagePayload:
		if payload.FilePath != "" {
			paths = append(paths, s.store.Abs(payload.FilePath))
		}
	}

	return paths
}

func (s *PinLifecycle) removeWithRetry(path string) error {
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryDelay)
		}
		if err = s.store.Remove(path); err == nil {
			return nil
		}
	}
	return err
}
