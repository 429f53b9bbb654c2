package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/apperror"
	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/enrich"
	"github.com/pindrop/pindrop/common/extract"
	"github.com/pindrop/pindrop/common/fetch"
	"github.com/pindrop/pindrop/common/imaging"
	"github.com/pindrop/pindrop/common/logger"
	"github.com/pindrop/pindrop/common/render"
	"github.com/pindrop/pindrop/common/sanitize"
)

// PinStore is the persistence surface for pins and their payloads
type PinStore interface {
	CreateSkeleton(ctx context.Context, pin *models.Pin) error
	CompleteWebpage(ctx context.Context, pin *models.Pin, wp *models.WebpagePayload, tagIDs []int64) error
	CreateImage(ctx context.Context, pin *models.Pin, img *models.ImagePayload, tagIDs []int64) error
	CreateNote(ctx context.Context, pin *models.Pin, note *models.NotePayload, tagIDs []int64) error
	GetByID(ctx context.Context, userID string, pinID uuid.UUID) (*models.Pin, error)
	List(ctx context.Context, userID string) ([]*models.Pin, error)
	GetType(ctx context.Context, userID string, pinID uuid.UUID) (models.PinType, error)
	Delete(ctx context.Context, userID string, pinID uuid.UUID) error
	UpdateComments(ctx context.Context, userID string, pinID uuid.UUID, comments string) error
	SaveNote(ctx context.Context, userID string, pinID uuid.UUID, title string, note *models.NotePayload, tagIDs []int64) error
}

// Renderer captures a page with a headless browser
type Renderer interface {
	Render(ctx context.Context, url string) (*render.Result, error)
}

// Enricher derives summaries, classifications, and tags
type Enricher interface {
	AnalyzeWebpage(ctx context.Context, text string) (*enrich.WebpageAnalysis, error)
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*enrich.ImageAnalysis, error)
	AnalyzeNote(ctx context.Context, text string) (*enrich.NoteAnalysis, error)
}

// ImageFetcher downloads remote image bytes
type ImageFetcher interface {
	Fetch(ctx context.Context, urlStr string) (*fetch.Result, error)
}

// CreateWebpageInput is the request to save a webpage pin
type CreateWebpageInput struct {
	URL  string
	Tags []string
}

// CreateImageInput is the request to save an image pin. Exactly one of
// StagedPath (an upload staged in the temp dir) or SourceURL must be set.
// The assembler owns the staged file: it is promoted into the user's image
// dir on success and removed on failure.
type CreateImageInput struct {
	StagedPath string
	Filename   string
	SourceURL  string
	Tags       []string
}

// CreateNoteInput is the request to save a note pin
type CreateNoteInput struct {
	Title   string
	Content string
	Tags    []string
}

// PinAssembler runs the creation pipelines: render, extract, sanitize,
// store assets, enrich, persist. Enrichment failures degrade the pin;
// earlier stage failures abort it.
type PinAssembler struct {
	pins     PinStore
	tags     *TagResolver
	renderer Renderer
	enricher Enricher
	fetcher  ImageFetcher
	store    *assets.Store
	analysis *analysisCache
	log      *logger.Logger
}

// NewPinAssembler creates a new pin assembler
func NewPinAssembler(
	pins PinStore,
	tags *TagResolver,
	renderer Renderer,
	enricher Enricher,
	fetcher ImageFetcher,
	store *assets.Store,
	cache Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *PinAssembler {
	return &PinAssembler{
		pins:     pins,
		tags:     tags,
		renderer: renderer,
		enricher: enricher,
		fetcher:  fetcher,
		store:    store,
		analysis: newAnalysisCache(enricher, cache, cacheTTL, log),
		log:      log,
	}
}

// CreateWebpage saves a webpage pin. A skeleton row is inserted first so the
// client can show a placeholder; render or extraction failure removes it
// again, while enrichment failure leaves a pin with degraded fields.
func (s *PinAssembler) CreateWebpage(ctx context.Context, userID string, input CreateWebpageInput) (*models.Pin, error) {
	if input.URL == "" {
		return nil, apperror.Validation("url", "url is required")
	}
	if err := fetch.ValidateURL(input.URL); err != nil {
		return nil, apperror.Validation("url", err.Error())
	}
	pageURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, apperror.Validation("url", "url is not valid")
	}

	pin := &models.Pin{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           models.PinTypeWebpage,
		Classification: string(models.PinTypeWebpage),
		Title:          "Loading...",
	}
	if err := s.pins.CreateSkeleton(ctx, pin); err != nil {
		return nil, fmt.Errorf("create webpage skeleton: %w", err)
	}

	rendered, err := s.renderer.Render(ctx, input.URL)
	if err != nil {
		s.discardSkeleton(ctx, userID, pin.ID)
		return nil, apperror.Wrap(apperror.ErrRender, "failed to render page", err)
	}

	article, err := extract.FromHTML(rendered.HTML, pageURL)
	if err != nil {
		s.discardSkeleton(ctx, userID, pin.ID)
		return nil, apperror.Wrap(apperror.ErrExtraction, "failed to extract article", err)
	}

	cleanContent := sanitize.Sanitize(rendered.HTML)

	screenshotName, thumbnailName, err := s.storeScreenshots(userID, pin.ID, rendered)
	if err != nil {
		s.discardSkeleton(ctx, userID, pin.ID)
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to store screenshots", err)
	}

	title := article.Title
	if title == "" {
		title = input.URL
	}

	// Enrichment failure degrades the pin instead of aborting it
	summary := ""
	classification := string(models.PinTypeWebpage)
	tagNames := input.Tags

	analysis, err := s.analysis.Webpage(ctx, article.TextContent)
	if err != nil {
		s.log.Warn("webpage enrichment failed, saving degraded pin",
			"pin_id", pin.ID, "error", err)
	} else {
		summary = analysis.Summary
		if analysis.Classification != "" {
			classification = analysis.Classification
		}
		tagNames = Merge(input.Tags, analysis.Tags)
	}

	tagIDs, canonical, err := s.tags.Resolve(ctx, tagNames)
	if err != nil {
		s.removeAssets(userID, screenshotName, thumbnailName)
		s.discardSkeleton(ctx, userID, pin.ID)
		return nil, err
	}

	pin.Title = title
	pin.Thumbnail = &thumbnailName
	pin.Classification = classification

	wp := &models.WebpagePayload{
		URL:            input.URL,
		Content:        article.Content,
		TextContent:    article.TextContent,
		CleanContent:   cleanContent,
		Length:         article.Length,
		Summary:        summary,
		Byline:         article.Byline,
		SiteName:       article.SiteName,
		Lang:           article.Lang,
		Screenshot:     screenshotName,
		Classification: classification,
	}

	if err := s.pins.CompleteWebpage(ctx, pin, wp, tagIDs); err != nil {
		s.removeAssets(userID, screenshotName, thumbnailName)
		s.discardSkeleton(ctx, userID, pin.ID)
		return nil, fmt.Errorf("complete webpage pin: %w", err)
	}

	pin.Tags = canonical
	pin.Payload = wp

	s.log.Info("webpage pin created",
		"pin_id", pin.ID,
		"user_id", userID,
		"url", input.URL,
		"classification", classification,
	)
	return pin, nil
}

// CreateImage saves an image pin from an upload or a remote URL
func (s *PinAssembler) CreateImage(ctx context.Context, userID string, input CreateImageInput) (*models.Pin, error) {
	staged := input.StagedPath != ""
	if staged && input.SourceURL != "" {
		s.removeFile(input.StagedPath)
		return nil, apperror.Validation("image", "provide an image file or an image url, not both")
	}

	var data []byte
	if staged {
		var err error
		data, err = s.store.ReadFile(input.StagedPath)
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrStorage, "failed to read staged upload", err)
		}
	} else {
		if input.SourceURL == "" {
			return nil, apperror.Validation("image", "an image file or image url is required")
		}
		if err := fetch.ValidateURL(input.SourceURL); err != nil {
			return nil, apperror.Validation("imageUrl", err.Error())
		}
		result, err := s.fetcher.Fetch(ctx, input.SourceURL)
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrFetch, "failed to fetch image", err)
		}
		data = result.Body
	}

	img, meta, err := imaging.Decode(data)
	if err != nil {
		if staged {
			s.removeFile(input.StagedPath)
		}
		return nil, apperror.Wrap(apperror.ErrDecode, "unsupported image data", err)
	}

	pinID := uuid.New()
	stamp := time.Now().UnixNano()
	originalName := fmt.Sprintf("%d.%s", stamp, extensionFor(meta.Format))
	thumbnailName := fmt.Sprintf("thumb_%d.webp", stamp)

	originalPath := s.store.ImagePath(userID, originalName)
	thumbnailPath := s.store.ThumbnailPath(userID, thumbnailName)

	if staged {
		if err := s.store.Promote(input.StagedPath, originalPath); err != nil {
			s.removeFile(input.StagedPath)
			return nil, apperror.Wrap(apperror.ErrStorage, "failed to store image", err)
		}
	} else {
		if err := s.store.WriteFile(originalPath, data); err != nil {
			return nil, apperror.Wrap(apperror.ErrStorage, "failed to store image", err)
		}
	}

	thumbBytes, err := imaging.ToWebP(imaging.Thumbnail(img))
	if err == nil {
		err = s.store.WriteFile(thumbnailPath, thumbBytes)
	}
	if err != nil {
		s.removeFile(originalPath)
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to store thumbnail", err)
	}

	filePath, err := s.store.Rel(originalPath)
	if err != nil {
		s.removeFile(originalPath)
		s.removeFile(thumbnailPath)
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to resolve image path", err)
	}

	title := input.Filename
	if title == "" {
		title = "Image"
	}
	summary := ""
	tagNames := input.Tags

	analysis, err := s.enricher.AnalyzeImage(ctx, data, "image/"+meta.Format)
	if err != nil {
		s.log.Warn("image enrichment failed, saving degraded pin",
			"pin_id", pinID, "error", err)
	} else {
		summary = analysis.Description
		tagNames = Merge(input.Tags, analysis.Tags)
	}

	tagIDs, canonical, err := s.tags.Resolve(ctx, tagNames)
	if err != nil {
		s.removeFile(originalPath)
		s.removeFile(thumbnailPath)
		return nil, err
	}

	pin := &models.Pin{
		ID:             pinID,
		UserID:         userID,
		Type:           models.PinTypeImage,
		Classification: string(models.PinTypeImage),
		Title:          title,
		Thumbnail:      &thumbnailName,
	}
	payload := &models.ImagePayload{
		FilePath: filePath,
		Width:    meta.Width,
		Height:   meta.Height,
		Format:   meta.Format,
		Summary:  summary,
	}

	if err := s.pins.CreateImage(ctx, pin, payload, tagIDs); err != nil {
		s.removeFile(originalPath)
		s.removeFile(thumbnailPath)
		return nil, fmt.Errorf("create image pin: %w", err)
	}

	pin.Tags = canonical
	pin.Payload = payload

	s.log.Info("image pin created",
		"pin_id", pin.ID,
		"user_id", userID,
		"format", meta.Format,
		"dimensions", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
	)
	return pin, nil
}

// CreateNote saves a note pin. Creation stores the note as-is with no
// enrichment; analysis runs when the note is saved through UpdateNote.
func (s *PinAssembler) CreateNote(ctx context.Context, userID string, input CreateNoteInput) (*models.Pin, error) {
	title := input.Title
	if title == "" {
		title = "New Note"
	}

	tagIDs, canonical, err := s.tags.Resolve(ctx, input.Tags)
	if err != nil {
		return nil, err
	}

	pin := &models.Pin{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           models.PinTypeNote,
		Classification: string(models.PinTypeNote),
		Title:          title,
	}
	payload := &models.NotePayload{
		Content: input.Content,
	}

	if err := s.pins.CreateNote(ctx, pin, payload, tagIDs); err != nil {
		return nil, fmt.Errorf("create note pin: %w", err)
	}

	pin.Tags = canonical
	pin.Payload = payload

	s.log.Info("note pin created", "pin_id", pin.ID, "user_id", userID)
	return pin, nil
}

// storeScreenshots converts both captures to webp and writes them into the
// user's asset tree. Returns the stored filenames.
func (s *PinAssembler) storeScreenshots(userID string, pinID uuid.UUID, rendered *render.Result) (string, string, error) {
	if err := s.store.EnsureUserDirs(userID); err != nil {
		return "", "", err
	}

	fullImg, _, err := imaging.Decode(rendered.FullScreenshot)
	if err != nil {
		return "", "", fmt.Errorf("decode full screenshot: %w", err)
	}
	fullWebp, err := imaging.ToWebP(fullImg)
	if err != nil {
		return "", "", err
	}

	viewportImg, _, err := imaging.Decode(rendered.Viewport)
	if err != nil {
		return "", "", fmt.Errorf("decode viewport screenshot: %w", err)
	}
	thumbWebp, err := imaging.ToWebP(imaging.Thumbnail(viewportImg))
	if err != nil {
		return "", "", err
	}

	screenshotName := pinID.String() + "-full.webp"
	thumbnailName := pinID.String() + "-thumb.webp"

	if err := s.store.WriteFile(s.store.ScreenshotPath(userID, screenshotName), fullWebp); err != nil {
		return "", "", err
	}
	if err := s.store.WriteFile(s.store.ThumbnailPath(userID, thumbnailName), thumbWebp); err != nil {
		s.removeFile(s.store.ScreenshotPath(userID, screenshotName))
		return "", "", err
	}

	return screenshotName, thumbnailName, nil
}

// discardSkeleton removes the placeholder row after a pipeline stage fails.
// Best effort; an orphaned skeleton only costs a row.
func (s *PinAssembler) discardSkeleton(ctx context.Context, userID string, pinID uuid.UUID) {
	if err := s.pins.Delete(ctx, userID, pinID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.log.Error("failed to discard pin skeleton", "pin_id", pinID, "error", err)
	}
}

func (s *PinAssembler) removeAssets(userID, screenshotName, thumbnailName string) {
	s.removeFile(s.store.ScreenshotPath(userID, screenshotName))
	s.removeFile(s.store.ThumbnailPath(userID, thumbnailName))
}

func (s *PinAssembler) removeFile(path string) {
	if err := s.store.Remove(path); err != nil {
		s.log.Warn("failed to remove asset", "path", path, "error", err)
	}
}

func extensionFor(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
