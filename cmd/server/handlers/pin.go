package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pindrop/pindrop/cmd/server/middleware"
	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/cmd/server/service"
	"github.com/pindrop/pindrop/common/apperror"
	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/bootstrap"
)

// PinHandler handles pin-related requests
type PinHandler struct {
	components *bootstrap.Components
	assembler  *service.PinAssembler
	lifecycle  *service.PinLifecycle
	store      *assets.Store
}

// NewPinHandler creates a new pin handler
func NewPinHandler(components *bootstrap.Components, assembler *service.PinAssembler, lifecycle *service.PinLifecycle, store *assets.Store) *PinHandler {
	return &PinHandler{
		components: components,
		assembler:  assembler,
		lifecycle:  lifecycle,
		store:      store,
	}
}

// createPinRequest covers the JSON create body. Multipart requests carry the
// same fields as form values plus an "image" file part.
type createPinRequest struct {
	Type     string   `json:"type"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	ImageURL string   `json:"imageUrl"`
	Tags     []string `json:"tags"`
}

// CreatePin saves a new pin of any type
// POST /api/v1/pins
func (h *PinHandler) CreatePin(c echo.Context) error {
	userID := middleware.GetUserID(c)

	req, stagedPath, filename, err := h.parseCreateRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	pinType := models.PinType(req.Type)
	if !pinType.Valid() {
		return h.respondError(c, apperror.Validation("type", "type must be webpage, image, or note"))
	}

	ctx := c.Request().Context()

	var pin *models.Pin
	switch pinType {
	case models.PinTypeWebpage:
		pin, err = h.assembler.CreateWebpage(ctx, userID, service.CreateWebpageInput{
			URL:  req.URL,
			Tags: req.Tags,
		})
	case models.PinTypeImage:
		pin, err = h.assembler.CreateImage(ctx, userID, service.CreateImageInput{
			StagedPath: stagedPath,
			Filename:   filename,
			SourceURL:  req.ImageURL,
			Tags:       req.Tags,
		})
	case models.PinTypeNote:
		pin, err = h.assembler.CreateNote(ctx, userID, service.CreateNoteInput{
			Title:   req.Title,
			Content: req.Content,
			Tags:    req.Tags,
		})
	}
	if err != nil {
		h.components.Logger.Error("failed to create pin",
			"user_id", userID, "type", req.Type, "error", err)
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, pinResponse(pin))
}

// ListPins lists the caller's pins, newest first
// GET /api/v1/pins
func (h *PinHandler) ListPins(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pins, err := h.lifecycle.List(c.Request().Context(), userID)
	if err != nil {
		h.components.Logger.Error("failed to list pins", "user_id", userID, "error", err)
		return h.respondError(c, err)
	}

	responses := make([]map[string]interface{}, 0, len(pins))
	for _, pin := range pins {
		responses = append(responses, pinResponse(pin))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"pins": responses,
	})
}

// GetPin retrieves one pin
// GET /api/v1/pins/:id
func (h *PinHandler) GetPin(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pinID, err := parsePinID(c)
	if err != nil {
		return h.respondError(c, err)
	}

	pin, err := h.lifecycle.Get(c.Request().Context(), userID, pinID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, pinResponse(pin))
}

// DeletePin removes a pin, its payload, and its stored assets
// DELETE /api/v1/pins/:id
func (h *PinHandler) DeletePin(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pinID, err := parsePinID(c)
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.lifecycle.Delete(c.Request().Context(), userID, pinID); err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "pin deleted",
	})
}

// UpdateComments replaces the comments on a pin
// PUT /api/v1/pins/:id/comments
func (h *PinHandler) UpdateComments(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pinID, err := parsePinID(c)
	if err != nil {
		return h.respondError(c, err)
	}

	var req struct {
		Comments string `json:"comments"`
	}
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, apperror.Validation("body", "invalid request body"))
	}

	ctx := c.Request().Context()
	if err := h.lifecycle.UpdateComments(ctx, userID, pinID, req.Comments); err != nil {
		return h.respondError(c, err)
	}

	pin, err := h.lifecycle.Get(ctx, userID, pinID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, pinResponse(pin))
}

// UpdateNote rewrites a note pin's title, content, and tags
// PUT /api/v1/pins/:id/note
func (h *PinHandler) UpdateNote(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pinID, err := parsePinID(c)
	if err != nil {
		return h.respondError(c, err)
	}

	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
	}
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, apperror.Validation("body", "invalid request body"))
	}

	pin, err := h.lifecycle.UpdateNote(c.Request().Context(), userID, pinID, service.UpdateNoteInput{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
		Tags:    req.Tags,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, pinResponse(pin))
}

// GetTags lists a pin's tags
// GET /api/v1/pins/:id/tags
func (h *PinHandler) GetTags(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pinID, err := parsePinID(c)
	if err != nil {
		return h.respondError(c, err)
	}

	tags, err := h.lifecycle.GetTags(c.Request().Context(), userID, pinID)
	if err != nil {
		return h.respondError(c, err)
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tags": names,
	})
}

// UpdateTags replaces a pin's tag set
// PUT /api/v1/pins/:id/tags
func (h *PinHandler) UpdateTags(c echo.Context) error {
	userID := middleware.GetUserID(c)

	pinID, err := parsePinID(c)
	if err != nil {
		return h.respondError(c, err)
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, apperror.Validation("body", "invalid request body"))
	}

	canonical, err := h.lifecycle.UpdateTags(c.Request().Context(), userID, pinID, req.Tags)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "tags updated",
		"tags":    canonical,
	})
}

// parseCreateRequest reads either a JSON body or a multipart form. Multipart
// is how browser clients send image uploads; the file part is staged into the
// temp dir and handed to the assembler by path, and tags arrive as a
// JSON-encoded array in the form value.
func (h *PinHandler) parseCreateRequest(c echo.Context) (*createPinRequest, string, string, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		req := &createPinRequest{}
		if err := c.Bind(req); err != nil {
			return nil, "", "", apperror.Validation("body", "invalid request body")
		}
		return req, "", "", nil
	}

	req := &createPinRequest{
		Type:     c.FormValue("type"),
		URL:      c.FormValue("url"),
		Title:    c.FormValue("title"),
		Content:  c.FormValue("content"),
		ImageURL: c.FormValue("imageUrl"),
		Tags:     parseTagsValue(c.FormValue("tags")),
	}

	if models.PinType(req.Type) != models.PinTypeImage {
		return req, "", "", nil
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		// No file part; the image may come from imageUrl instead
		return req, "", "", nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", apperror.Validation("image", "failed to read uploaded image")
	}
	defer file.Close()

	stagedPath, err := h.store.StageUpload(file, "upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return nil, "", "", apperror.Wrap(apperror.ErrStorage, "failed to stage uploaded image", err)
	}

	return req, stagedPath, fileHeader.Filename, nil
}

// parseTagsValue accepts a JSON array or a comma-separated list
func parseTagsValue(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		return tags
	}

	return strings.Split(raw, ",")
}

func parsePinID(c echo.Context) (uuid.UUID, error) {
	pinID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("id", "invalid pin id format")
	}
	return pinID, nil
}

// respondError maps the error taxonomy to HTTP statuses
func (h *PinHandler) respondError(c echo.Context, err error) error {
	message := "internal server error"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": message})
	case errors.Is(err, apperror.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{"error": message})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": message})
	}
}

// pinResponse flattens a pin and its payload into one JSON object, the shape
// clients render directly.
func pinResponse(pin *models.Pin) map[string]interface{} {
	resp := map[string]interface{}{
		"id":             pin.ID,
		"userId":         pin.UserID,
		"type":           pin.Type,
		"classification": pin.Classification,
		"title":          pin.Title,
		"createdAt":      pin.CreatedAt,
		"updatedAt":      pin.UpdatedAt,
		"tags":           pin.Tags,
	}
	if pin.Tags == nil {
		resp["tags"] = []string{}
	}
	if pin.Thumbnail != nil {
		resp["thumbnail"] = *pin.Thumbnail
	}

	switch payload := pin.Payload.(type) {
	case *models.WebpagePayload:
		resp["url"] = payload.URL
		resp["content"] = payload.Content
		resp["textContent"] = payload.TextContent
		resp["cleanContent"] = payload.CleanContent
		resp["length"] = payload.Length
		resp["summary"] = payload.Summary
		resp["byline"] = payload.Byline
		resp["siteName"] = payload.SiteName
		resp["lang"] = payload.Lang
		resp["screenshot"] = payload.Screenshot
		resp["comments"] = payload.Comments
	case *models.ImagePayload:
		resp["filePath"] = payload.FilePath
		resp["width"] = payload.Width
		resp["height"] = payload.Height
		resp["format"] = payload.Format
		resp["summary"] = payload.Summary
		resp["comments"] = payload.Comments
	case *models.NotePayload:
		resp["content"] = payload.Content
		resp["summary"] = payload.Summary
		resp["comments"] = payload.Comments
	}

	return resp
}
