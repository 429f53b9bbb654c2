package models

import (
	"time"

	"github.com/google/uuid"
)

// PinType discriminates the payload attached to a pin
type PinType string

const (
	PinTypeWebpage PinType = "webpage"
	PinTypeImage   PinType = "image"
	PinTypeNote    PinType = "note"
)

// Valid reports whether the type is one of the known pin types
func (t PinType) Valid() bool {
	switch t {
	case PinTypeWebpage, PinTypeImage, PinTypeNote:
		return true
	}
	return false
}

// Pin is the central saved-item aggregate. Exactly one payload exists per
// pin, matching Type.
// Maps to: pins table
type Pin struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID string    `db:"user_id" json:"userId"`

	// Immutable once set
	Type PinType `db:"type" json:"type"`

	// Free-text subtype; defaults to Type until enrichment completes
	Classification string `db:"classification" json:"classification"`

	// Placeholder ("Loading...", "New Note") until enrichment refines it
	Title string `db:"title" json:"title"`

	// Filename reference into the asset store thumbnails dir
	Thumbnail *string `db:"thumbnail" json:"thumbnail,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Resolved tag names, populated on load
	Tags []string `json:"tags"`

	// Type-specific payload, populated on load
	Payload Payload `json:"-"`
}

// Payload is the tagged union of type-specific pin data. Every site that
// branches on pin type switches over this interface so new payload types
// cannot be silently unhandled.
type Payload interface {
	PayloadType() PinType
}

// WebpagePayload holds the derived article and screenshot data for a
// webpage pin. All content fields are immutable after creation except
// Summary (re-analysis) and Comments (user annotation).
type WebpagePayload struct {
	URL            string `db:"url" json:"url"`
	Content        string `db:"content" json:"content"`
	TextContent    string `db:"text_content" json:"textContent"`
	CleanContent   string `db:"clean_content" json:"cleanContent"`
	Length         int    `db:"length" json:"length"`
	Summary        string `db:"summary" json:"summary"`
	Byline         string `db:"byline" json:"byline"`
	SiteName       string `db:"site_name" json:"siteName"`
	Lang           string `db:"lang" json:"lang"`
	Screenshot     string `db:"screenshot" json:"screenshot"`
	Classification string `db:"classification" json:"classification"`
	Comments       string `db:"comments" json:"comments"`
}

func (WebpagePayload) PayloadType() PinType { return PinTypeWebpage }

// ImagePayload holds the stored file reference and decoded metadata for an
// image pin. FilePath is relative to the asset store root.
type ImagePayload struct {
	FilePath string `db:"file_path" json:"filePath"`
	Width    int    `db:"width" json:"width"`
	Height   int    `db:"height" json:"height"`
	Format   string `db:"format" json:"type"`
	Summary  string `db:"summary" json:"summary"`
	Comments string `db:"comments" json:"comments"`
}

func (ImagePayload) PayloadType() PinType { return PinTypeImage }

// NotePayload holds user-authored markdown and its AI summary
type NotePayload struct {
	Content  string `db:"content" json:"content"`
	Summary  string `db:"summary" json:"summary"`
	Comments string `db:"comments" json:"comments"`
}

func (NotePayload) PayloadType() PinType { return PinTypeNote }
