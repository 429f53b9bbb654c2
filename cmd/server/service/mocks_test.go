package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/apperror"
	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/enrich"
	"github.com/pindrop/pindrop/common/fetch"
	"github.com/pindrop/pindrop/common/logger"
	"github.com/pindrop/pindrop/common/render"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

func testStore(t *testing.T) *assets.Store {
	t.Helper()
	store, err := assets.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// mockPinStore is an in-memory PinStore with per-method error injection
type mockPinStore struct {
	mu sync.Mutex

	pins     map[uuid.UUID]*models.Pin
	payloads map[uuid.UUID]models.Payload
	tagIDs   map[uuid.UUID][]int64

	deleted []uuid.UUID

	skeletonErr error
	completeErr error
	createErr   error
	saveNoteErr error
}

func newMockPinStore() *mockPinStore {
	return &mockPinStore{
		pins:     make(map[uuid.UUID]*models.Pin),
		payloads: make(map[uuid.UUID]models.Payload),
		tagIDs:   make(map[uuid.UUID][]int64),
	}
}

func (m *mockPinStore) CreateSkeleton(ctx context.Context, pin *models.Pin) error {
	if m.skeletonErr != nil {
		return m.skeletonErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *pin
	m.pins[pin.ID] = &clone
	return nil
}

func (m *mockPinStore) CompleteWebpage(ctx context.Context, pin *models.Pin, wp *models.WebpagePayload, tagIDs []int64) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *pin
	m.pins[pin.ID] = &clone
	m.payloads[pin.ID] = wp
	m.tagIDs[pin.ID] = tagIDs
	return nil
}

func (m *mockPinStore) CreateImage(ctx context.Context, pin *models.Pin, img *models.ImagePayload, tagIDs []int64) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *pin
	m.pins[pin.ID] = &clone
	m.payloads[pin.ID] = img
	m.tagIDs[pin.ID] = tagIDs
	return nil
}

func (m *mockPinStore) CreateNote(ctx context.Context, pin *models.Pin, note *models.NotePayload, tagIDs []int64) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *pin
	m.pins[pin.ID] = &clone
	m.payloads[pin.ID] = note
	m.tagIDs[pin.ID] = tagIDs
	return nil
}

func (m *mockPinStore) GetByID(ctx context.Context, userID string, pinID uuid.UUID) (*models.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[pinID]
	if !ok || pin.UserID != userID {
		return nil, apperror.NotFound("pin", pinID.String())
	}
	clone := *pin
	clone.Payload = m.payloads[pinID]
	return &clone, nil
}

func (m *mockPinStore) List(ctx context.Context, userID string) ([]*models.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Pin
	for id, pin := range m.pins {
		if pin.UserID != userID {
			continue
		}
		clone := *pin
		clone.Payload = m.payloads[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockPinStore) GetType(ctx context.Context, userID string, pinID uuid.UUID) (models.PinType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[pinID]
	if !ok || pin.UserID != userID {
		return "", apperror.NotFound("pin", pinID.String())
	}
	return pin.Type, nil
}

func (m *mockPinStore) Delete(ctx context.Context, userID string, pinID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[pinID]
	if !ok || pin.UserID != userID {
		return apperror.NotFound("pin", pinID.String())
	}
	delete(m.pins, pinID)
	delete(m.payloads, pinID)
	delete(m.tagIDs, pinID)
	m.deleted = append(m.deleted, pinID)
	return nil
}

func (m *mockPinStore) UpdateComments(ctx context.Context, userID string, pinID uuid.UUID, comments string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[pinID]
	if !ok || pin.UserID != userID {
		return apperror.NotFound("pin", pinID.String())
	}
	switch payload := m.payloads[pinID].(type) {
	case *models.WebpagePayload:
		payload.Comments = comments
	case *models.ImagePayload:
		payload.Comments = comments
	case *models.NotePayload:
		payload.Comments = comments
	default:
		// No payload row to carry the comment (webpage skeleton)
		return apperror.NotFound("pin", pinID.String())
	}
	return nil
}

func (m *mockPinStore) SaveNote(ctx context.Context, userID string, pinID uuid.UUID, title string, note *models.NotePayload, tagIDs []int64) error {
	if m.saveNoteErr != nil {
		return m.saveNoteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[pinID]
	if !ok || pin.UserID != userID || pin.Type != models.PinTypeNote {
		return apperror.NotFound("pin", pinID.String())
	}
	pin.Title = title
	m.payloads[pinID] = note
	m.tagIDs[pinID] = tagIDs
	return nil
}

func (m *mockPinStore) has(pinID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pins[pinID]
	return ok
}

// mockTagStore assigns ids sequentially and remembers associations
type mockTagStore struct {
	mu sync.Mutex

	byName   map[string]int64
	byID     map[int64]string
	nextID   int64
	replaced map[uuid.UUID][]int64

	getOrCreateErr error
}

func newMockTagStore() *mockTagStore {
	return &mockTagStore{
		byName:   make(map[string]int64),
		byID:     make(map[int64]string),
		replaced: make(map[uuid.UUID][]int64),
	}
}

func (m *mockTagStore) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	if m.getOrCreateErr != nil {
		return nil, m.getOrCreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byName[name]; ok {
		return &models.Tag{ID: id, Name: name}, nil
	}
	m.nextID++
	m.byName[name] = m.nextID
	m.byID[m.nextID] = name
	return &models.Tag{ID: m.nextID, Name: name}, nil
}

func (m *mockTagStore) ListForPin(ctx context.Context, userID string, pinID uuid.UUID) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tags []*models.Tag
	for _, id := range m.replaced[pinID] {
		tags = append(tags, &models.Tag{ID: id, Name: m.byID[id]})
	}
	return tags, nil
}

func (m *mockTagStore) ReplaceForPin(ctx context.Context, pinID uuid.UUID, tagIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced[pinID] = tagIDs
	return nil
}

// mockRenderer returns a canned result or error
type mockRenderer struct {
	result *render.Result
	err    error
	calls  int
}

func (m *mockRenderer) Render(ctx context.Context, url string) (*render.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockEnricher returns canned analyses or errors
type mockEnricher struct {
	webpage    *enrich.WebpageAnalysis
	webpageErr error
	image      *enrich.ImageAnalysis
	imageErr   error
	note       *enrich.NoteAnalysis
	noteErr    error

	noteCalls int
}

func (m *mockEnricher) AnalyzeWebpage(ctx context.Context, text string) (*enrich.WebpageAnalysis, error) {
	if m.webpageErr != nil {
		return nil, m.webpageErr
	}
	return m.webpage, nil
}

func (m *mockEnricher) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*enrich.ImageAnalysis, error) {
	if m.imageErr != nil {
		return nil, m.imageErr
	}
	return m.image, nil
}

func (m *mockEnricher) AnalyzeNote(ctx context.Context, text string) (*enrich.NoteAnalysis, error) {
	m.noteCalls++
	if m.noteErr != nil {
		return nil, m.noteErr
	}
	return m.note, nil
}

// mockFetcher returns canned remote content
type mockFetcher struct {
	result *fetch.Result
	err    error
}

func (m *mockFetcher) Fetch(ctx context.Context, urlStr string) (*fetch.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockCache is an in-memory Cache
type mockCache struct {
	mu   sync.Mutex
	data map[string]string
	sets int
	gets int
	hits int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]string)}
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if val, ok := m.data[key]; ok {
		m.hits++
		return val, nil
	}
	return "", apperror.ErrNotFound
}

func (m *mockCache) SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}
