package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pindrop/pindrop/cmd/server/models"
	"github.com/pindrop/pindrop/common/apperror"
	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/enrich"
	"github.com/pindrop/pindrop/common/fetch"
	"github.com/pindrop/pindrop/common/render"
)

const testUserID = "user-1"

type assemblerEnv struct {
	assembler *PinAssembler
	pins      *mockPinStore
	tagStore  *mockTagStore
	renderer  *mockRenderer
	enricher  *mockEnricher
	fetcher   *mockFetcher
	cache     *mockCache
	store     *assets.Store
}

func newAssemblerEnv(t *testing.T) *assemblerEnv {
	t.Helper()

	pageHTML := `<html lang="en"><head><title>Example Article</title></head><body>
		<article>
			<h1>Example Article</h1>
			<p>This is a long form piece of writing with enough body text for the
			extraction pass to find something meaningful to keep. It talks about
			nothing in particular at considerable length, paragraph after paragraph.</p>
			<p>See <a href="https://example.com/more">further reading</a> for the rest
			of the series, which continues in the same agreeable tone.</p>
		</article>
		<script>window.tracker = "spyware";</script>
	</body></html>`

	env := &assemblerEnv{
		pins:     newMockPinStore(),
		tagStore: newMockTagStore(),
		renderer: &mockRenderer{
			result: &render.Result{
				HTML:           pageHTML,
				FullScreenshot: pngBytes(t, 800, 1200),
				Viewport:       pngBytes(t, 800, 600),
			},
		},
		enricher: &mockEnricher{
			webpage: &enrich.WebpageAnalysis{
				Summary:        "An agreeable long read.",
				Classification: "article",
				Tags:           []string{"Writing", "Longform"},
			},
			image: &enrich.ImageAnalysis{
				Description: "A blue rectangle.",
				Tags:        []string{"abstract"},
			},
			note: &enrich.NoteAnalysis{
				Summary: "Things to buy.",
				Title:   "Shopping List",
				Tags:    []string{"errands"},
			},
		},
		fetcher: &mockFetcher{},
		cache:   newMockCache(),
		store:   testStore(t),
	}

	env.assembler = NewPinAssembler(
		env.pins,
		NewTagResolver(env.tagStore, testLogger()),
		env.renderer,
		env.enricher,
		env.fetcher,
		env.store,
		env.cache,
		time.Hour,
		testLogger(),
	)
	return env
}

func (env *assemblerEnv) stageUpload(t *testing.T, data []byte) string {
	t.Helper()
	path, err := env.store.StageUpload(bytes.NewReader(data), "upload-*.png")
	require.NoError(t, err)
	return path
}

func TestCreateWebpage(t *testing.T) {
	env := newAssemblerEnv(t)

	pin, err := env.assembler.CreateWebpage(context.Background(), testUserID, CreateWebpageInput{
		URL:  "https://example.com/article",
		Tags: []string{"Reading"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PinTypeWebpage, pin.Type)
	assert.Equal(t, "Example Article", pin.Title)
	assert.Equal(t, "article", pin.Classification)
	assert.Equal(t, []string{"reading", "writing", "longform"}, pin.Tags)
	require.NotNil(t, pin.Thumbnail)

	wp, ok := pin.Payload.(*models.WebpagePayload)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/article", wp.URL)
	assert.Equal(t, "An agreeable long read.", wp.Summary)
	assert.Contains(t, wp.TextContent, "long form piece")

	// Sanitized copy carries no executable content and annotates links
	assert.NotContains(t, wp.CleanContent, "<script")
	assert.NotContains(t, wp.CleanContent, "spyware")
	assert.Contains(t, wp.CleanContent, "external-link")

	// Both screenshots are stored as webp next to the pin id
	_, err = os.Stat(env.store.ScreenshotPath(testUserID, wp.Screenshot))
	assert.NoError(t, err)
	_, err = os.Stat(env.store.ThumbnailPath(testUserID, *pin.Thumbnail))
	assert.NoError(t, err)

	assert.True(t, env.pins.has(pin.ID))
}

func TestCreateWebpage_ValidatesURL(t *testing.T) {
	env := newAssemblerEnv(t)
	ctx := context.Background()

	_, err := env.assembler.CreateWebpage(ctx, testUserID, CreateWebpageInput{URL: ""})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = env.assembler.CreateWebpage(ctx, testUserID, CreateWebpageInput{URL: "http://localhost/admin"})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = env.assembler.CreateWebpage(ctx, testUserID, CreateWebpageInput{URL: "ftp://example.com"})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// Nothing reached the render stage or the database
	assert.Equal(t, 0, env.renderer.calls)
	assert.Empty(t, env.pins.pins)
}

func TestCreateWebpage_RenderFailureDiscardsSkeleton(t *testing.T) {
	env := newAssemblerEnv(t)
	env.renderer.err = errors.New("net::ERR_NAME_NOT_RESOLVED")

	_, err := env.assembler.CreateWebpage(context.Background(), testUserID, CreateWebpageInput{
		URL: "https://doesnotresolve.example",
	})

	assert.True(t, errors.Is(err, apperror.ErrRender))
	assert.Empty(t, env.pins.pins)
	assert.Len(t, env.pins.deleted, 1)
}

func TestCreateWebpage_EnrichmentFailureDegrades(t *testing.T) {
	env := newAssemblerEnv(t)
	env.enricher.webpageErr = errors.New("completion request failed with status 500")

	pin, err := env.assembler.CreateWebpage(context.Background(), testUserID, CreateWebpageInput{
		URL:  "https://example.com/article",
		Tags: []string{"Reading"},
	})
	require.NoError(t, err)

	// Pin persists with fallback fields and user tags only
	assert.Equal(t, "webpage", pin.Classification)
	assert.Equal(t, []string{"reading"}, pin.Tags)
	assert.True(t, env.pins.has(pin.ID))
}

func TestCreateWebpage_CachesAnalysis(t *testing.T) {
	env := newAssemblerEnv(t)

	_, err := env.assembler.CreateWebpage(context.Background(), testUserID, CreateWebpageInput{
		URL: "https://example.com/article",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, env.cache.sets)
}

func TestCreateImage_FromUpload(t *testing.T) {
	env := newAssemblerEnv(t)

	pin, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		StagedPath: env.stageUpload(t, pngBytes(t, 300, 200)),
		Filename:   "diagram.png",
		Tags:       []string{"Design"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PinTypeImage, pin.Type)
	assert.Equal(t, "diagram.png", pin.Title)
	assert.Equal(t, []string{"design", "abstract"}, pin.Tags)

	img, ok := pin.Payload.(*models.ImagePayload)
	require.True(t, ok)
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 200, img.Height)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, "A blue rectangle.", img.Summary)

	_, err = os.Stat(env.store.Abs(img.FilePath))
	assert.NoError(t, err)
	require.NotNil(t, pin.Thumbnail)
	_, err = os.Stat(env.store.ThumbnailPath(testUserID, *pin.Thumbnail))
	assert.NoError(t, err)
}

func TestCreateImage_FromRemoteURL(t *testing.T) {
	env := newAssemblerEnv(t)
	env.fetcher.result = &fetch.Result{
		Body:        pngBytes(t, 120, 80),
		ContentType: "image/png",
	}

	pin, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		SourceURL: "https://example.com/pic.png",
	})
	require.NoError(t, err)

	img := pin.Payload.(*models.ImagePayload)
	assert.Equal(t, 120, img.Width)
	assert.Equal(t, "Image", pin.Title)
}

func TestCreateImage_FetchFailure(t *testing.T) {
	env := newAssemblerEnv(t)
	env.fetcher.err = errors.New("HTTP 404: Not Found")

	_, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		SourceURL: "https://example.com/missing.png",
	})

	assert.True(t, errors.Is(err, apperror.ErrFetch))
	assert.Empty(t, env.pins.pins)
}

func TestCreateImage_RejectsUndecodableData(t *testing.T) {
	env := newAssemblerEnv(t)
	staged := env.stageUpload(t, []byte("this is a text file"))

	_, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		StagedPath: staged,
	})

	assert.True(t, errors.Is(err, apperror.ErrDecode))
	// Rejected staging files do not linger in the temp dir
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestCreateImage_RequiresSource(t *testing.T) {
	env := newAssemblerEnv(t)

	_, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{})

	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestCreateImage_RejectsBothSources(t *testing.T) {
	env := newAssemblerEnv(t)

	_, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		StagedPath: env.stageUpload(t, pngBytes(t, 10, 10)),
		SourceURL:  "https://example.com/pic.png",
	})

	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestCreateImage_RelocatesStagedUpload(t *testing.T) {
	env := newAssemblerEnv(t)
	staged := env.stageUpload(t, pngBytes(t, 300, 200))

	pin, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		StagedPath: staged,
		Filename:   "diagram.png",
	})
	require.NoError(t, err)

	// The staged file moved into the user's image dir, leaving temp empty
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(env.store.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	img := pin.Payload.(*models.ImagePayload)
	_, err = os.Stat(env.store.Abs(img.FilePath))
	assert.NoError(t, err)
}

func TestCreateImage_PersistFailureRemovesFiles(t *testing.T) {
	env := newAssemblerEnv(t)
	env.pins.createErr = errors.New("connection reset")

	_, err := env.assembler.CreateImage(context.Background(), testUserID, CreateImageInput{
		StagedPath: env.stageUpload(t, pngBytes(t, 64, 64)),
	})
	require.Error(t, err)

	entries, readErr := os.ReadDir(env.store.UserImagesDir(testUserID))
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestCreateNote(t *testing.T) {
	env := newAssemblerEnv(t)

	pin, err := env.assembler.CreateNote(context.Background(), testUserID, CreateNoteInput{
		Title:   "my scribbles",
		Content: "milk, eggs, bread",
		Tags:    []string{"Home"},
	})
	require.NoError(t, err)

	assert.Equal(t, "my scribbles", pin.Title)
	assert.Equal(t, []string{"home"}, pin.Tags)

	note := pin.Payload.(*models.NotePayload)
	assert.Equal(t, "milk, eggs, bread", note.Content)
	assert.Empty(t, note.Summary)
	// Analysis only runs on save, never at creation
	assert.Equal(t, 0, env.enricher.noteCalls)
}

func TestCreateNote_EmptyRequestCreatesPlaceholder(t *testing.T) {
	env := newAssemblerEnv(t)

	pin, err := env.assembler.CreateNote(context.Background(), testUserID, CreateNoteInput{})
	require.NoError(t, err)

	assert.Equal(t, "New Note", pin.Title)
	note := pin.Payload.(*models.NotePayload)
	assert.Empty(t, note.Content)
	assert.Empty(t, note.Summary)
	// No content means nothing to analyze
	assert.Equal(t, 0, env.enricher.noteCalls)
}

func TestCreateNote_DefaultTitle(t *testing.T) {
	env := newAssemblerEnv(t)

	pin, err := env.assembler.CreateNote(context.Background(), testUserID, CreateNoteInput{
		Content: "untitled thoughts",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Note", pin.Title)
}
