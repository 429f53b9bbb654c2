package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pindrop/pindrop/common/logger"
)

func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(endpoint string) *Client {
	return New(endpoint, "test-key", "test-model", 5*time.Second, logger.New("error", "text"))
}

func TestAnalyzeWebpage(t *testing.T) {
	srv := completionServer(t, `{"summary":"A piece about Go.","classification":"article","tags":["go","concurrency"]}`, http.StatusOK)
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeWebpage(context.Background(), "some page text")
	require.NoError(t, err)

	assert.Equal(t, "A piece about Go.", analysis.Summary)
	assert.Equal(t, "article", analysis.Classification)
	assert.Equal(t, []string{"go", "concurrency"}, analysis.Tags)
}

func TestAnalyzeWebpage_ToleratesCodeFences(t *testing.T) {
	fenced := "```json\n{\"summary\":\"s\",\"classification\":\"c\",\"tags\":[]}\n```"
	srv := completionServer(t, fenced, http.StatusOK)
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeWebpage(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "s", analysis.Summary)
}

func TestAnalyzeNote(t *testing.T) {
	srv := completionServer(t, `{"summary":"Groceries to buy.","title":"Shopping List","tags":["errands"]}`, http.StatusOK)
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeNote(context.Background(), "milk, eggs, bread")
	require.NoError(t, err)

	assert.Equal(t, "Shopping List", analysis.Title)
	assert.Equal(t, "Groceries to buy.", analysis.Summary)
}

func TestAnalyzeImage(t *testing.T) {
	srv := completionServer(t, `{"description":"A red square.","tags":["abstract"]}`, http.StatusOK)
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeImage(context.Background(), []byte{0x89, 0x50}, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "A red square.", analysis.Description)
	assert.Equal(t, []string{"abstract"}, analysis.Tags)
}

func TestAnalyze_ServerError(t *testing.T) {
	srv := completionServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnalyzeWebpage(context.Background(), "text")
	assert.Error(t, err)
}

func TestAnalyze_NoEndpointConfigured(t *testing.T) {
	_, err := newTestClient("").AnalyzeNote(context.Background(), "text")
	assert.Error(t, err)
}

func TestAnalyze_MalformedModelOutput(t *testing.T) {
	srv := completionServer(t, "Sure! Here is your analysis.", http.StatusOK)
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnalyzeWebpage(context.Background(), "text")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", maxInputChars+500)
	assert.Len(t, truncate(long), maxInputChars)
	assert.Equal(t, "short", truncate("short"))
}

func TestTruncate_CutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxInputChars)

	cut := truncate(long)

	assert.True(t, utf8.ValidString(cut))
	assert.LessOrEqual(t, len(cut), maxInputChars)
}
