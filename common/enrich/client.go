// Package enrich calls an OpenAI-compatible chat completions endpoint to
// derive summaries, classifications, descriptions, and tags for pins.
// Failures are surfaced to the caller; the pipeline decides whether to
// degrade or abort. No retries happen here.
package enrich

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pindrop/pindrop/common/logger"
)

// maxResponseSize limits the response body to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

// maxInputChars caps the text sent for analysis
const maxInputChars = 12000

// WebpageAnalysis is the enrichment result for a webpage pin
type WebpageAnalysis struct {
	Summary        string   `json:"summary"`
	Classification string   `json:"classification"`
	Tags           []string `json:"tags"`
}

// ImageAnalysis is the enrichment result for an image pin
type ImageAnalysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// NoteAnalysis is the enrichment result for a note pin
type NoteAnalysis struct {
	Summary string   `json:"summary"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
}

// Client talks to an OpenAI-compatible chat completions API
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates an enrichment client
func New(endpoint, apiKey, model string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// AnalyzeWebpage summarizes, classifies, and tags webpage text
func (c *Client) AnalyzeWebpage(ctx context.Context, text string) (*WebpageAnalysis, error) {
	content, err := c.complete(ctx, []message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: webpageAnalysisPrompt + " " + truncate(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze webpage: %w", err)
	}

	var analysis WebpageAnalysis
	if err := decodeJSON(content, &analysis); err != nil {
		return nil, fmt.Errorf("parse webpage analysis: %w", err)
	}
	return &analysis, nil
}

// AnalyzeImage describes and tags image bytes
func (c *Client) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*ImageAnalysis, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	content, err := c.complete(ctx, []message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: []part{
			{Type: "text", Text: imageAnalysisPrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}

	var analysis ImageAnalysis
	if err := decodeJSON(content, &analysis); err != nil {
		return nil, fmt.Errorf("parse image analysis: %w", err)
	}
	return &analysis, nil
}

// AnalyzeNote summarizes, titles, and tags note text
func (c *Client) AnalyzeNote(ctx context.Context, text string) (*NoteAnalysis, error) {
	content, err := c.complete(ctx, []message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: noteAnalysisPrompt + " " + truncate(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze note: %w", err)
	}

	var analysis NoteAnalysis
	if err := decodeJSON(content, &analysis); err != nil {
		return nil, fmt.Errorf("parse note analysis: %w", err)
	}
	return &analysis, nil
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, messages []message) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("enrichment endpoint not configured")
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed with status %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	c.log.Debug("completion finished",
		"model", c.model,
		"duration", time.Since(start),
	)

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// decodeJSON unmarshals model output, tolerating markdown code fences the
// model sometimes wraps around JSON despite instructions.
func decodeJSON(content string, v any) error {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return json.Unmarshal([]byte(content), v)
}

func truncate(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	// Back up to a rune boundary so the cut never produces invalid UTF-8
	cut := maxInputChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
