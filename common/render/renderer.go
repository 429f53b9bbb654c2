// Package render drives a headless Chrome instance to capture a page's HTML
// together with a full-page screenshot and a viewport screenshot.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pindrop/pindrop/common/logger"
)

// Result contains the rendered page and its screenshots as PNG bytes
type Result struct {
	HTML           string
	FullScreenshot []byte
	Viewport       []byte
}

// Renderer captures pages with a headless browser.
// Each Render call runs its own browser context so a hung page cannot
// poison later requests.
type Renderer struct {
	timeout time.Duration
	width   int
	height  int
	log     *logger.Logger
}

// New creates a renderer with the given timeout and viewport
func New(timeout time.Duration, width, height int, log *logger.Logger) *Renderer {
	return &Renderer{
		timeout: timeout,
		width:   width,
		height:  height,
		log:     log,
	}
}

// Render navigates to the URL and captures HTML plus both screenshots.
// The call is bounded by the configured timeout; a hung navigation returns
// a context error instead of blocking the request forever.
func (r *Renderer) Render(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(r.width, r.height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()

	var html string
	var full, viewport []byte

	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(r.width), int64(r.height)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Quality 100 yields PNG output, which the asset pipeline
		// re-encodes to webp.
		chromedp.FullScreenshot(&full, 100),
		chromedp.CaptureScreenshot(&viewport),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	r.log.Debug("page rendered",
		"url", url,
		"html_bytes", len(html),
		"duration", time.Since(start),
	)

	return &Result{
		HTML:           html,
		FullScreenshot: full,
		Viewport:       viewport,
	}, nil
}
