package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pindrop/pindrop/common/enrich"
	"github.com/pindrop/pindrop/common/logger"
)

// Cache stores enrichment results keyed by content hash. Optional; a nil
// cache disables it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error
}

// analysisCache memoizes enrichment calls so identical content is analyzed
// only once across pins.
type analysisCache struct {
	enricher Enricher
	cache    Cache
	ttl      time.Duration
	log      *logger.Logger
}

func newAnalysisCache(enricher Enricher, cache Cache, ttl time.Duration, log *logger.Logger) *analysisCache {
	return &analysisCache{
		enricher: enricher,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

func (a *analysisCache) Webpage(ctx context.Context, text string) (*enrich.WebpageAnalysis, error) {
	key := "enrich:webpage:" + contentHash(text)

	if cached, ok := a.lookup(ctx, key); ok {
		var analysis enrich.WebpageAnalysis
		if json.Unmarshal([]byte(cached), &analysis) == nil {
			return &analysis, nil
		}
	}

	analysis, err := a.enricher.AnalyzeWebpage(ctx, text)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, analysis)
	return analysis, nil
}

func (a *analysisCache) Note(ctx context.Context, text string) (*enrich.NoteAnalysis, error) {
	key := "enrich:note:" + contentHash(text)

	if cached, ok := a.lookup(ctx, key); ok {
		var analysis enrich.NoteAnalysis
		if json.Unmarshal([]byte(cached), &analysis) == nil {
			return &analysis, nil
		}
	}

	analysis, err := a.enricher.AnalyzeNote(ctx, text)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, analysis)
	return analysis, nil
}

func (a *analysisCache) lookup(ctx context.Context, key string) (string, bool) {
	if a.cache == nil {
		return "", false
	}
	cached, err := a.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return cached, true
}

func (a *analysisCache) store(ctx context.Context, key string, analysis any) {
	if a.cache == nil {
		return
	}
	encoded, err := json.Marshal(analysis)
	if err != nil {
		return
	}
	if err := a.cache.SetWithExpiry(ctx, key, string(encoded), a.ttl); err != nil {
		a.log.Debug("failed to cache analysis", "key", key, "error", err)
	}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
