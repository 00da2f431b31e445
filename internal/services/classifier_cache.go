package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"lifeos/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// CachingClassifier memoizes classification and sentiment calls. Inference
// is the expensive path in this pipeline (model-backed implementations make
// network calls per entry), and the same text is scored again whenever a
// rollup or chapter regeneration re-reads history.
type CachingClassifier struct {
	inner Classifier
	cache *gocache.Cache
}

// NewCachingClassifier wraps a classifier with a 30-minute TTL cache.
func NewCachingClassifier(inner Classifier) *CachingClassifier {
	return &CachingClassifier{
		inner: inner,
		cache: gocache.New(30*time.Minute, 10*time.Minute),
	}
}

func cacheKey(kind, text string) string {
	sum := sha1.Sum([]byte(text))
	return kind + ":" + hex.EncodeToString(sum[:])
}

func (c *CachingClassifier) Classify(ctx context.Context, text string) ([]models.ClassificationLink, error) {
	key := cacheKey("classify", text)
	if v, ok := c.cache.Get(key); ok {
		return v.([]models.ClassificationLink), nil
	}
	links, err := c.inner.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, links, gocache.DefaultExpiration)
	return links, nil
}

func (c *CachingClassifier) Sentiment(ctx context.Context, text string) (float64, error) {
	key := cacheKey("sentiment", text)
	if v, ok := c.cache.Get(key); ok {
		return v.(float64), nil
	}
	score, err := c.inner.Sentiment(ctx, text)
	if err != nil {
		return 0, err
	}
	c.cache.Set(key, score, gocache.DefaultExpiration)
	return score, nil
}

// DetectCommitments is not cached: it runs once per new entry.
func (c *CachingClassifier) DetectCommitments(ctx context.Context, text string) (float64, []string, error) {
	return c.inner.DetectCommitments(ctx, text)
}

// DetectAmounts is not cached: it runs once per new entry.
func (c *CachingClassifier) DetectAmounts(ctx context.Context, text string) ([]models.Transaction, error) {
	return c.inner.DetectAmounts(ctx, text)
}

// Summarize is not cached: chapter membership changes between calls.
func (c *CachingClassifier) Summarize(ctx context.Context, entries []string) (string, error) {
	return c.inner.Summarize(ctx, entries)
}

// Coherence is not cached for the same reason as Summarize.
func (c *CachingClassifier) Coherence(ctx context.Context, entries []string) (float64, error) {
	return c.inner.Coherence(ctx, entries)
}
