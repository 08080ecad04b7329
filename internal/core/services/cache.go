package services

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/logger"
)

var cacheLog = logger.For("cache")

// fingerprintVersion is mixed into every key so a format change never
// collides with keys persisted by an older build.
const fingerprintVersion = "lexiq/v2"

// GenerateKey derives the fingerprint of content analysed with the given
// parameters and no glossary.
func GenerateKey(content, language, subject string, flags domain.CheckFlags) domain.Fingerprint {
	return RequestKey(domain.AnalysisRequest{Text: content, Language: language, Domain: subject, Flags: flags})
}

// RequestKey derives the fingerprint of req, glossary included. Fields are
// length-prefixed so no two distinct inputs share an encoding.
func RequestKey(req domain.AnalysisRequest) domain.Fingerprint {
	glossary := sha256.Sum256([]byte(req.Glossary))
	fields := []string{
		fingerprintVersion,
		req.Text,
		req.Language,
		req.Domain,
		boolField(req.Flags.Grammar),
		boolField(req.Flags.Spelling),
		hex.EncodeToString(glossary[:]),
	}

	h := sha256.New()
	var lenBuf [8]byte
	for _, field := range fields {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}
	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// AnalysisCache maps fingerprints to analysis results.
//
// An exact-key hit after Set returns the stored result until the next Set for
// that key or Clear. With WithMaxEntries the memory layer evicts the least
// recently used entry; a configured ResultStore still serves evicted keys.
type AnalysisCache struct {
	mu         sync.Mutex
	entries    map[domain.Fingerprint]*list.Element
	order      *list.List
	maxEntries int
	store      driven.ResultStore
	metrics    driven.MetricsRecorder
	now        func() time.Time
}

// CacheOption configures an AnalysisCache.
type CacheOption func(*AnalysisCache)

// WithMaxEntries bounds the memory layer. 0 means unbounded.
func WithMaxEntries(n int) CacheOption {
	return func(c *AnalysisCache) {
		if n >= 0 {
			c.maxEntries = n
		}
	}
}

// WithResultStore sets the persistent layer behind the memory cache.
func WithResultStore(store driven.ResultStore) CacheOption {
	return func(c *AnalysisCache) {
		c.store = store
	}
}

// WithCacheMetrics sets the recorder for hit and miss counts.
func WithCacheMetrics(m driven.MetricsRecorder) CacheOption {
	return func(c *AnalysisCache) {
		c.metrics = m
	}
}

// NewAnalysisCache creates an empty cache.
func NewAnalysisCache(opts ...CacheOption) *AnalysisCache {
	c := &AnalysisCache{
		entries: make(map[domain.Fingerprint]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateKey derives the fingerprint for a cache lookup.
func (c *AnalysisCache) GenerateKey(content, language, subject string, flags domain.CheckFlags) domain.Fingerprint {
	return GenerateKey(content, language, subject, flags)
}

// KeyFor derives the fingerprint for a request, glossary included.
func (c *AnalysisCache) KeyFor(req domain.AnalysisRequest) domain.Fingerprint {
	return RequestKey(req)
}

// Get returns the result stored for key.
// The memory layer is consulted first, then the ResultStore if any.
func (c *AnalysisCache) Get(ctx context.Context, key domain.Fingerprint) (domain.AnalysisResult, bool) {
	if entry, ok := c.getMemory(key); ok {
		c.recordLookup(true)
		cacheLog.Debug("hit %s", key.Short())
		return entry.Result.Clone(), true
	}

	if c.store != nil {
		entry, err := c.store.Get(ctx, key)
		switch {
		case err == nil && entry.Key == key:
			c.putMemory(*entry)
			c.recordLookup(true)
			cacheLog.Debug("store hit %s", key.Short())
			return entry.Result.Clone(), true
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			cacheLog.Warn("store get %s: %v", key.Short(), err)
		}
	}

	c.recordLookup(false)
	cacheLog.Debug("miss %s", key.Short())
	return domain.AnalysisResult{}, false
}

// Set stores result for key, overwriting any previous entry.
// ResultStore failures are logged and otherwise ignored.
func (c *AnalysisCache) Set(ctx context.Context, key domain.Fingerprint, result domain.AnalysisResult, sourceContent string) {
	entry := domain.CacheEntry{
		Key:           key,
		Result:        result.Clone(),
		SourceContent: sourceContent,
		CreatedAt:     c.now(),
	}
	c.putMemory(entry)

	if c.store != nil {
		if err := c.store.Save(ctx, entry); err != nil {
			cacheLog.Warn("store save %s: %v", key.Short(), err)
		}
	}
}

// Clear empties the memory layer and the ResultStore.
func (c *AnalysisCache) Clear(ctx context.Context) {
	c.mu.Lock()
	n := c.order.Len()
	c.entries = make(map[domain.Fingerprint]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			cacheLog.Warn("store clear: %v", err)
		}
	}
	cacheLog.Info("cleared %d entries", n)
}

// Len returns the number of entries in the memory layer.
func (c *AnalysisCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Entry returns the stored entry for key from the memory layer.
func (c *AnalysisCache) Entry(key domain.Fingerprint) (domain.CacheEntry, bool) {
	entry, ok := c.getMemory(key)
	if !ok {
		return domain.CacheEntry{}, false
	}
	entry.Result = entry.Result.Clone()
	return entry, true
}

func (c *AnalysisCache) getMemory(key domain.Fingerprint) (domain.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return domain.CacheEntry{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(domain.CacheEntry), true
}

func (c *AnalysisCache) putMemory(entry domain.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[entry.Key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}
	c.entries[entry.Key] = c.order.PushFront(entry)

	if c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(domain.CacheEntry).Key)
	}
}

func (c *AnalysisCache) recordLookup(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(hit)
	}
}
