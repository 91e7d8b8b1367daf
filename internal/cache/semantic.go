// Package cache holds the two answer caches: a persistent semantic cache
// keyed by question embeddings, and an in-process session cache keyed by
// exact question text. Both are accelerators; every answer they serve was
// produced by the full grounded pipeline at some point.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/scrypster/praxis/internal/similarity"
	"github.com/scrypster/praxis/pkg/types"
)

// ErrCachePersist indicates the cache file could not be written. The
// in-memory cache stays usable; the entry is lost at process exit.
var ErrCachePersist = errors.New("answer cache persist failed")

const (
	// dedupThreshold is the similarity above which a recorded question is
	// treated as a rephrasing of an existing entry and updates it in
	// place instead of appending.
	dedupThreshold = 0.98

	lockRetryDelay = 50 * time.Millisecond
)

// Entry is one cached question/answer pair.
type Entry struct {
	Query     string          `json:"query"`
	Embedding []float64       `json:"embedding"`
	Model     string          `json:"embedding_model"`
	Answer    string          `json:"answer"`
	Category  *types.Category `json:"category,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Hit is a successful semantic cache lookup.
type Hit struct {
	// Query is the originally cached question.
	Query string

	// Answer is the cached answer text.
	Answer string

	// Score is the similarity between the asked and cached questions.
	Score float64
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int
	Model   string
	Path    string
}

// SemanticCache is the persistent answer cache. Entries live in memory
// for lookups; every mutation rewrites answer_cache.json under an
// exclusive file lock so concurrent sessions do not lose writes.
type SemanticCache struct {
	path      string
	lock      *flock.Flock
	model     string
	threshold float64

	mu      sync.RWMutex
	entries []Entry
}

// Open loads the answer cache from dataPath. Entries recorded under a
// different embedding model are dropped: their vectors are not comparable
// to queries embedded with the current model. A missing or unreadable
// cache file starts empty; the cache never blocks startup.
func Open(dataPath, model string, threshold float64) (*SemanticCache, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("cache: failed to create data directory: %w", err)
	}

	path := filepath.Join(dataPath, "answer_cache.json")
	c := &SemanticCache{
		path:      path,
		lock:      flock.New(path + ".lock"),
		model:     model,
		threshold: threshold,
	}

	entries, err := readEntries(path)
	if err != nil {
		log.Printf("cache: starting empty, could not load %s: %v", path, err)
		return c, nil
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.Model == model {
			kept = append(kept, e)
		}
	}
	if dropped := len(entries) - len(kept); dropped > 0 {
		log.Printf("cache: dropped %d entries from a different embedding model", dropped)
	}
	c.entries = kept
	return c, nil
}

// Lookup returns the best cached answer for the question vector, or false
// when nothing in the same category scores at or above the threshold.
// Category matching is exact: nil only matches nil. Ties keep the
// earliest appended entry.
func (c *SemanticCache) Lookup(queryVec []float64, category *types.Category) (*Hit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Entry
	bestScore := 0.0
	for i := range c.entries {
		e := &c.entries[i]
		if !sameCategory(e.Category, category) {
			continue
		}
		score := similarity.Cosine(queryVec, e.Embedding)
		if score > bestScore {
			best = e
			bestScore = score
		}
	}

	if best == nil || bestScore < c.threshold {
		return nil, false
	}
	return &Hit{Query: best.Query, Answer: best.Answer, Score: bestScore}, true
}

// Record stores a question/answer pair. A question nearly identical to an
// existing entry in the same category updates that entry in place rather
// than appending a duplicate. A persist failure is returned as
// ErrCachePersist but the in-memory cache keeps the entry.
func (c *SemanticCache) Record(ctx context.Context, query string, queryVec []float64, answer string, category *types.Category) error {
	entry := Entry{
		Query:     query,
		Embedding: queryVec,
		Model:     c.model,
		Answer:    answer,
		Category:  category,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.entries = upsert(c.entries, entry)
	c.mu.Unlock()

	if err := c.persist(ctx, entry); err != nil {
		log.Printf("cache: %v", err)
		return err
	}
	return nil
}

// persist merges the entry into the on-disk cache under an exclusive
// lock, re-reading the file first so writes from other processes are not
// lost.
func (c *SemanticCache) persist(ctx context.Context, entry Entry) error {
	ok, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		return fmt.Errorf("%w: could not acquire lock: %v", ErrCachePersist, err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			log.Printf("cache: failed to release lock: %v", err)
		}
	}()

	onDisk, err := readEntries(c.path)
	if err != nil {
		// Unreadable file gets rewritten from the new entry alone rather
		// than failing every future persist.
		log.Printf("cache: rewriting unreadable cache file %s: %v", c.path, err)
		onDisk = nil
	}

	kept := onDisk[:0]
	for _, e := range onDisk {
		if e.Model == c.model {
			kept = append(kept, e)
		}
	}
	merged := upsert(kept, entry)

	if err := writeEntries(c.path, merged); err != nil {
		return fmt.Errorf("%w: %v", ErrCachePersist, err)
	}

	c.mu.Lock()
	c.entries = merged
	c.mu.Unlock()
	return nil
}

// upsert appends the entry, or replaces a near-identical question in the
// same category.
func upsert(entries []Entry, entry Entry) []Entry {
	for i := range entries {
		if !sameCategory(entries[i].Category, entry.Category) {
			continue
		}
		if similarity.Cosine(entry.Embedding, entries[i].Embedding) >= dedupThreshold {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

// GetStats reports the current cache contents.
func (c *SemanticCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries: len(c.entries),
		Model:   c.model,
		Path:    c.path,
	}
}

// Clear empties the cache in memory and on disk.
func (c *SemanticCache) Clear(ctx context.Context) error {
	ok, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		return fmt.Errorf("%w: could not acquire lock: %v", ErrCachePersist, err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			log.Printf("cache: failed to release lock: %v", err)
		}
	}()

	if err := writeEntries(c.path, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrCachePersist, err)
	}

	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
	log.Printf("cache: cleared %s", c.path)
	return nil
}

func sameCategory(a, b *types.Category) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func readEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeEntries(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
