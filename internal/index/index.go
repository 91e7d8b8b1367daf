// Package index holds the in-memory retrieval index. The index is never
// persisted: it is rebuilt wholesale from the record store at startup and
// after mutations, and published as an immutable snapshot so searches are
// lock-free and never observe a half-built index.
package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/scrypster/praxis/internal/config"
	"github.com/scrypster/praxis/internal/llm"
	"github.com/scrypster/praxis/internal/similarity"
	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/pkg/types"
)

// ErrNotReady indicates no snapshot has been built yet.
var ErrNotReady = errors.New("retrieval index not built")

// Index answers similarity searches over an immutable snapshot of the
// record store. Rebuild swaps in a fresh snapshot atomically; concurrent
// searches keep using the snapshot they started with.
type Index struct {
	store    storage.PracticeStore
	embedder llm.EmbeddingGenerator
	cfg      config.RetrievalConfig

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	model   string
	entries []entry
	builtAt time.Time
}

type entry struct {
	practice types.Practice
	vector   []float64
}

// Result is a practice matched by a search, with its similarity score.
type Result struct {
	Practice types.Practice
	Score    float64
}

// SearchOptions narrows a search before ranking.
type SearchOptions struct {
	// Category restricts results to one category when non-nil.
	Category *types.Category

	// ContentType restricts results to code or manual entries when
	// non-nil.
	ContentType *types.ContentType

	// RequireDiagram keeps only entries with a generated SVG diagram.
	RequireDiagram bool

	// RequireImage keeps only entries with an attached image.
	RequireImage bool

	// MinScore drops results scoring below it. Zero means no bound.
	MinScore float64

	// TopK caps the number of results. Zero means the configured default.
	TopK int
}

// New creates an empty index. Call Rebuild before searching.
func New(store storage.PracticeStore, embedder llm.EmbeddingGenerator, cfg config.RetrievalConfig) *Index {
	return &Index{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Rebuild loads every practice from the store, embeds them, and publishes
// the result as the new snapshot. Records that fail to embed are skipped
// and logged; only a wholesale embedding outage fails the rebuild.
func (ix *Index) Rebuild(ctx context.Context) error {
	practices, err := ix.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("index: failed to load records: %w", err)
	}

	snap := &snapshot{
		model:   ix.embedder.GetModel(),
		builtAt: time.Now(),
	}

	if len(practices) > 0 {
		texts := make([]string, len(practices))
		for i := range practices {
			texts[i] = embeddingText(&practices[i])
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			// Batch failed; retry one record at a time so a single bad
			// record cannot take down the whole index.
			vectors, err = ix.embedEach(ctx, practices, texts)
			if err != nil {
				return err
			}
		}

		for i := range practices {
			if vectors[i] == nil {
				continue
			}
			snap.entries = append(snap.entries, entry{
				practice: practices[i],
				vector:   vectors[i],
			})
		}
	}

	ix.snap.Store(snap)
	log.Printf("index: rebuilt with %d of %d records (model %s)",
		len(snap.entries), len(practices), snap.model)
	return nil
}

func (ix *Index) embedEach(ctx context.Context, practices []types.Practice, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(practices))
	embedded := 0
	for i := range texts {
		v, err := ix.embedder.Embed(ctx, texts[i])
		if err != nil {
			log.Printf("index: skipping record %s: %v", practices[i].ID, err)
			continue
		}
		vectors[i] = v
		embedded++
	}
	if embedded == 0 {
		return nil, fmt.Errorf("index: %w: no records could be embedded",
			llm.ErrEmbeddingUnavailable)
	}
	return vectors, nil
}

// Search embeds the query and returns the highest-scoring practices that
// pass the option filters, in descending score order.
func (ix *Index) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	if ix.snap.Load() == nil {
		return nil, ErrNotReady
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return ix.SearchVector(queryVec, opts)
}

// SearchVector searches with an already-embedded query vector. Callers
// that embed once and reuse the vector for cache lookup go through here.
func (ix *Index) SearchVector(queryVec []float64, opts SearchOptions) ([]Result, error) {
	snap := ix.snap.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	if len(snap.entries) == 0 {
		return nil, nil
	}

	if opts.TopK <= 0 {
		opts.TopK = ix.cfg.TopK
	}

	// Filter before ranking so the similarity pass only scores candidates
	// that can actually be returned.
	byID := make(map[string]*entry)
	var candidates []similarity.Candidate
	for i := range snap.entries {
		e := &snap.entries[i]
		if opts.Category != nil && e.practice.Category != *opts.Category {
			continue
		}
		if opts.ContentType != nil && e.practice.ContentType != *opts.ContentType {
			continue
		}
		if opts.RequireDiagram && !e.practice.HasDiagram() {
			continue
		}
		if opts.RequireImage && !e.practice.HasImage() {
			continue
		}
		byID[e.practice.ID] = e
		candidates = append(candidates, similarity.Candidate{
			ID:     e.practice.ID,
			Vector: e.vector,
		})
	}

	ranked := similarity.Top(similarity.Rank(queryVec, candidates), opts.TopK)

	var results []Result
	for _, r := range ranked {
		if r.Score < opts.MinScore {
			continue
		}
		results = append(results, Result{
			Practice: byID[r.ID].practice,
			Score:    r.Score,
		})
	}
	return results, nil
}

// SearchDiagrams returns practices carrying a generated diagram, bounded
// by the visual relevance threshold.
func (ix *Index) SearchDiagrams(ctx context.Context, query string, topK int) ([]Result, error) {
	return ix.Search(ctx, query, SearchOptions{
		RequireDiagram: true,
		MinScore:       ix.cfg.VisualThreshold,
		TopK:           topK,
	})
}

// SearchImages returns practices carrying an attached image, bounded by
// the visual relevance threshold.
func (ix *Index) SearchImages(ctx context.Context, query string, topK int) ([]Result, error) {
	return ix.Search(ctx, query, SearchOptions{
		RequireImage: true,
		MinScore:     ix.cfg.VisualThreshold,
		TopK:         topK,
	})
}

// Model returns the embedding model the current snapshot was built with,
// or empty if no snapshot exists.
func (ix *Index) Model() string {
	if snap := ix.snap.Load(); snap != nil {
		return snap.model
	}
	return ""
}

// Size returns the number of indexed records.
func (ix *Index) Size() int {
	if snap := ix.snap.Load(); snap != nil {
		return len(snap.entries)
	}
	return 0
}

// embeddingText is the canonical text embedded for a practice: title,
// description and tags, matching what searches are phrased against.
func embeddingText(p *types.Practice) string {
	parts := []string{p.Title, p.Description}
	if len(p.Tags) > 0 {
		parts = append(parts, strings.Join(p.Tags, " "))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
