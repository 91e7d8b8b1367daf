// Package engine orchestrates the answer pipeline: session cache, then
// semantic cache, then embedding retrieval, then grounded generation.
// Caches only ever serve answers the full pipeline produced earlier, so a
// cache outage degrades latency, never correctness.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/scrypster/praxis/internal/cache"
	"github.com/scrypster/praxis/internal/config"
	"github.com/scrypster/praxis/internal/index"
	"github.com/scrypster/praxis/internal/llm"
	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/pkg/types"
)

// ErrNoRelevantRecords indicates retrieval found nothing and the engine is
// configured to refuse ungrounded answers.
var ErrNoRelevantRecords = errors.New("no relevant records for question")

// AnswerSource identifies which pipeline stage produced an answer.
type AnswerSource string

const (
	// SourceSession means the exact question was answered earlier in this
	// process.
	SourceSession AnswerSource = "session"

	// SourceCache means a semantically similar question was answered in
	// an earlier session.
	SourceCache AnswerSource = "cache"

	// SourceGenerated means the answer was freshly generated.
	SourceGenerated AnswerSource = "generated"
)

// Answer is the result of asking a question.
type Answer struct {
	// Text is the answer itself.
	Text string

	// Source identifies the stage that produced it.
	Source AnswerSource

	// Score is the cache similarity for SourceCache answers, zero
	// otherwise.
	Score float64

	// CachedQuery is the originally cached question for SourceCache
	// answers.
	CachedQuery string

	// References are the records the answer was grounded on, empty for
	// cached or ungrounded answers.
	References []index.Result

	// Degraded reports that embedding was unavailable, so caching and
	// retrieval were skipped and the answer is ungrounded.
	Degraded bool
}

// AskOptions narrows a question.
type AskOptions struct {
	// Category restricts retrieval and cache matching to one category.
	Category *types.Category

	// TopK overrides the configured retrieval depth when positive.
	TopK int
}

// Engine wires the caches, index, store and model adapters together.
type Engine struct {
	store     storage.PracticeStore
	index     *index.Index
	session   *cache.SessionCache
	semantic  *cache.SemanticCache
	embedder  llm.EmbeddingGenerator
	generator llm.TextGenerator
	markup    llm.MarkupGenerator
	cfg       config.RetrievalConfig
}

// New creates an engine. The markup generator may be nil when visual
// generation is not configured.
func New(
	store storage.PracticeStore,
	ix *index.Index,
	session *cache.SessionCache,
	semantic *cache.SemanticCache,
	embedder llm.EmbeddingGenerator,
	generator llm.TextGenerator,
	markup llm.MarkupGenerator,
	cfg config.RetrievalConfig,
) *Engine {
	return &Engine{
		store:     store,
		index:     ix,
		session:   session,
		semantic:  semantic,
		embedder:  embedder,
		generator: generator,
		markup:    markup,
		cfg:       cfg,
	}
}

// Ask answers a question, consulting the session cache, the semantic
// cache and the retrieval index before generating. Only freshly generated
// answers are written back to the caches.
func (e *Engine) Ask(ctx context.Context, query string, opts AskOptions) (*Answer, error) {
	if answer, ok := e.session.Get(query, opts.Category); ok {
		log.Printf("engine: session cache hit for %q", query)
		return &Answer{Text: answer, Source: SourceSession}, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		// Embedding is an accelerator for the cache and a requirement for
		// retrieval; without it the pipeline degrades to ungrounded
		// generation instead of failing the question.
		log.Printf("engine: embedding unavailable, degrading to ungrounded answer: %v", err)
		return e.generate(ctx, query, nil, nil, opts.Category, true)
	}

	if hit, ok := e.semantic.Lookup(queryVec, opts.Category); ok {
		log.Printf("engine: answer cache hit (score %.3f) for %q", hit.Score, query)
		e.session.Put(query, opts.Category, hit.Answer)
		return &Answer{
			Text:        hit.Answer,
			Source:      SourceCache,
			Score:       hit.Score,
			CachedQuery: hit.Query,
		}, nil
	}

	references, err := e.index.SearchVector(queryVec, index.SearchOptions{
		Category: opts.Category,
		TopK:     opts.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: retrieval failed: %w", err)
	}
	if len(references) == 0 && e.cfg.RequireContext {
		return nil, ErrNoRelevantRecords
	}

	return e.generate(ctx, query, queryVec, references, opts.Category, false)
}

func (e *Engine) generate(ctx context.Context, query string, queryVec []float64, references []index.Result, category *types.Category, degraded bool) (*Answer, error) {
	contexts := make([]types.Practice, len(references))
	for i, r := range references {
		contexts[i] = r.Practice
	}

	text, err := e.generator.Complete(ctx, llm.AnswerPrompt(query, contexts))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	// Cache writes happen only after a successful generation; a failed
	// answer must never be served from cache later.
	if queryVec != nil {
		if err := e.semantic.Record(ctx, query, queryVec, text, category); err != nil {
			log.Printf("engine: answer not persisted to cache: %v", err)
		}
	}
	e.session.Put(query, category, text)

	return &Answer{
		Text:       text,
		Source:     SourceGenerated,
		References: references,
		Degraded:   degraded,
	}, nil
}

// Search runs a plain similarity search over the index with the full
// filter set (category, content type, diagram/image flags).
func (e *Engine) Search(ctx context.Context, query string, opts index.SearchOptions) ([]index.Result, error) {
	return e.index.Search(ctx, query, opts)
}

// SearchDiagrams finds records carrying a generated diagram relevant to
// the query.
func (e *Engine) SearchDiagrams(ctx context.Context, query string, topK int) ([]index.Result, error) {
	return e.index.SearchDiagrams(ctx, query, topK)
}

// SearchImages finds records carrying an attached image relevant to the
// query.
func (e *Engine) SearchImages(ctx context.Context, query string, topK int) ([]index.Result, error) {
	return e.index.SearchImages(ctx, query, topK)
}

// Rebuild recomputes the retrieval index from the record store.
func (e *Engine) Rebuild(ctx context.Context) error {
	return e.index.Rebuild(ctx)
}

// CacheStats reports the persistent answer cache contents.
func (e *Engine) CacheStats() cache.Stats {
	return e.semantic.GetStats()
}

// ClearCache empties the persistent answer cache.
func (e *Engine) ClearCache(ctx context.Context) error {
	return e.semantic.Clear(ctx)
}
