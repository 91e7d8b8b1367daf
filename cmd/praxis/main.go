// Command praxis answers questions over a personal knowledge base of
// implementation practices, using embedding retrieval with a two-tier
// answer cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/scrypster/praxis/internal/cache"
	"github.com/scrypster/praxis/internal/config"
	"github.com/scrypster/praxis/internal/engine"
	"github.com/scrypster/praxis/internal/index"
	"github.com/scrypster/praxis/internal/llm"
	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/internal/storage/jsonfile"
	"github.com/scrypster/praxis/internal/storage/sqlite"
	"github.com/scrypster/praxis/pkg/types"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: praxis <command> [flags] [args]

Commands:
  ask <question>        Answer a question grounded on stored practices
  search <query>        Similarity search over stored practices
  diagrams <query>      Find practices with generated diagrams
  images <query>        Find practices with attached images
  generate-diagram <id> Generate and store an SVG diagram for a practice
  generate-html <id>    Generate and store an HTML preview for a practice
  rebuild               Rebuild the retrieval index from the record store
  cache-stats           Show answer cache statistics
  cache-clear           Empty the persistent answer cache

Configuration comes from PRAXIS_* environment variables.
`)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var exitErr error
	switch args[0] {
	case "ask":
		exitErr = runAsk(ctx, cfg, args[1:])
	case "search":
		exitErr = runSearch(ctx, cfg, args[1:])
	case "diagrams":
		exitErr = runVisualSearch(ctx, cfg, args[1:], true)
	case "images":
		exitErr = runVisualSearch(ctx, cfg, args[1:], false)
	case "generate-diagram":
		exitErr = runGenerateMarkup(ctx, cfg, args[1:], true)
	case "generate-html":
		exitErr = runGenerateMarkup(ctx, cfg, args[1:], false)
	case "rebuild":
		exitErr = runRebuild(ctx, cfg)
	case "cache-stats":
		exitErr = runCacheStats(cfg)
	case "cache-clear":
		exitErr = runCacheClear(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if exitErr != nil {
		log.Fatalf("%v", exitErr)
	}
}

// openStore selects the configured record-store engine.
func openStore(cfg *config.Config) (storage.PracticeStore, error) {
	switch cfg.Storage.StorageEngine {
	case "jsonfile", "":
		return jsonfile.Open(cfg.Storage.DataPath)
	case "sqlite":
		return sqlite.Open(cfg.Storage.DataPath)
	default:
		return nil, fmt.Errorf("unknown storage engine: %s", cfg.Storage.StorageEngine)
	}
}

// buildEngine wires the full pipeline: store, index, caches, providers.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Printf("praxis: failed to close store: %v", err)
		}
	}

	embedder, err := llm.NewEmbeddingGenerator(cfg.LLM)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	generator, err := llm.NewTextGenerator(cfg.LLM)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	markup, err := llm.NewMarkupGenerator(cfg.LLM)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	ix := index.New(store, embedder, cfg.Retrieval)
	if err := ix.Rebuild(ctx); err != nil {
		closeStore()
		return nil, nil, err
	}

	session, err := cache.NewSession(0)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	semantic, err := cache.Open(cfg.Storage.DataPath, embedder.GetModel(), cfg.Retrieval.CacheThreshold)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	// Keep the index fresh for the life of the process when another
	// session mutates the shared store.
	watcher := index.NewStoreWatcher(store.Path(), ix)
	if err := watcher.Start(ctx); err != nil {
		closeStore()
		return nil, nil, err
	}

	e := engine.New(store, ix, session, semantic, embedder, generator, markup, cfg.Retrieval)
	cleanup := func() {
		watcher.Stop()
		closeStore()
	}
	return e, cleanup, nil
}

func runAsk(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	categoryFlag := fs.String("category", "", "Restrict to one category (html_css, javascript, python, gas, vba, other)")
	topK := fs.Int("top-k", 0, "Number of grounding records to retrieve (0 = configured default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return fmt.Errorf("ask: a question is required")
	}

	opts := engine.AskOptions{TopK: *topK}
	if *categoryFlag != "" {
		category := types.Category(*categoryFlag)
		if !category.Valid() {
			return fmt.Errorf("ask: invalid category: %s", *categoryFlag)
		}
		opts.Category = &category
	}

	e, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	answer, err := e.Ask(ctx, question, opts)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	fmt.Println()
	switch answer.Source {
	case engine.SourceSession:
		fmt.Println("[session cache]")
	case engine.SourceCache:
		fmt.Printf("[answer cache, %.0f%% match with %q]\n", answer.Score*100, answer.CachedQuery)
	case engine.SourceGenerated:
		if answer.Degraded {
			fmt.Println("[generated without grounding: embedding unavailable]")
		} else if len(answer.References) == 0 {
			fmt.Println("[generated without grounding: no matching records]")
		} else {
			fmt.Println("[generated from:]")
			for _, r := range answer.References {
				fmt.Printf("  %.2f  %s\n", r.Score, r.Practice.Title)
			}
		}
	}
	return nil
}

func runSearch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	categoryFlag := fs.String("category", "", "Restrict to one category")
	typeFlag := fs.String("type", "", "Restrict to a content type (code, manual)")
	topK := fs.Int("top-k", 0, "Number of results (0 = configured default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("search: a query is required")
	}

	opts := index.SearchOptions{TopK: *topK}
	if *categoryFlag != "" {
		category := types.Category(*categoryFlag)
		if !category.Valid() {
			return fmt.Errorf("search: invalid category: %s", *categoryFlag)
		}
		opts.Category = &category
	}
	if *typeFlag != "" {
		contentType := types.ContentType(*typeFlag)
		if !contentType.Valid() {
			return fmt.Errorf("search: invalid content type: %s", *typeFlag)
		}
		opts.ContentType = &contentType
	}

	e, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := e.Search(ctx, query, opts)
	if err != nil {
		return err
	}
	printResults(results)
	return nil
}

func runVisualSearch(ctx context.Context, cfg *config.Config, args []string, diagrams bool) error {
	name := "images"
	if diagrams {
		name = "diagrams"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	topK := fs.Int("top-k", 0, "Number of results (0 = configured default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("%s: a query is required", name)
	}

	e, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var results []index.Result
	if diagrams {
		results, err = e.SearchDiagrams(ctx, query, *topK)
	} else {
		results, err = e.SearchImages(ctx, query, *topK)
	}
	if err != nil {
		return err
	}
	printResults(results)
	return nil
}

func printResults(results []index.Result) {
	if len(results) == 0 {
		fmt.Println("No matching practices.")
		return
	}
	for _, r := range results {
		fmt.Printf("%.2f  [%s] %s\n", r.Score, r.Practice.Category.DisplayName(), r.Practice.Title)
		if r.Practice.Description != "" {
			fmt.Printf("      %s\n", r.Practice.Description)
		}
	}
}

func runGenerateMarkup(ctx context.Context, cfg *config.Config, args []string, diagram bool) error {
	name := "generate-html"
	if diagram {
		name = "generate-diagram"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%s: a practice ID is required", name)
	}
	id := fs.Arg(0)

	e, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var markup string
	if diagram {
		markup, err = e.GenerateDiagram(ctx, id)
	} else {
		markup, err = e.GeneratePreviewHTML(ctx, id)
	}
	if err != nil {
		return err
	}

	fmt.Println(markup)
	return nil
}

func runRebuild(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("praxis: failed to close store: %v", err)
		}
	}()

	embedder, err := llm.NewEmbeddingGenerator(cfg.LLM)
	if err != nil {
		return err
	}

	ix := index.New(store, embedder, cfg.Retrieval)
	if err := ix.Rebuild(ctx); err != nil {
		return err
	}
	fmt.Printf("Retrieval index rebuilt: %d records indexed.\n", ix.Size())
	return nil
}

func runCacheStats(cfg *config.Config) error {
	embedder, err := llm.NewEmbeddingGenerator(cfg.LLM)
	if err != nil {
		return err
	}
	semantic, err := cache.Open(cfg.Storage.DataPath, embedder.GetModel(), cfg.Retrieval.CacheThreshold)
	if err != nil {
		return err
	}

	stats := semantic.GetStats()
	fmt.Printf("Entries: %d\nModel:   %s\nFile:    %s\n", stats.Entries, stats.Model, stats.Path)
	return nil
}

func runCacheClear(ctx context.Context, cfg *config.Config) error {
	embedder, err := llm.NewEmbeddingGenerator(cfg.LLM)
	if err != nil {
		return err
	}
	semantic, err := cache.Open(cfg.Storage.DataPath, embedder.GetModel(), cfg.Retrieval.CacheThreshold)
	if err != nil {
		return err
	}

	if err := semantic.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Answer cache cleared.")
	return nil
}
