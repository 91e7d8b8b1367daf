// Command praxis-import bulk-loads Markdown files with YAML frontmatter
// into the record store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scrypster/praxis/internal/config"
	"github.com/scrypster/praxis/internal/importer"
	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/internal/storage/jsonfile"
	"github.com/scrypster/praxis/internal/storage/sqlite"
)

var (
	dataPath = flag.String("data", "", "Data directory (overrides PRAXIS_DATA_PATH)")
	engine   = flag.String("engine", "", "Storage engine: jsonfile or sqlite (overrides PRAXIS_STORAGE_ENGINE)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: praxis-import [flags] <directory>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	root := flag.Arg(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dataPath != "" {
		cfg.Storage.DataPath = *dataPath
	}
	if *engine != "" {
		cfg.Storage.StorageEngine = *engine
	}

	var store storage.PracticeStore
	switch cfg.Storage.StorageEngine {
	case "jsonfile", "":
		store, err = jsonfile.Open(cfg.Storage.DataPath)
	case "sqlite":
		store, err = sqlite.Open(cfg.Storage.DataPath)
	default:
		log.Fatalf("Unknown storage engine: %s", cfg.Storage.StorageEngine)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("praxis-import: failed to close store: %v", err)
		}
	}()

	summary, err := importer.New(store).ImportDir(context.Background(), root)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d practices from %s\n", summary.Imported, root)
	if len(summary.Failed) > 0 {
		fmt.Printf("Failed files (%d):\n", len(summary.Failed))
		for _, f := range summary.Failed {
			fmt.Printf("  %s\n", f)
		}
		os.Exit(1)
	}
}
