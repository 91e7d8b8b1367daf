package importer

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrypster/praxis/internal/storage"
)

// Summary reports the outcome of a bulk import.
type Summary struct {
	// Imported is the number of practices written to the store.
	Imported int

	// Failed lists files that could not be parsed or stored.
	Failed []string
}

// Importer walks a directory of Markdown files and adds each one to the
// store.
type Importer struct {
	store storage.PracticeStore
}

// New creates an importer writing to the given store.
func New(store storage.PracticeStore) *Importer {
	return &Importer{store: store}
}

// ImportDir imports every .md file under root. A file that fails to
// parse or store is logged and skipped; only a broken walk fails the
// whole import.
func (im *Importer) ImportDir(ctx context.Context, root string) (*Summary, error) {
	summary := &Summary{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		if err := im.importFile(ctx, path, rel); err != nil {
			log.Printf("importer: skipping %s: %v", rel, err)
			summary.Failed = append(summary.Failed, rel)
			return nil
		}
		summary.Imported++
		return nil
	})
	if err != nil {
		return summary, err
	}

	log.Printf("importer: imported %d files from %s (%d failed)",
		summary.Imported, root, len(summary.Failed))
	return summary, nil
}

func (im *Importer) importFile(ctx context.Context, path, rel string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	p, err := ParseMarkdownFile(content, rel)
	if err != nil {
		return err
	}

	_, err = im.store.Add(ctx, p)
	return err
}
