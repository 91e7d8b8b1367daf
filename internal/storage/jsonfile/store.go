// Package jsonfile implements the record store as a flat practices.json
// file, read wholesale and rewritten wholesale on every mutation. This is
// the default engine: appropriate for hundreds to low thousands of records,
// and trivially inspectable.
//
// Every read-modify-write cycle runs under an exclusive file lock so
// concurrent sessions sharing the same data directory do not lose writes.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/pkg/types"
)

// lockRetryDelay is how often a blocked lock acquisition retries.
const lockRetryDelay = 50 * time.Millisecond

// document is the on-disk shape of the record store.
type document struct {
	Practices []types.Practice `json:"practices"`
}

// Store is a flat-file practice store.
type Store struct {
	path string
	lock *flock.Flock
}

// Open creates a Store rooted at dataPath, creating the data directory and
// an empty practices.json when missing. A present-but-unparsable file is
// reported as storage.ErrStoreCorrupt, never replaced with an empty store.
func Open(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("jsonfile: failed to create data directory: %w", err)
	}

	path := filepath.Join(dataPath, "practices.json")
	s := &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(&document{Practices: []types.Practice{}}); err != nil {
			return nil, err
		}
		log.Printf("jsonfile: created new record store at %s", path)
	}

	// Validate the store parses before handing it to callers; a corrupt
	// file must fail startup loudly.
	if _, err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// GetAll returns every practice in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]types.Practice, error) {
	if err := s.rlock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Practices, nil
}

// Get returns the practice with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Practice, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: practice ID is required", storage.ErrInvalidInput)
	}

	practices, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range practices {
		if practices[i].ID == id {
			return &practices[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

// Add validates and appends a new practice, assigning a UUID and
// timestamps, and persists the whole store.
func (s *Store) Add(ctx context.Context, p *types.Practice) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: practice is required", storage.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	if err := s.wlock(ctx); err != nil {
		return "", err
	}
	defer s.unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	doc.Practices = append(doc.Practices, *p)
	if err := s.save(doc); err != nil {
		return "", err
	}

	log.Printf("jsonfile: added practice %s (%d total)", p.ID, len(doc.Practices))
	return p.ID, nil
}

// Update replaces the stored practice with the same ID, preserving the
// original ID and creation timestamp.
func (s *Store) Update(ctx context.Context, p *types.Practice) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: practice with ID is required", storage.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	if err := s.wlock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i := range doc.Practices {
		if doc.Practices[i].ID == p.ID {
			p.CreatedAt = doc.Practices[i].CreatedAt
			p.UpdatedAt = time.Now()
			doc.Practices[i] = *p
			return s.save(doc)
		}
	}
	return storage.ErrNotFound
}

// Delete removes the practice with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: practice ID is required", storage.ErrInvalidInput)
	}

	if err := s.wlock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Practices[:0]
	for _, p := range doc.Practices {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(doc.Practices) {
		return storage.ErrNotFound
	}
	doc.Practices = kept
	return s.save(doc)
}

// GetByCategory returns all practices in the given category.
func (s *Store) GetByCategory(ctx context.Context, category types.Category) ([]types.Practice, error) {
	practices, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []types.Practice
	for _, p := range practices {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// SearchByText returns practices whose title, description or tags contain
// the keyword, case-insensitively.
func (s *Store) SearchByText(ctx context.Context, keyword string) ([]types.Practice, error) {
	practices, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	var results []types.Practice
	for _, p := range practices {
		haystack := strings.ToLower(strings.Join([]string{
			p.Title, p.Description, strings.Join(p.Tags, " "),
		}, " "))
		if strings.Contains(haystack, needle) {
			results = append(results, p)
		}
	}
	return results, nil
}

// Close releases the store. The file lock is only held during operations,
// so there is nothing to release here.
func (s *Store) Close() error {
	return nil
}

// Path returns the location of the backing file, used by the change
// watcher to trigger index rebuilds.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: failed to read %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", storage.ErrStoreCorrupt, s.path, err)
	}
	return &doc, nil
}

// save writes the whole document to a temp file and renames it into place,
// so readers never observe a partially written store.
func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: failed to marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("jsonfile: failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("jsonfile: failed to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) wlock(ctx context.Context) error {
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("jsonfile: failed to acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("jsonfile: failed to acquire lock")
	}
	return nil
}

func (s *Store) rlock(ctx context.Context) error {
	ok, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("jsonfile: failed to acquire read lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("jsonfile: failed to acquire read lock")
	}
	return nil
}

func (s *Store) unlock() {
	if err := s.lock.Unlock(); err != nil {
		log.Printf("jsonfile: failed to release lock: %v", err)
	}
}

// Compile-time assertion that Store satisfies the store contract.
var _ storage.PracticeStore = (*Store)(nil)
