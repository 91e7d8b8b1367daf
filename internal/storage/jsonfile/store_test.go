package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/praxis/internal/storage"
	"github.com/scrypster/praxis/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func samplePractice() *types.Practice {
	return &types.Practice{
		Title:       "Flexbox centering",
		Category:    types.CategoryHTMLCSS,
		ContentType: types.ContentTypeCode,
		Description: "Center children with flexbox",
		Tags:        []string{"flexbox", "layout"},
		CodeCSS:     ".parent { display: flex; }",
	}
}

func TestOpen_CreatesEmptyStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	practices, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, practices)
	assert.FileExists(t, filepath.Join(dir, "practices.json"))
}

// A corrupt store must fail open, never silently become empty.
func TestOpen_CorruptFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "practices.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStoreCorrupt)
}

func TestStore_AddAssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := samplePractice()
	id, err := s.Add(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Flexbox centering", got.Title)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestStore_AddRejectsInvalidPractice(t *testing.T) {
	s := newTestStore(t)

	p := samplePractice()
	p.Category = "nonsense"
	_, err := s.Add(context.Background(), p)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestStore_UpdatePreservesIDAndCreation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := samplePractice()
	id, err := s.Add(ctx, p)
	require.NoError(t, err)
	created := p.CreatedAt

	p.Title = "Flexbox centering v2"
	p.CreatedAt = created.AddDate(1, 0, 0) // attempt to tamper
	require.NoError(t, s.Update(ctx, p))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Flexbox centering v2", got.Title)
	assert.Equal(t, id, got.ID)
	assert.WithinDuration(t, created, got.CreatedAt, 0)
}

func TestStore_UpdateUnknownIDFails(t *testing.T) {
	s := newTestStore(t)

	p := samplePractice()
	p.ID = "missing"
	assert.ErrorIs(t, s.Update(context.Background(), p), storage.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Add(ctx, samplePractice())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, id), storage.ErrNotFound)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	id, err := s.Add(ctx, samplePractice())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Flexbox centering", got.Title)
}

func TestStore_GetByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, samplePractice())
	require.NoError(t, err)

	other := samplePractice()
	other.Title = "Array map basics"
	other.Category = types.CategoryJavaScript
	other.CodeCSS = ""
	other.CodeJS = "xs.map(f)"
	_, err = s.Add(ctx, other)
	require.NoError(t, err)

	results, err := s.GetByCategory(ctx, types.CategoryJavaScript)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Array map basics", results[0].Title)
}

func TestStore_SearchByText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, samplePractice())
	require.NoError(t, err)

	results, err := s.SearchByText(ctx, "FLEXBOX")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = s.SearchByText(ctx, "grid")
	require.NoError(t, err)
	assert.Empty(t, results)
}
