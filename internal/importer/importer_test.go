package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/praxis/internal/storage/jsonfile"
	"github.com/scrypster/praxis/pkg/types"
)

func TestParseMarkdownFile_FrontmatterFields(t *testing.T) {
	content := []byte(`---
title: Flexbox centering
category: html_css
tags:
  - flexbox
  - layout
description: Center children with flexbox
---

Some notes about flexbox.

` + "```css\n.parent { display: flex; }\n```\n")

	p, err := ParseMarkdownFile(content, "notes/flexbox.md")
	require.NoError(t, err)

	assert.Equal(t, "Flexbox centering", p.Title)
	assert.Equal(t, types.CategoryHTMLCSS, p.Category)
	assert.Equal(t, types.ContentTypeCode, p.ContentType)
	assert.Equal(t, []string{"flexbox", "layout"}, p.Tags)
	assert.Equal(t, "Center children with flexbox", p.Description)
	assert.Equal(t, ".parent { display: flex; }", p.CodeCSS)
}

func TestParseMarkdownFile_TitleFallbacks(t *testing.T) {
	// H1 heading wins over the filename.
	p, err := ParseMarkdownFile([]byte("# Grid layouts\n\nbody text"), "misc/grid-notes.md")
	require.NoError(t, err)
	assert.Equal(t, "Grid layouts", p.Title)

	// No heading: the filename is humanized.
	p, err = ParseMarkdownFile([]byte("just text"), "misc/css_grid-basics.md")
	require.NoError(t, err)
	assert.Equal(t, "css grid basics", p.Title)
}

func TestParseMarkdownFile_CategoryFromDirectory(t *testing.T) {
	p, err := ParseMarkdownFile([]byte("body"), "javascript/closures.md")
	require.NoError(t, err)
	assert.Equal(t, types.CategoryJavaScript, p.Category)

	// Unknown directories fall back to other.
	p, err = ParseMarkdownFile([]byte("body"), "recipes/closures.md")
	require.NoError(t, err)
	assert.Equal(t, types.CategoryOther, p.Category)
}

func TestParseMarkdownFile_CommaSeparatedTags(t *testing.T) {
	content := []byte("---\ntags: a, b , c\n---\nbody")
	p, err := ParseMarkdownFile(content, "x.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, p.Tags)
}

func TestParseMarkdownFile_NoCodeBlocksIsManual(t *testing.T) {
	p, err := ParseMarkdownFile([]byte("# Release checklist\n\n1. tag\n2. ship"), "ops.md")
	require.NoError(t, err)
	assert.Equal(t, types.ContentTypeManual, p.ContentType)
	assert.Empty(t, p.CodeHTML)
}

func TestParseMarkdownFile_MultipleBlocksSameLanguage(t *testing.T) {
	content := []byte("```js\nconst a = 1\n```\ntext\n```javascript\nconst b = 2\n```\n")
	p, err := ParseMarkdownFile(content, "x.md")
	require.NoError(t, err)
	assert.Equal(t, "const a = 1\n\nconst b = 2", p.CodeJS)
}

func TestParseMarkdownFile_DescriptionStripsCode(t *testing.T) {
	content := []byte("Some prose.\n```css\nbody {}\n```\nMore prose.")
	p, err := ParseMarkdownFile(content, "x.md")
	require.NoError(t, err)
	assert.Contains(t, p.Description, "Some prose.")
	assert.Contains(t, p.Description, "More prose.")
	assert.NotContains(t, p.Description, "body {}")
}

func TestImportDir_WritesToStoreAndSkipsBadFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "python"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "python", "decorators.md"),
		[]byte("# Decorators\n\nWrap functions."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.md"),
		[]byte("---\ntitle: [\n---\nbody"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"),
		[]byte("not markdown"), 0o600))

	store, err := jsonfile.Open(t.TempDir())
	require.NoError(t, err)

	summary, err := New(store).ImportDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, []string{"broken.md"}, summary.Failed)

	practices, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, practices, 1)
	assert.Equal(t, "Decorators", practices[0].Title)
	assert.Equal(t, types.CategoryPython, practices[0].Category)
}
