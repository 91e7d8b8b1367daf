// Package importer bulk-loads Markdown files with YAML frontmatter into
// the record store.
package importer

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/praxis/pkg/types"
)

// frontmatter is the recognized YAML header of an importable file.
type frontmatter struct {
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	ContentType string `yaml:"content_type"`
	Tags        any    `yaml:"tags"`
	Description string `yaml:"description"`
}

// ParseMarkdownFile turns one Markdown file into a practice. The title
// comes from frontmatter, the first H1 heading, or the filename, in that
// order. Fenced html/css/js code blocks become the practice's code
// fields; a file with code blocks is a code entry, otherwise manual.
func ParseMarkdownFile(content []byte, relativePath string) (*types.Practice, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("importer: %s: %w", relativePath, err)
	}

	title := fm.Title
	if title == "" {
		title = extractH1(body)
	}
	if title == "" {
		title = titleFromPath(relativePath)
	}

	category := types.Category(fm.Category)
	if fm.Category == "" {
		category = categoryFromPath(relativePath)
	}
	if !category.Valid() {
		category = types.CategoryOther
	}

	code := extractCodeBlocks(body)

	contentType := types.ContentType(fm.ContentType)
	if fm.ContentType == "" {
		if code.hasAny() {
			contentType = types.ContentTypeCode
		} else {
			contentType = types.ContentTypeManual
		}
	}

	description := strings.TrimSpace(fm.Description)
	if description == "" {
		description = strings.TrimSpace(stripCodeBlocks(body))
	}

	p := &types.Practice{
		Title:       title,
		Category:    category,
		ContentType: contentType,
		Description: description,
		Tags:        extractTags(fm.Tags),
	}
	if contentType == types.ContentTypeCode {
		p.CodeHTML = code.html
		p.CodeCSS = code.css
		p.CodeJS = code.js
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("importer: %s: %w", relativePath, err)
	}
	return p, nil
}

// splitFrontmatter separates the YAML header (between --- delimiters)
// from the Markdown body. A file without frontmatter is all body.
func splitFrontmatter(text string) (frontmatter, string, error) {
	var fm frontmatter

	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fm, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return fm, text, nil
	}

	header := strings.Join(lines[1:closeIdx], "\n")
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, text, fmt.Errorf("invalid frontmatter: %w", err)
	}

	return fm, strings.Join(lines[closeIdx+1:], "\n"), nil
}

// titleFromPath derives a readable title from the file name.
func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// categoryFromPath uses the first directory segment as the category when
// it names a valid one.
func categoryFromPath(rel string) types.Category {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 {
		return types.Category(strings.ToLower(parts[0]))
	}
	return ""
}

// extractH1 returns the text of the first ATX heading in the body.
func extractH1(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// extractTags handles both list and comma-separated string forms.
func extractTags(raw any) []string {
	switch v := raw.(type) {
	case []any:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

type codeBlocks struct {
	html string
	css  string
	js   string
}

func (c codeBlocks) hasAny() bool {
	return c.html != "" || c.css != "" || c.js != ""
}

// extractCodeBlocks collects fenced html/css/js blocks. Multiple blocks
// of the same language are concatenated in document order.
func extractCodeBlocks(body string) codeBlocks {
	var blocks codeBlocks
	var lang string
	var buf []string
	inFence := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				code := strings.Join(buf, "\n")
				switch lang {
				case "html":
					blocks.html = joinBlock(blocks.html, code)
				case "css":
					blocks.css = joinBlock(blocks.css, code)
				case "js", "javascript":
					blocks.js = joinBlock(blocks.js, code)
				}
				inFence = false
				buf = nil
				continue
			}
			lang = strings.ToLower(strings.TrimPrefix(trimmed, "```"))
			inFence = true
			continue
		}
		if inFence {
			buf = append(buf, line)
		}
	}
	return blocks
}

func joinBlock(existing, code string) string {
	if existing == "" {
		return code
	}
	return existing + "\n\n" + code
}

// stripCodeBlocks removes fenced blocks so the description reads as
// prose.
func stripCodeBlocks(body string) string {
	var out []string
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
