// Package types defines the core data structures shared across Praxis.
package types

import (
	"fmt"
	"time"
)

// Category identifies the knowledge area a practice belongs to.
// The set is fixed; records with unknown categories are rejected on write.
type Category string

const (
	CategoryHTMLCSS    Category = "html_css"
	CategoryJavaScript Category = "javascript"
	CategoryPython     Category = "python"
	CategoryGAS        Category = "gas"
	CategoryVBA        Category = "vba"
	CategoryOther      Category = "other"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryHTMLCSS,
		CategoryJavaScript,
		CategoryPython,
		CategoryGAS,
		CategoryVBA,
		CategoryOther,
	}
}

// DisplayName returns the human-readable label for a category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryHTMLCSS:
		return "HTML/CSS"
	case CategoryJavaScript:
		return "JavaScript"
	case CategoryPython:
		return "Python"
	case CategoryGAS:
		return "Google Apps Script"
	case CategoryVBA:
		return "VBA"
	case CategoryOther:
		return "Other / Manual"
	default:
		return string(c)
	}
}

// Valid reports whether the category is one of the configured set.
func (c Category) Valid() bool {
	switch c {
	case CategoryHTMLCSS, CategoryJavaScript, CategoryPython,
		CategoryGAS, CategoryVBA, CategoryOther:
		return true
	}
	return false
}

// ContentType distinguishes code snippets from free-form manual entries.
// Manual entries carry no code fragments.
type ContentType string

const (
	ContentTypeCode   ContentType = "code"
	ContentTypeManual ContentType = "manual"
)

// Valid reports whether the content type is known.
func (t ContentType) Valid() bool {
	return t == ContentTypeCode || t == ContentTypeManual
}

// Practice is a single knowledge entry: a titled, categorized piece of
// text or code with optional generated artifacts attached.
//
// The ID is assigned once when the practice is first stored and never
// changes afterwards. The retrieval subsystem treats practices as
// read-only; only the registration/editing flows mutate them.
type Practice struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Category    Category    `json:"category"`
	ContentType ContentType `json:"content_type"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags,omitempty"`

	// Code fragments, only meaningful for ContentTypeCode entries.
	CodeHTML string `json:"code_html,omitempty"`
	CodeCSS  string `json:"code_css,omitempty"`
	CodeJS   string `json:"code_js,omitempty"`

	// Optional generated artifacts and attachments.
	ImagePath     string `json:"image_path,omitempty"`
	GeneratedSVG  string `json:"generated_svg,omitempty"`
	GeneratedHTML string `json:"generated_html,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the structural invariants of a practice.
// It does not check the ID; the store assigns IDs on insert.
func (p *Practice) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("practice: title is required")
	}
	if !p.Category.Valid() {
		return fmt.Errorf("practice: unknown category %q", p.Category)
	}
	if !p.ContentType.Valid() {
		return fmt.Errorf("practice: unknown content type %q", p.ContentType)
	}
	if p.ContentType == ContentTypeManual &&
		(p.CodeHTML != "" || p.CodeCSS != "" || p.CodeJS != "") {
		return fmt.Errorf("practice: manual entries must not carry code fragments")
	}
	return nil
}

// HasDiagram reports whether the practice carries generated diagram markup.
func (p *Practice) HasDiagram() bool {
	return p.GeneratedSVG != "" || p.GeneratedHTML != ""
}

// HasImage reports whether the practice has an associated image file.
func (p *Practice) HasImage() bool {
	return p.ImagePath != ""
}
