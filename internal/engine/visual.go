package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/scrypster/praxis/internal/llm"
)

// ErrMarkupNotConfigured indicates visual generation was requested but no
// markup-capable model is configured.
var ErrMarkupNotConfigured = errors.New("markup generation not configured")

// GenerateDiagram produces an SVG diagram for the practice's description,
// stores it on the record, and returns the markup. The retrieval index is
// rebuilt by the store watcher or an explicit rebuild, not here.
func (e *Engine) GenerateDiagram(ctx context.Context, practiceID string) (string, error) {
	if e.markup == nil {
		return "", ErrMarkupNotConfigured
	}

	p, err := e.store.Get(ctx, practiceID)
	if err != nil {
		return "", err
	}

	response, err := e.markup.GenerateMarkup(ctx, llm.SVGPrompt(p.Title, p.Description))
	if err != nil {
		return "", fmt.Errorf("engine: diagram generation failed: %w", err)
	}

	svg := llm.ExtractSVG(response)
	if svg == "" {
		return "", fmt.Errorf("%w: response contained no SVG markup", llm.ErrGenerationUnavailable)
	}

	p.GeneratedSVG = svg
	if err := e.store.Update(ctx, p); err != nil {
		// The caller still gets the markup; only persistence failed.
		log.Printf("engine: generated diagram not saved on %s: %v", practiceID, err)
	}
	return svg, nil
}

// GeneratePreviewHTML produces a standalone HTML document implementing
// the practice's description, stores it on the record, and returns it.
func (e *Engine) GeneratePreviewHTML(ctx context.Context, practiceID string) (string, error) {
	if e.markup == nil {
		return "", ErrMarkupNotConfigured
	}

	p, err := e.store.Get(ctx, practiceID)
	if err != nil {
		return "", err
	}

	response, err := e.markup.GenerateMarkup(ctx, llm.HTMLPrompt(p.Title, p.Description))
	if err != nil {
		return "", fmt.Errorf("engine: preview generation failed: %w", err)
	}

	html := llm.ExtractHTML(response)
	if html == "" {
		return "", fmt.Errorf("%w: response contained no HTML", llm.ErrGenerationUnavailable)
	}

	p.GeneratedHTML = html
	if err := e.store.Update(ctx, p); err != nil {
		log.Printf("engine: generated preview not saved on %s: %v", practiceID, err)
	}
	return html, nil
}
