package llm

import (
	"fmt"
	"strings"

	"github.com/scrypster/praxis/pkg/types"
)

// AnswerPrompt builds the grounded-answer prompt from the user question and
// the retrieved practices. Each practice contributes its title, content
// type and description; code entries also contribute their fragments so
// the model can quote working code.
func AnswerPrompt(question string, contexts []types.Practice) string {
	var b strings.Builder
	b.WriteString("You are an implementation expert for HTML/CSS and programming.\n")
	b.WriteString("Answer the question using the reference material below.\n")
	b.WriteString("Include concrete code examples when code is involved.\n")
	b.WriteString("Never repeat a section or paste the same code twice.\n\n")
	b.WriteString(FormatContexts(contexts))
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// FormatContexts renders retrieved practices as numbered reference blocks.
// An empty slice renders an explicit "no reference material" marker so the
// ungrounded path is visible in the prompt rather than silent.
func FormatContexts(contexts []types.Practice) string {
	if len(contexts) == 0 {
		return "(no reference material)\n"
	}

	var b strings.Builder
	for i, ctx := range contexts {
		fmt.Fprintf(&b, "[Reference %d] %s\n", i+1, ctx.Title)
		fmt.Fprintf(&b, "Type: %s\n", ctx.ContentType)
		fmt.Fprintf(&b, "Content: %s\n", ctx.Description)
		if ctx.ContentType == types.ContentTypeCode {
			if ctx.CodeHTML != "" {
				fmt.Fprintf(&b, "HTML: %s\n", ctx.CodeHTML)
			}
			if ctx.CodeCSS != "" {
				fmt.Fprintf(&b, "CSS: %s\n", ctx.CodeCSS)
			}
			if ctx.CodeJS != "" {
				fmt.Fprintf(&b, "JavaScript: %s\n", ctx.CodeJS)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// maxMarkupSourceLen caps the description text embedded in markup prompts
// so a long record cannot blow the provider's context window.
const maxMarkupSourceLen = 1800

// SVGPrompt builds the diagram-markup prompt for a practice description.
func SVGPrompt(title, description string) string {
	return fmt.Sprintf(`Express the following description as a clear SVG diagram.

Title: %s
Description:
%s

Requirements:
- viewBox="0 0 900 550", width="100%%"
- white background rect, title centered at the top
- problem/solution content uses a Before/After split, structural content
  uses nested boxes, sequences flow top to bottom
- readable font sizes (title 20, labels 16, body 14), sans-serif, no
  overlapping text

Output only the SVG code:`, title, truncate(description, maxMarkupSourceLen))
}

// HTMLPrompt builds the live-preview markup prompt for a practice
// description.
func HTMLPrompt(title, description string) string {
	return fmt.Sprintf(`Implement the following description as working HTML+CSS.

Title: %s
Description:
%s

Requirements:
- a complete document from <!DOCTYPE html> to </html>
- CSS inside a <style> tag
- simple, readable, responsive layout

Output only the code, no explanation:`, title, truncate(description, maxMarkupSourceLen))
}

// ExtractSVG pulls the <svg>...</svg> block out of a model response,
// dropping any surrounding prose or code fences. Returns an empty string
// when no SVG block is present.
func ExtractSVG(response string) string {
	start := strings.Index(response, "<svg")
	end := strings.LastIndex(response, "</svg>")
	if start < 0 || end < 0 || end < start {
		return ""
	}
	return response[start : end+len("</svg>")]
}

// ExtractHTML strips markdown code fences from a model response and
// returns the raw document. A response without fences is returned trimmed.
func ExtractHTML(response string) string {
	response = strings.TrimSpace(response)
	if idx := strings.Index(response, "```html"); idx >= 0 {
		response = response[idx+len("```html"):]
	} else if idx := strings.Index(response, "```"); idx >= 0 {
		response = response[idx+len("```"):]
	}
	if idx := strings.Index(response, "```"); idx >= 0 {
		response = response[:idx]
	}
	return strings.TrimSpace(response)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
