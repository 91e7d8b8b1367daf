package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/praxis/pkg/types"
)

func TestAnswerPrompt_IncludesQuestionAndContexts(t *testing.T) {
	contexts := []types.Practice{
		{
			Title:       "Flexbox centering",
			ContentType: types.ContentTypeCode,
			Description: "Center children with flexbox",
			CodeCSS:     ".parent { display: flex; justify-content: center; }",
		},
	}

	prompt := AnswerPrompt("center a div horizontally", contexts)
	assert.Contains(t, prompt, "Question: center a div horizontally")
	assert.Contains(t, prompt, "[Reference 1] Flexbox centering")
	assert.Contains(t, prompt, "justify-content: center")
}

func TestFormatContexts_ManualEntriesOmitCodeFields(t *testing.T) {
	contexts := []types.Practice{
		{
			Title:       "Release checklist",
			ContentType: types.ContentTypeManual,
			Description: "Steps before shipping",
		},
	}

	out := FormatContexts(contexts)
	assert.Contains(t, out, "Release checklist")
	assert.NotContains(t, out, "CSS:")
	assert.NotContains(t, out, "JavaScript:")
}

// The ungrounded path must be visible in the prompt, not silently empty.
func TestFormatContexts_EmptyIsExplicit(t *testing.T) {
	assert.Contains(t, FormatContexts(nil), "no reference material")
}

func TestExtractSVG(t *testing.T) {
	response := "Here you go:\n```xml\n<svg viewBox=\"0 0 900 550\"><rect/></svg>\n```"
	svg := ExtractSVG(response)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))

	assert.Empty(t, ExtractSVG("no markup here"))
	assert.Empty(t, ExtractSVG("</svg> backwards <svg"))
}

func TestExtractHTML(t *testing.T) {
	fenced := "```html\n<!DOCTYPE html><html><body>hi</body></html>\n```"
	assert.Equal(t, "<!DOCTYPE html><html><body>hi</body></html>", ExtractHTML(fenced))

	bare := "  <!DOCTYPE html><html></html>  "
	assert.Equal(t, "<!DOCTYPE html><html></html>", ExtractHTML(bare))
}

func TestSVGPrompt_TruncatesLongDescriptions(t *testing.T) {
	long := strings.Repeat("x", maxMarkupSourceLen*2)
	prompt := SVGPrompt("title", long)
	assert.Less(t, len(prompt), maxMarkupSourceLen+500)
}
