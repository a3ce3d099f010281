// ABOUTME: Tests for review parsing
// ABOUTME: Covers both validation block formats, lenient JSON, and prose rendering

package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONBlock(t *testing.T) {
	review := `Here is my detailed analysis of the submission...
1) **Achievement**: stated clearly.
2) **Customer Name**: missing.

<JSON>
{"Achievement":"TRUE","Impact":"TRUE","Quantitative Data":"TRUE","Customer Name":"FALSE","ALL":"FALSE"}
</JSON>`

	fb, err := Parse(review)
	require.NoError(t, err)

	assert.True(t, fb.Found)
	assert.False(t, fb.All)
	assert.Equal(t, map[string]bool{
		"Achievement":       true,
		"Impact":            true,
		"Quantitative Data": true,
		"Customer Name":     false,
	}, fb.Validation)
	assert.Equal(t, []string{"Customer Name"}, fb.Failed())
	assert.NotContains(t, fb.Markdown, "<JSON>")
	assert.Contains(t, fb.HTML, "<strong>Achievement</strong>")
}

func TestParse_JSONBlockWithoutCommas(t *testing.T) {
	review := `Analysis.
<JSON>
{
    "Achievement":"TRUE"
    "Impact":"false"
    "ALL":"TRUE"
}
</JSON>`

	fb, err := Parse(review)
	require.NoError(t, err)
	assert.True(t, fb.Found)
	assert.True(t, fb.All)
	assert.Equal(t, map[string]bool{"Achievement": true, "Impact": false}, fb.Validation)
	assert.Equal(t, "Analysis.", fb.Markdown)
}

func TestParse_UnclosedJSONBlock(t *testing.T) {
	fb, err := Parse(`Analysis. <JSON>{"ALL":"TRUE"}`)
	require.NoError(t, err)
	assert.True(t, fb.Found)
	assert.True(t, fb.All)
	assert.Equal(t, "Analysis.", fb.Markdown)
}

func TestParse_FrontMatter(t *testing.T) {
	review := `---
validation:
  challenge: true
  impact: false
  quantitative_data: true
  customer_name: true
  all: false
---

Here is my analysis of your submission:

## Guidelines
 - **Impact**: not stated.
`

	fb, err := Parse(review)
	require.NoError(t, err)

	assert.True(t, fb.Found)
	assert.False(t, fb.All)
	assert.Equal(t, map[string]bool{
		"challenge":         true,
		"impact":            false,
		"quantitative_data": true,
		"customer_name":     true,
	}, fb.Validation)
	assert.Contains(t, fb.HTML, "<h2>Guidelines</h2>")
	assert.NotContains(t, fb.Markdown, "validation:")
}

func TestParse_MalformedFrontMatter(t *testing.T) {
	_, err := Parse("---\nvalidation: [unclosed\n---\nbody")
	assert.Error(t, err)
}

func TestParse_NoValidationBlock(t *testing.T) {
	fb, err := Parse("Lead with the customer impact.")
	require.NoError(t, err)
	assert.False(t, fb.Found)
	assert.Empty(t, fb.Validation)
	assert.Equal(t, "<p>Lead with the customer impact.</p>\n", fb.HTML)
}

func TestParse_RawHTMLIsNotPassedThrough(t *testing.T) {
	fb, err := Parse("Hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, fb.HTML, "<script>")
}

func TestParse_ExpectedKeys(t *testing.T) {
	review := `Analysis.
<JSON>
{"achievement":"TRUE","Impact":"FALSE","Tone":"TRUE","ALL":"FALSE"}
</JSON>`

	fb, err := Parse(review, "Achievement", "Impact", "Quantitative Data", "ALL")
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"Achievement": true, "Impact": false}, fb.Validation)
	assert.Equal(t, []string{"Quantitative Data"}, fb.Missing)
	assert.Equal(t, []string{"Tone"}, fb.Unexpected)
	assert.False(t, fb.All)
}

func TestParse_ExpectedKeysWithoutBlock(t *testing.T) {
	fb, err := Parse("Just prose.", "Achievement", "ALL")
	require.NoError(t, err)
	assert.False(t, fb.Found)
	assert.Empty(t, fb.Missing)
}
