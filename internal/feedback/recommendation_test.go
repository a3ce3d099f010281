// ABOUTME: Tests for parsing the recommend task's ranking
// ABOUTME: Covers wrapped JSON, unknown submission numbers, and unusable output

package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendation(t *testing.T) {
	output := `Here is my ranking:
{
    "submission_nos": [4, 1, 9],
    "preamble": "The following submissions stand out.",
    "explanations": ["Largest savings.", "Three data points.", "Not in the input."]
}`

	rec, err := ParseRecommendation(output)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1, 9}, rec.Numbers)
	assert.Equal(t, "The following submissions stand out.", rec.Preamble)

	rec, err = ParseRecommendation(output, 1, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, rec.Numbers)
	assert.Equal(t, []string{"Largest savings.", "Three data points."}, rec.Explanations)
}

func TestParseRecommendation_Unusable(t *testing.T) {
	_, err := ParseRecommendation("I could not decide.")
	assert.ErrorIs(t, err, ErrNoRecommendation)

	_, err = ParseRecommendation(`{"submission_nos": "one"}`)
	assert.Error(t, err)
}
