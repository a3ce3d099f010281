// ABOUTME: Tests for prompt rendering
// ABOUTME: Checks message layout, template substitution, and the classification round trip

package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/scribe-gateway/internal/llm"
)

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "March 2024", PeriodLabel(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
}

func TestClassification(t *testing.T) {
	p, err := Classification("hello")
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Equal(t, llm.RoleHuman, p[0].Role)
	assert.True(t, strings.HasSuffix(p[0].Content, "Prompt: hello\n"))
	for _, marker := range []string{MarkerSubmission, MarkerQuestion, MarkerOther} {
		assert.Contains(t, p[0].Content, `"`+marker+`"`)
	}

	text, ok := ClassifiedText(p[0].Content)
	assert.True(t, ok)
	assert.Equal(t, "hello", text)

	_, ok = ClassifiedText("Question: what?")
	assert.False(t, ok)
}

func TestSubmission(t *testing.T) {
	p, err := Submission(Achievement, "March 2024", "Team Alpha cut costs 20% for Finance.")
	require.NoError(t, err)
	require.Len(t, p, 2)

	assert.Equal(t, llm.RoleSystem, p[0].Role)
	assert.Equal(t, SystemPrompt, p[0].Content)

	body := p[1].Content
	assert.Equal(t, llm.RoleHuman, p[1].Role)
	assert.Contains(t, body, "this month of March 2024.")
	assert.Contains(t, body, "<submission>\nTeam Alpha cut costs 20% for Finance.\n</submission>")
	assert.Contains(t, body, `"Customer Name" (required)`)
	assert.Contains(t, body, "<JSON>")
	assert.NotContains(t, body, "{{")
}

func TestSubmission_ChallengeUsesFrontMatter(t *testing.T) {
	p, err := Submission(Challenge, "June 2025", "Outage hit Payroll for 3 days.")
	require.NoError(t, err)
	assert.Contains(t, p[1].Content, "validation:\n  challenge: true")
	assert.Contains(t, p[1].Content, `"Challenge" (required)`)
}

func TestQuestion(t *testing.T) {
	history := []llm.Message{llm.Human("first"), llm.AI("reply")}

	p, err := Question(Achievement.QuestionPreamble, history, "What does a good submission look like?")
	require.NoError(t, err)
	require.Len(t, p, 4)
	assert.Equal(t, llm.System(Achievement.QuestionPreamble), p[0])
	assert.Equal(t, history[0], p[1])
	assert.Equal(t, history[1], p[2])
	assert.Equal(t, "\nQuestion: What does a good submission look like?\n\n", p[3].Content)

	bare, err := Question("", nil, "why?")
	require.NoError(t, err)
	require.Len(t, bare, 2)
	assert.Equal(t, DefaultQuestionPreamble, bare[0].Content)
}

func TestRephrase(t *testing.T) {
	p, err := Rephrase("we saved 600000 dollars", time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Contains(t, p[0].Content, "current year of 2026")
	assert.Contains(t, p[0].Content, `"July 10 2025" -> "Jul-2025"`)
	assert.Contains(t, p[0].Content, "<text>\nwe saved 600000 dollars\n</text>")
}

func TestExtractCustomer(t *testing.T) {
	p, err := ExtractCustomer("Team Alpha helped Finance.")
	require.NoError(t, err)
	assert.Contains(t, p[0].Content, "Submission:\nTeam Alpha helped Finance.\n\nYou:")
}

func TestLookupGuidelineSet(t *testing.T) {
	set, ok := LookupGuidelineSet("challenge")
	require.True(t, ok)
	assert.Equal(t, "all", set.ValidationKeys[len(set.ValidationKeys)-1])

	_, ok = LookupGuidelineSet("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"achievement", "challenge"}, GuidelineSetNames())
}
