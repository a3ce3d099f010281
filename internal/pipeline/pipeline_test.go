// ABOUTME: Tests for the response pipelines and routing
// ABOUTME: Verifies prompt composition, history degradation, and the no-collaborator deflection

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/scribe-gateway/internal/intent"
	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
	"github.com/2389/scribe-gateway/internal/store"
)

func collect(t *testing.T, gen *Generation) string {
	t.Helper()
	if gen.Stream == nil {
		return gen.Text
	}
	var b strings.Builder
	for c := range gen.Stream {
		require.NoError(t, c.Err)
		b.WriteString(c.Text)
	}
	return b.String()
}

func TestSet_For(t *testing.T) {
	sub, q, d := &Submission{}, &Question{}, Deflection{}
	set := &Set{Submission: sub, Question: q, Deflection: d}

	assert.Same(t, sub, set.For(intent.Submission))
	assert.Same(t, q, set.For(intent.Question))
	assert.Equal(t, d, set.For(intent.Other))
}

func TestSubmission_Run(t *testing.T) {
	review := "1) Achievement: met.\n<JSON>{\"ALL\":\"TRUE\"}</JSON>"
	client := llm.NewMockClient(func(llm.Prompt, llm.ModelConfig) (string, error) { return review, nil })
	cfg := llm.ModelConfig{MaxOutputTokens: 1024}
	p := NewSubmission(client, cfg)

	req := &Request{
		SessionID:  "s1",
		Text:       "Team Alpha reduced cost 20% for Finance",
		Guidelines: prompts.Achievement,
		Period:     "March 2024",
	}

	for _, mode := range []Mode{Blocking, Streaming} {
		gen, err := p.Run(t.Context(), req, mode)
		require.NoError(t, err)
		assert.Equal(t, review, collect(t, gen), "mode %d", mode)
	}

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, cfg, calls[0].Config)
	assert.Contains(t, calls[0].Prompt.LastHuman(), "March 2024")
	assert.Contains(t, calls[0].Prompt.LastHuman(), req.Text)
}

func TestSubmission_MissingRubric(t *testing.T) {
	p := NewSubmission(llm.NewMockClient(nil), llm.ModelConfig{})
	_, err := p.Run(t.Context(), &Request{Text: "x"}, Blocking)
	assert.Error(t, err)
}

func TestQuestion_UsesHistoryInOrder(t *testing.T) {
	st := store.NewMockStore()
	ctx := t.Context()
	require.NoError(t, st.AppendMessage(ctx, "s1", &store.Message{Role: store.RoleUser, Content: "earlier question"}))
	require.NoError(t, st.AppendMessage(ctx, "s1", &store.Message{Role: store.RoleAssistant, Content: "earlier answer"}))

	client := llm.NewMockClient(func(llm.Prompt, llm.ModelConfig) (string, error) { return "answer", nil })
	p := NewQuestion(client, llm.ModelConfig{}, st, nil)

	gen, err := p.Run(ctx, &Request{SessionID: "s1", Text: "and then?", Guidelines: prompts.Challenge}, Blocking)
	require.NoError(t, err)
	assert.Equal(t, "answer", gen.Text)

	prompt := client.Calls()[0].Prompt
	require.Len(t, prompt, 4)
	assert.Equal(t, llm.System(prompts.Challenge.QuestionPreamble), prompt[0])
	assert.Equal(t, llm.Human("earlier question"), prompt[1])
	assert.Equal(t, llm.AI("earlier answer"), prompt[2])
	assert.Contains(t, prompt[3].Content, "Question: and then?")

	_, appends, _ := st.Calls()
	assert.Equal(t, 2, appends, "pipeline must not write history")
}

func TestQuestion_UnseenSessionHasOnlyPreambleAndQuestion(t *testing.T) {
	client := llm.NewMockClient(nil)
	p := NewQuestion(client, llm.ModelConfig{}, store.NewMockStore(), nil)

	_, err := p.Run(t.Context(), &Request{SessionID: "new", Text: "What does a good submission look like?", Guidelines: prompts.Achievement}, Blocking)
	require.NoError(t, err)

	prompt := client.Calls()[0].Prompt
	require.Len(t, prompt, 2)
	assert.Equal(t, llm.RoleSystem, prompt[0].Role)
	assert.Equal(t, llm.RoleHuman, prompt[1].Role)
}

func TestQuestion_HistoryFailureDegradesToEmpty(t *testing.T) {
	st := store.NewMockStore()
	st.GetErr = errors.New("table unavailable")
	client := llm.NewMockClient(nil)
	p := NewQuestion(client, llm.ModelConfig{}, st, nil)

	gen, err := p.Run(t.Context(), &Request{SessionID: "s1", Text: "why?"}, Streaming)
	require.NoError(t, err)
	assert.NotEmpty(t, collect(t, gen))

	prompt := client.Calls()[0].Prompt
	require.Len(t, prompt, 2)
	assert.Equal(t, prompts.DefaultQuestionPreamble, prompt[0].Content)
}

func TestQuestion_InferenceFailure(t *testing.T) {
	client := llm.NewMockClient(func(llm.Prompt, llm.ModelConfig) (string, error) { return "", errors.New("down") })
	p := NewQuestion(client, llm.ModelConfig{}, store.NewMockStore(), nil)

	_, err := p.Run(t.Context(), &Request{SessionID: "s1", Text: "why?"}, Blocking)
	assert.ErrorIs(t, err, llm.ErrInference)
}

func TestDeflection_Run(t *testing.T) {
	for _, mode := range []Mode{Blocking, Streaming} {
		gen, err := Deflection{}.Run(context.Background(), &Request{Text: "hello"}, mode)
		require.NoError(t, err)
		assert.Nil(t, gen.Stream)
		assert.Equal(t, "Sorry, I can only answer writing related questions", gen.Text)
	}
}

func TestDirect_Run(t *testing.T) {
	client := llm.NewMockClient(func(llm.Prompt, llm.ModelConfig) (string, error) { return "<Finance>", nil })
	cfg := llm.ModelConfig{MaxOutputTokens: 256}

	extract := NewDirect(TaskExtractCustomer, client, cfg)
	gen, err := extract.Run(t.Context(), &Request{Text: "Team Alpha helped Finance"}, Blocking)
	require.NoError(t, err)
	assert.Equal(t, "<Finance>", gen.Text)

	rephrase := NewDirect(TaskRephrase, client, cfg)
	rephrase.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	_, err = rephrase.Run(t.Context(), &Request{Text: "draft"}, Streaming)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Prompt.LastHuman(), "extract the customer name")
	assert.Contains(t, calls[1].Prompt.LastHuman(), "current year of 2024")
	assert.True(t, calls[1].Streamed)
}

func TestParseTask(t *testing.T) {
	task, err := ParseTask("rephrase")
	require.NoError(t, err)
	assert.Equal(t, TaskRephrase, task)

	_, err = ParseTask("summarize")
	assert.Error(t, err)

	for _, name := range []string{"recommend_submissions", "combine_submissions"} {
		task, err := ParseTask(name)
		require.NoError(t, err)
		assert.True(t, task.UsesItems(), name)
	}
	assert.False(t, TaskRephrase.UsesItems())
}

func TestDirect_ReportTasks(t *testing.T) {
	client := llm.NewMockClient(func(llm.Prompt, llm.ModelConfig) (string, error) { return "summary", nil })
	items := []prompts.ReportItem{
		{Number: 1, Category: "achievement", Text: "Team Alpha cut costs by 20%."},
		{Number: 4, Category: "challenge", Text: "Team Beta missed the Q3 launch."},
	}

	_, err := NewDirect(TaskRecommend, client, llm.ModelConfig{}).Run(t.Context(), &Request{Items: items}, Blocking)
	require.NoError(t, err)
	_, err = NewDirect(TaskCombine, client, llm.ModelConfig{}).Run(t.Context(), &Request{Items: items}, Blocking)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 2)
	recommend := calls[0].Prompt.LastHuman()
	assert.Contains(t, recommend, "Submission 4 (challenge):")
	assert.Contains(t, recommend, "Team Alpha cut costs by 20%.")
	assert.Contains(t, recommend, `"submission_nos"`)

	combine := calls[1].Prompt.LastHuman()
	assert.Contains(t, combine, "single paragraph")
	assert.Contains(t, combine, "Team Beta missed the Q3 launch.")
	assert.NotContains(t, combine, "Submission 4")

	_, err = NewDirect(TaskCombine, client, llm.ModelConfig{}).Run(t.Context(), &Request{}, Blocking)
	assert.Error(t, err, "a report task without items is rejected")
}
