// ABOUTME: Tests for LangChainClient against a fake langchaingo model
// ABOUTME: Covers option mapping, message roles, streaming callbacks, and error wrapping

package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"
)

// fakeModel is a langchaingo llms.Model that replays fixed chunks.
type fakeModel struct {
	chunks   []string
	err      error
	lastMsgs []llms.MessageContent
	lastOpts llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMsgs = msgs
	f.lastOpts = llms.CallOptions{}
	for _, o := range options {
		o(&f.lastOpts)
	}

	if f.lastOpts.StreamingFunc != nil {
		for _, c := range f.chunks {
			if err := f.lastOpts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: strings.Join(f.chunks, "")}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("fakeModel only supports GenerateContent")
}

func TestLangChainClient_Invoke(t *testing.T) {
	model := &fakeModel{chunks: []string{"<", "2", ">"}}
	client := NewLangChainClient(model, nil, nil)

	out, err := client.Invoke(t.Context(), Prompt{System("rules"), Human("q"), AI("a")}, ModelConfig{
		Model:           "classifier-model",
		MaxOutputTokens: 10,
		TopP:            1,
		TopK:            50,
		StopSequences:   []string{"\n\nHuman"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<2>", out)

	require.Len(t, model.lastMsgs, 3)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.lastMsgs[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.lastMsgs[1].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, model.lastMsgs[2].Role)
	assert.Equal(t, llms.TextContent{Text: "q"}, model.lastMsgs[1].Parts[0])

	assert.Equal(t, "classifier-model", model.lastOpts.Model)
	assert.Equal(t, 10, model.lastOpts.MaxTokens)
	assert.Equal(t, 0.0, model.lastOpts.Temperature)
	assert.Equal(t, 1.0, model.lastOpts.TopP)
	assert.Equal(t, 50, model.lastOpts.TopK)
	assert.Equal(t, []string{"\n\nHuman"}, model.lastOpts.StopWords)
	assert.Nil(t, model.lastOpts.StreamingFunc)
}

func TestLangChainClient_InvokeErrorWrapsErrInference(t *testing.T) {
	boom := errors.New("throttled")
	client := NewLangChainClient(&fakeModel{err: boom}, nil, nil)

	_, err := client.Invoke(t.Context(), Prompt{Human("q")}, ModelConfig{})
	assert.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, boom)
}

func TestLangChainClient_Stream(t *testing.T) {
	model := &fakeModel{chunks: []string{"Hello", "", ", ", "world"}}
	client := NewLangChainClient(model, nil, nil)

	ch, err := client.Stream(t.Context(), Prompt{Human("q")}, ModelConfig{MaxOutputTokens: 1024})
	require.NoError(t, err)

	var got []string
	for c := range ch {
		require.NoError(t, c.Err)
		got = append(got, c.Text)
	}
	assert.Equal(t, []string{"Hello", ", ", "world"}, got)
	assert.NotNil(t, model.lastOpts.StreamingFunc)
}

func TestLangChainClient_StreamFailureIsLastChunk(t *testing.T) {
	boom := errors.New("socket closed")
	client := NewLangChainClient(&fakeModel{chunks: []string{"partial "}, err: boom}, nil, nil)

	ch, err := client.Stream(t.Context(), Prompt{Human("q")}, ModelConfig{})
	require.NoError(t, err)

	text, err := drain(t, ch)
	assert.Equal(t, "partial ", text)
	assert.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, boom)

	_, open := <-ch
	assert.False(t, open, "channel must be closed after the error chunk")
}

func TestLangChainClient_RateLimiterRespectsContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	require.True(t, limiter.Allow())
	client := NewLangChainClient(&fakeModel{chunks: []string{"x"}}, limiter, nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := client.Invoke(ctx, Prompt{Human("q")}, ModelConfig{})
	assert.ErrorIs(t, err, ErrInference)

	_, err = client.Stream(ctx, Prompt{Human("q")}, ModelConfig{})
	assert.ErrorIs(t, err, ErrInference)
}

func TestNewOpenAIClient(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIConfig{
		BaseURL:           "http://127.0.0.1:4000/v1",
		APIKey:            "sk-test",
		Model:             "test-model",
		RequestsPerSecond: 2,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 1, client.limiter.Burst())
}
