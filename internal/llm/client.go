// ABOUTME: LangChainClient adapts a langchaingo llms.Model to the Client interface
// ABOUTME: Adds rate limiting and turns provider streaming callbacks into a chunk channel

package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"
)

// Client produces text from a prompt.
type Client interface {
	// Invoke runs a blocking call and returns the whole completion.
	Invoke(ctx context.Context, p Prompt, cfg ModelConfig) (string, error)

	// Stream starts a call and returns a channel of increments. The channel is
	// closed when generation ends; a failure midway arrives as a final Chunk
	// with Err set. The concatenation of all Text equals what Invoke returns.
	Stream(ctx context.Context, p Prompt, cfg ModelConfig) (<-chan Chunk, error)
}

// OpenAIConfig configures an OpenAI-compatible endpoint, such as a LiteLLM
// proxy fronting Bedrock.
type OpenAIConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerSecond float64
	Burst             int
}

// LangChainClient implements Client on top of any langchaingo model.
type LangChainClient struct {
	model   llms.Model
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewLangChainClient wraps model. A nil limiter means calls are not throttled.
func NewLangChainClient(model llms.Model, limiter *rate.Limiter, logger *slog.Logger) *LangChainClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LangChainClient{
		model:   model,
		limiter: limiter,
		logger:  logger.With("component", "llm"),
	}
}

// NewOpenAIClient builds a LangChainClient against an OpenAI-compatible API.
func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) (*LangChainClient, error) {
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return NewLangChainClient(model, limiter, logger), nil
}

// Invoke runs a blocking generation.
func (c *LangChainClient) Invoke(ctx context.Context, p Prompt, cfg ModelConfig) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.model.GenerateContent(ctx, toMessageContent(p), callOptions(cfg)...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInference, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrInference)
	}

	return resp.Choices[0].Content, nil
}

// Stream runs a generation in the background and forwards each provider
// increment as it arrives. The channel is unbuffered so at most one fragment
// is in flight; if ctx ends the provider callback aborts the call.
func (c *LangChainClient) Stream(ctx context.Context, p Prompt, cfg ModelConfig) (<-chan Chunk, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	out := make(chan Chunk)
	opts := append(callOptions(cfg), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		select {
		case out <- Chunk{Text: string(chunk)}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	go func() {
		defer close(out)

		_, err := c.model.GenerateContent(ctx, toMessageContent(p), opts...)
		if err == nil {
			return
		}

		c.logger.Warn("streaming generation failed", "error", err)
		select {
		case out <- Chunk{Err: fmt.Errorf("%w: %w", ErrInference, err)}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

func (c *LangChainClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrInference, err)
	}
	return nil
}

func toMessageContent(p Prompt) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(p))
	for _, m := range p {
		var role schema.ChatMessageType
		switch m.Role {
		case RoleSystem:
			role = schema.ChatMessageTypeSystem
		case RoleAI:
			role = schema.ChatMessageTypeAI
		default:
			role = schema.ChatMessageTypeHuman
		}
		msgs = append(msgs, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextContent{Text: m.Content}},
		})
	}
	return msgs
}

func callOptions(cfg ModelConfig) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(cfg.Temperature)}
	if cfg.Model != "" {
		opts = append(opts, llms.WithModel(cfg.Model))
	}
	if cfg.MaxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxOutputTokens))
	}
	if cfg.TopP > 0 {
		opts = append(opts, llms.WithTopP(cfg.TopP))
	}
	if cfg.TopK > 0 {
		opts = append(opts, llms.WithTopK(cfg.TopK))
	}
	if len(cfg.StopSequences) > 0 {
		opts = append(opts, llms.WithStopWords(cfg.StopSequences))
	}
	return opts
}
