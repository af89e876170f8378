// Package generate implements the text-generation collaborator backing
// both summarization and translation. The pipeline core only sees the
// small Generator interfaces; this package owns the model, prompts,
// context ceiling, and retry policy.
package generate

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vidbrief/vidbrief/internal/apierr"
	"github.com/vidbrief/vidbrief/internal/summarize"
	"github.com/vidbrief/vidbrief/internal/translate"
)

// chatCompleter is an internal interface for chat completion.
// *openai.Client implements this implicitly, which allows injecting mocks
// in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ summarize.Generator = (*Client)(nil)
	_ translate.Generator = (*Client)(nil)
	_ chatCompleter       = (*openai.Client)(nil)
)

// Default configuration values.
const (
	defaultModel = "gpt-4o-mini"

	// Input ceiling before defensive truncation. Chunking upstream is the
	// real bound; truncation only protects against callers that skip it.
	defaultMaxInputTokens = 100000

	// Token estimation for the input ceiling (~4 chars/token English,
	// 3 errs on the side of caution).
	ceilingCharsPerToken = 3

	// Output headroom: length bounds are word counts, tokens run higher.
	tokensPerWord = 2

	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Prompts for the two generation modes.
const (
	summaryPromptFmt = `Summarize the following transcript in plain prose.
The summary must be at least %d words and at most %d words.
Do not invent content that is not in the transcript.`

	translatePromptFmt = `Translate the following text to English.
Preserve the meaning and tone. Keep the translation under %d characters.
Output only the translation.`
)

// Client is the chat-completion backed generation collaborator. It is a
// process-wide handle: construct once at startup, share read-only, and
// never invoke concurrently for a single reduction (the reducer already
// serializes its calls).
type Client struct {
	client         chatCompleter
	model          string
	maxInputTokens int
	maxRetries     int
	baseDelay      time.Duration
	maxDelay       time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxInputTokens sets the estimated-token input ceiling.
func WithMaxInputTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxInputTokens = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) Option {
	return func(c *Client) {
		c.client = cc
	}
}

// NewClient creates a generation Client with the given OpenAI client.
func NewClient(client *openai.Client, opts ...Option) *Client {
	c := &Client{
		client:         client,
		model:          defaultModel,
		maxInputTokens: defaultMaxInputTokens,
		maxRetries:     defaultMaxRetries,
		baseDelay:      defaultBaseDelay,
		maxDelay:       defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize produces a summary of text within the given length bounds.
// The caller (the reducer) guarantees 10 <= MinLength < MaxLength.
func (c *Client) Summarize(ctx context.Context, text string, p summarize.Params) (string, error) {
	prompt := fmt.Sprintf(summaryPromptFmt, p.MinLength, p.MaxLength)
	return c.complete(ctx, prompt, c.truncate(text), p.MaxLength*tokensPerWord)
}

// Translate translates text to English with the given output length cap.
func (c *Client) Translate(ctx context.Context, text string, maxLength int) (string, error) {
	prompt := fmt.Sprintf(translatePromptFmt, maxLength)
	return c.complete(ctx, prompt, c.truncate(text), maxLength)
}

// truncate cuts text to the input ceiling. Upstream chunking should make
// this a no-op; it exists so an over-ceiling input degrades output quality
// instead of failing the request.
func (c *Client) truncate(text string) string {
	maxChars := c.maxInputTokens * ceilingCharsPerToken
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// complete runs one chat completion with retry and error classification.
func (c *Client) complete(ctx context.Context, prompt, content string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:               c.model,
		MaxCompletionTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: 0, // Deterministic output for reproducibility
	}

	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", apierr.Classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response from API")
		}
		return resp.Choices[0].Message.Content, nil
	})
}
