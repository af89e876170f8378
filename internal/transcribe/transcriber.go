package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vidbrief/vidbrief/internal/apierr"
)

// defaultModel is the speech-to-text model used for transcription.
const defaultModel = openai.Whisper1

// Default retry configuration for transcription requests.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Segment is one timestamped span of transcribed speech. Segments are
// immutable once produced and ordered by start time.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a full transcription: the flat text, its timestamped segments
// (possibly empty), and the detected language ("unknown" when the model
// does not report one).
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LanguageUnknown is reported when the model detects no language.
const LanguageUnknown = "unknown"

// Transcriber transcribes audio files to timestamped text.
type Transcriber interface {
	// Transcribe converts an audio file to a transcription Result.
	// audioPath must be a file in a format the backing model accepts
	// (wav, mp3, m4a, webm, ogg, ...).
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// audioTranscriber is an internal interface for the transcription API.
// *openai.Client implements this implicitly, which allows injecting mocks
// in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio via the OpenAI transcription API
// with automatic retries for transient errors. It is a process-wide
// handle: construct once at startup and share read-only.
type OpenAITranscriber struct {
	client     audioTranscriber
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option configures an OpenAITranscriber.
type Option func(*OpenAITranscriber)

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// withClient sets a custom transcription client (for testing).
func withClient(c audioTranscriber) Option {
	return func(t *OpenAITranscriber) {
		t.client = c
	}
}

// NewOpenAITranscriber creates an OpenAITranscriber with the given client.
func NewOpenAITranscriber(client *openai.Client, opts ...Option) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		model:      defaultModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe transcribes an audio file, requesting the verbose response
// format so timestamped segments and the detected language come back with
// the text. Transient API errors are retried with exponential backoff.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
	}

	resp, err := apierr.RetryWithBackoff(ctx, cfg, func() (openai.AudioResponse, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, apierr.Classify(err)
		}
		return resp, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("transcribing %q: %w", audioPath, err)
	}

	return toResult(resp), nil
}

// toResult converts the API response into the pipeline's Result shape.
func toResult(resp openai.AudioResponse) Result {
	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}

	language := resp.Language
	if language == "" {
		language = LanguageUnknown
	}

	return Result{
		Text:     strings.TrimSpace(resp.Text),
		Segments: segments,
		Language: language,
	}
}
