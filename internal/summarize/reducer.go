package summarize

import (
	"context"
	"fmt"
	"strings"
)

// Generator is the text-generation collaborator consumed by the Reducer.
// Implementations own their context-length ceiling and retry policy; the
// reducer guarantees the Params invariant holds on every call.
type Generator interface {
	// Summarize produces a summary of text within the given length bounds.
	Summarize(ctx context.Context, text string, p Params) (string, error)
}

// Reducer turns arbitrarily long transcripts into bounded summaries.
//
// Short inputs pass through verbatim, mid-size inputs get a single
// generation call, and long inputs are chunked, summarized per chunk, and
// recombined, with one extra reduction pass when the combined result still
// exceeds the style's target. Chunk calls are strictly sequential: the
// collaborator is a single shared model resource not safe for concurrent
// invocation.
type Reducer struct {
	gen         Generator
	chunkBudget int
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithChunkBudget sets the per-chunk estimated-token budget.
func WithChunkBudget(n int) ReducerOption {
	return func(r *Reducer) {
		if n > 0 {
			r.chunkBudget = n
		}
	}
}

// NewReducer creates a Reducer using the given generation collaborator.
func NewReducer(gen Generator, opts ...ReducerOption) *Reducer {
	r := &Reducer{
		gen:         gen,
		chunkBudget: defaultChunkBudget,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce summarizes transcript in the requested style.
//
// Transcripts under 30 words are returned unchanged regardless of style:
// they are too short to usefully compress. Any collaborator failure is
// wrapped in ErrGeneration and surfaced; there is no degraded fallback.
func (r *Reducer) Reduce(ctx context.Context, transcript string, style Style) (string, error) {
	wordCount := WordCount(transcript)
	if wordCount < minSummarizeWords {
		return transcript, nil
	}

	if wordCount <= directLimitWords {
		summary, err := r.direct(ctx, transcript, style, wordCount)
		if err != nil {
			return "", err
		}
		return Format(summary, style), nil
	}

	combined, err := r.chunked(ctx, transcript, style)
	if err != nil {
		return "", err
	}

	// Bullet style accepts the raw concatenation; no second pass.
	if style == StyleBulletPoints {
		return Format(combined, style), nil
	}

	// Recombine when the concatenated chunk summaries still exceed the
	// style's target, re-deriving bounds against the combined text itself.
	if combinedWords := WordCount(combined); combinedWords > style.MaxLength() {
		params := DeriveParams(style, combinedWords)
		final, err := r.gen.Summarize(ctx, combined, params)
		if err != nil {
			return "", fmt.Errorf("recombining %d chunk summaries: %w: %w",
				combinedWords, ErrGeneration, err)
		}
		return Format(final, style), nil
	}

	return Format(combined, style), nil
}

// direct performs single-call summarization for transcripts within the
// direct word limit. The maximum is additionally capped at wordCount+50 to
// avoid requesting padding beyond plausible compression.
func (r *Reducer) direct(ctx context.Context, transcript string, style Style, wordCount int) (string, error) {
	params := DeriveParams(style, wordCount)
	params.MaxLength = min(params.MaxLength, wordCount+directMaxHeadroom)

	summary, err := r.gen.Summarize(ctx, transcript, params)
	if err != nil {
		return "", fmt.Errorf("summarizing %d words: %w: %w", wordCount, ErrGeneration, err)
	}
	return summary, nil
}

// chunked splits the transcript, summarizes each chunk sequentially, and
// joins the per-chunk summaries with single spaces. Chunks under 20 words
// are passed through verbatim: compressing them degenerates to repetition
// or outright failure, so they are intentionally skipped (this is policy,
// not error recovery).
func (r *Reducer) chunked(ctx context.Context, transcript string, style Style) (string, error) {
	chunks := ChunkWords(transcript, r.chunkBudget)
	params := PerChunkParams(style, len(chunks))

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if WordCount(chunk) < minChunkWords {
			summaries = append(summaries, chunk)
			continue
		}

		summary, err := r.gen.Summarize(ctx, chunk, params)
		if err != nil {
			return "", fmt.Errorf("summarizing chunk %d/%d: %w: %w",
				i+1, len(chunks), ErrGeneration, err)
		}
		summaries = append(summaries, summary)
	}

	return strings.Join(summaries, " "), nil
}
