package summarize_test

// Notes:
// - Reducer tests use a scripted fake Generator; no network.
// - Word counts at the 30/700 boundaries come straight from the reduction
//   policy: <30 verbatim, <=700 direct, >700 chunked.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vidbrief/vidbrief/internal/summarize"
)

// fakeGenerator records every Summarize call and replies from a script.
type fakeGenerator struct {
	calls   []generatorCall
	reply   func(call int, text string, p summarize.Params) (string, error)
	failure error
}

type generatorCall struct {
	text   string
	params summarize.Params
}

func (f *fakeGenerator) Summarize(_ context.Context, text string, p summarize.Params) (string, error) {
	f.calls = append(f.calls, generatorCall{text: text, params: p})
	if f.failure != nil {
		return "", f.failure
	}
	if f.reply != nil {
		return f.reply(len(f.calls), text, p)
	}
	return "summary", nil
}

// words builds a space-joined text of n identical words.
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestReduceShortTranscriptPassesThrough(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	r := summarize.NewReducer(gen)

	transcript := words(29)
	for _, style := range []summarize.Style{
		summarize.StyleDetailed,
		summarize.StyleBrief,
		summarize.StyleBulletPoints,
	} {
		got, err := r.Reduce(context.Background(), transcript, style)
		if err != nil {
			t.Fatalf("style %q: unexpected error: %v", style, err)
		}
		if got != transcript {
			t.Errorf("style %q: short transcript modified:\ngot  %q\nwant %q", style, got, transcript)
		}
	}

	if len(gen.calls) != 0 {
		t.Errorf("generator called %d times for short transcripts, want 0", len(gen.calls))
	}
}

func TestReduceDirectPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		wordCount  int
		style      summarize.Style
		wantParams summarize.Params
	}{
		{
			name:      "thirty words is the smallest summarized input",
			wordCount: 30,
			style:     summarize.StyleBrief,
			// min(100, 30+50)=80; min(40, 20, 80)=20.
			wantParams: summarize.Params{MaxLength: 80, MinLength: 20},
		},
		{
			name:       "direct max capped at word count plus headroom",
			wordCount:  100,
			style:      summarize.StyleDetailed,
			wantParams: summarize.Params{MaxLength: 150, MinLength: 90},
		},
		{
			name:       "exactly seven hundred words stays direct",
			wordCount:  700,
			style:      summarize.StyleDetailed,
			wantParams: summarize.Params{MaxLength: 300, MinLength: 150},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{}
			r := summarize.NewReducer(gen)

			got, err := r.Reduce(context.Background(), words(tt.wordCount), tt.style)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "summary" {
				t.Errorf("got %q, want %q", got, "summary")
			}
			if len(gen.calls) != 1 {
				t.Fatalf("generator called %d times, want 1", len(gen.calls))
			}
			if gen.calls[0].params != tt.wantParams {
				t.Errorf("params = %+v, want %+v", gen.calls[0].params, tt.wantParams)
			}
		})
	}
}

func TestReduceChunkedBoundary(t *testing.T) {
	t.Parallel()

	// 700 words is the last direct input; 701 crosses into the chunked
	// path, one generation call per chunk.
	gen := &fakeGenerator{
		reply: func(call int, _ string, _ summarize.Params) (string, error) {
			return fmt.Sprintf("part %d", call), nil
		},
	}
	r := summarize.NewReducer(gen)

	got, err := r.Reduce(context.Background(), words(701), summarize.StyleDetailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.calls) < 2 {
		t.Fatalf("generator called %d times for 701 words, want >=2 (one per chunk)", len(gen.calls))
	}
	if got == "part 1" {
		t.Errorf("got a single chunk summary %q, want a combined result", got)
	}

	// Each call sees one chunk, never the whole transcript.
	for i, call := range gen.calls {
		if wc := summarize.WordCount(call.text); wc > 700 {
			t.Errorf("call %d saw %d words, want a chunk-sized slice", i, wc)
		}
	}
}

func TestReduceSkipsTinyChunks(t *testing.T) {
	t.Parallel()

	// A small chunk budget makes the chunk layout predictable: with
	// uniform 4-char words, budget 96 closes chunks at 25 words, so 715
	// words split into 28 full chunks plus a 15-word remainder. Chunks
	// under 20 words bypass generation and keep their original text.
	gen := &fakeGenerator{
		reply: func(int, string, summarize.Params) (string, error) {
			return "ok", nil
		},
	}
	r := summarize.NewReducer(gen, summarize.WithChunkBudget(96))

	got, err := r.Reduce(context.Background(), words(715), summarize.StyleDetailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, call := range gen.calls {
		if wc := summarize.WordCount(call.text); wc < 20 {
			t.Errorf("call %d summarized a %d-word chunk, want tiny chunks skipped", i, wc)
		}
	}
	if !strings.HasSuffix(got, words(15)) {
		t.Errorf("combined output does not end with the verbatim tail chunk:\n%q", got)
	}
}

func TestReduceChunkedPath(t *testing.T) {
	t.Parallel()

	// 1500 filler words force the chunked path; each generation call
	// returns a short summary so no recombination pass is needed.
	gen := &fakeGenerator{
		reply: func(call int, _ string, _ summarize.Params) (string, error) {
			return fmt.Sprintf("part %d.", call), nil
		},
	}
	r := summarize.NewReducer(gen)

	got, err := r.Reduce(context.Background(), words(1500), summarize.StyleDetailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.calls) < 2 {
		t.Fatalf("generator called %d times, want >=2 (one per chunk)", len(gen.calls))
	}

	// Per-chunk params must respect the derivation floors.
	for i, call := range gen.calls {
		p := call.params
		if p.MinLength < 10 || p.MaxLength < 50 || p.MinLength >= p.MaxLength {
			t.Errorf("call %d: degenerate params %+v", i, p)
		}
	}

	// Combined output is the chunk summaries joined with single spaces.
	want := make([]string, len(gen.calls))
	for i := range gen.calls {
		want[i] = fmt.Sprintf("part %d.", i+1)
	}
	if got != strings.Join(want, " ") {
		t.Errorf("combined = %q, want %q", got, strings.Join(want, " "))
	}
}

func TestReduceRecombiningPass(t *testing.T) {
	t.Parallel()

	// Chunk summaries are each 200 words, so the combined text exceeds the
	// Detailed target of 300 and triggers one extra reduction call.
	const finalSummary = "final condensed summary"
	var chunkCalls int

	gen := &fakeGenerator{}
	gen.reply = func(call int, text string, p summarize.Params) (string, error) {
		if p.MaxLength == 300 {
			// Whole-text params identify the recombination pass.
			return finalSummary, nil
		}
		chunkCalls++
		return words(200), nil
	}

	r := summarize.NewReducer(gen)

	got, err := r.Reduce(context.Background(), words(1500), summarize.StyleDetailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != finalSummary {
		t.Errorf("got %q, want recombined %q", got, finalSummary)
	}
	if chunkCalls < 2 {
		t.Errorf("chunk calls = %d, want >=2", chunkCalls)
	}
	if len(gen.calls) != chunkCalls+1 {
		t.Errorf("total calls = %d, want chunk calls + one recombination = %d",
			len(gen.calls), chunkCalls+1)
	}
}

func TestReduceBulletPointsSkipsRecombination(t *testing.T) {
	t.Parallel()

	// Even though the combined summaries exceed the bullet target of 200
	// words, bullet style accepts the concatenation and only reformats.
	gen := &fakeGenerator{
		reply: func(call int, _ string, _ summarize.Params) (string, error) {
			return fmt.Sprintf("Long point number %d from chunk. Another fact from chunk %d.", call, call), nil
		},
	}
	r := summarize.NewReducer(gen)

	got, err := r.Reduce(context.Background(), words(1500), summarize.StyleBulletPoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(got, "• ") {
		t.Errorf("bullet output missing marker: %q", got)
	}
	if strings.Contains(got, ". ") {
		t.Errorf("bullet output retains sentence separator: %q", got)
	}

	// Every call used per-chunk params; none saw the whole-text target.
	for i, call := range gen.calls {
		if call.params.MaxLength == 200 {
			t.Errorf("call %d used whole-text params %+v; bullet style must not recombine",
				i, call.params)
		}
	}
}

func TestReduceBulletFormatting(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		reply: func(int, string, summarize.Params) (string, error) {
			return "Point one. Point two. Point three.", nil
		},
	}
	r := summarize.NewReducer(gen)

	got, err := r.Reduce(context.Background(), words(100), summarize.StyleBulletPoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "• Point one\n• Point two\n• Point three"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReduceGenerationFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("model exploded")

	for _, wordCount := range []int{100, 1500} {
		gen := &fakeGenerator{failure: cause}
		r := summarize.NewReducer(gen)

		_, err := r.Reduce(context.Background(), words(wordCount), summarize.StyleDetailed)
		if err == nil {
			t.Fatalf("wc %d: expected error", wordCount)
		}
		if !errors.Is(err, summarize.ErrGeneration) {
			t.Errorf("wc %d: error %v does not wrap ErrGeneration", wordCount, err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("wc %d: error %v does not wrap the cause", wordCount, err)
		}
	}
}

func TestReduceContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{}
	r := summarize.NewReducer(gen)

	_, err := r.Reduce(ctx, words(1500), summarize.StyleDetailed)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
