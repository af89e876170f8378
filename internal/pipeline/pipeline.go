// Package pipeline orchestrates the video summarization flow:
// extract audio, transcribe, reduce, optionally translate.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/vidbrief/vidbrief/internal/extract"
	"github.com/vidbrief/vidbrief/internal/summarize"
	"github.com/vidbrief/vidbrief/internal/transcribe"
	"github.com/vidbrief/vidbrief/internal/translate"
)

// Reducer reduces a transcript to a styled summary.
type Reducer interface {
	Reduce(ctx context.Context, transcript string, style summarize.Style) (string, error)
}

// Translator performs best-effort English translation.
type Translator interface {
	ToEnglish(ctx context.Context, text string) string
	Segments(ctx context.Context, segments []transcribe.Segment) []translate.SegmentTranslation
}

// Compile-time interface compliance checks.
var (
	_ Reducer    = (*summarize.Reducer)(nil)
	_ Translator = (*translate.Translator)(nil)
)

// Result is the outcome of processing one video.
type Result struct {
	Filename         string                         `json:"filename"`
	Transcript       string                         `json:"transcript"`
	Language         string                         `json:"language"`
	Summary          string                         `json:"summary"`
	Style            summarize.Style                `json:"summary_type"`
	WordCount        int                            `json:"word_count"`
	TranscriptLength int                            `json:"transcript_length"`
	Translated       bool                           `json:"translated"`
	Segments         []translate.SegmentTranslation `json:"segments,omitempty"`
}

// Pipeline wires the collaborators together. All handles are injected at
// construction and shared read-only for the process lifetime; the pipeline
// itself holds no per-request state.
type Pipeline struct {
	extractor   extract.AudioExtractor
	transcriber transcribe.Transcriber
	reducer     Reducer
	translator  Translator
	log         logrus.FieldLogger
}

// New creates a Pipeline from its collaborators.
func New(
	extractor extract.AudioExtractor,
	transcriber transcribe.Transcriber,
	reducer Reducer,
	translator Translator,
	log logrus.FieldLogger,
) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		extractor:   extractor,
		transcriber: transcriber,
		reducer:     reducer,
		translator:  translator,
		log:         log,
	}
}

// Process runs the full flow for one video. The temporary audio artifact
// is removed on both success and failure. When translateOut is set, the
// summary and segments are additionally translated to English on a
// best-effort basis (translation failure never fails the request).
func (p *Pipeline) Process(ctx context.Context, videoPath string, style summarize.Style, translateOut bool) (Result, error) {
	filename := filepath.Base(videoPath)
	log := p.log.WithField("video", filename)

	log.Info("extracting audio")
	audioPath, err := p.extractor.Extract(ctx, videoPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	defer func() {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("failed to remove temporary audio file")
		}
	}()

	log.Info("transcribing audio")
	tr, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	log.WithFields(logrus.Fields{
		"language": tr.Language,
		"words":    summarize.WordCount(tr.Text),
	}).Info("generating summary")
	summary, err := p.reducer.Reduce(ctx, tr.Text, style)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSummarization, err)
	}

	result := Result{
		Filename:         filename,
		Transcript:       tr.Text,
		Language:         tr.Language,
		Summary:          summary,
		Style:            style,
		WordCount:        summarize.WordCount(tr.Text),
		TranscriptLength: len(tr.Text),
	}

	if translateOut && p.translator != nil {
		result.Summary = p.translator.ToEnglish(ctx, summary)
		result.Segments = p.translator.Segments(ctx, tr.Segments)
		result.Translated = true
	}

	return result, nil
}

// SummarizeTranscript reduces an existing transcript without touching the
// extraction or transcription collaborators.
func (p *Pipeline) SummarizeTranscript(ctx context.Context, transcript string, style summarize.Style) (string, error) {
	summary, err := p.reducer.Reduce(ctx, transcript, style)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarization, err)
	}
	return summary, nil
}

// Translate translates arbitrary text to English, degrading to the
// original text on failure.
func (p *Pipeline) Translate(ctx context.Context, text string) string {
	if p.translator == nil {
		return text
	}
	return p.translator.ToEnglish(ctx, text)
}
