package pipeline

import "errors"

// Failure taxonomy. Extraction, transcription, and summarization failures
// are fatal to the request; translation failure is not represented here
// because the translator degrades to the original text instead of failing.

// ErrExtraction indicates the audio extraction collaborator failed.
var ErrExtraction = errors.New("audio extraction failed")

// ErrTranscription indicates the transcription collaborator failed.
var ErrTranscription = errors.New("transcription failed")

// ErrSummarization indicates the generation collaborator failed during
// reduction. Surfaced as-is: no automatic retry, no degraded summary.
var ErrSummarization = errors.New("summarization failed")
