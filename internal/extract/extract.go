// Package extract derives mono WAV audio tracks from uploaded video files
// by shelling out to FFmpeg.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrFFmpegNotFound indicates the FFmpeg binary is not installed.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// ErrExtractionFailed indicates FFmpeg could not produce an audio track.
var ErrExtractionFailed = errors.New("audio extraction failed")

// AudioExtractor derives an audio file from a video file.
type AudioExtractor interface {
	// Extract writes the video's audio track to a temporary WAV file and
	// returns its path. The caller owns the file and must remove it.
	Extract(ctx context.Context, videoPath string) (string, error)
}

// runFn executes a command and returns its combined stderr output.
// Injectable for testing: FFmpeg writes diagnostics to stderr.
type runFn func(ctx context.Context, bin string, args []string) (string, error)

// Compile-time interface compliance check.
var _ AudioExtractor = (*FFmpegExtractor)(nil)

// FFmpegExtractor extracts audio using an FFmpeg subprocess.
// Output is 16 kHz mono PCM WAV, the format speech-to-text models expect.
type FFmpegExtractor struct {
	binPath string
	tempDir string
	run     runFn
}

// Option configures an FFmpegExtractor.
type Option func(*FFmpegExtractor)

// WithBinaryPath sets an explicit FFmpeg binary path, bypassing PATH lookup.
func WithBinaryPath(p string) Option {
	return func(e *FFmpegExtractor) {
		if p != "" {
			e.binPath = p
		}
	}
}

// WithTempDir sets the directory for extracted audio files.
func WithTempDir(dir string) Option {
	return func(e *FFmpegExtractor) {
		if dir != "" {
			e.tempDir = dir
		}
	}
}

// withRun sets a custom process runner (for testing).
func withRun(fn runFn) Option {
	return func(e *FFmpegExtractor) {
		e.run = fn
	}
}

// NewFFmpegExtractor creates an FFmpegExtractor, resolving the binary from
// PATH unless WithBinaryPath overrides it.
func NewFFmpegExtractor(opts ...Option) (*FFmpegExtractor, error) {
	e := &FFmpegExtractor{
		tempDir: os.TempDir(),
		run:     defaultRun,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.binPath == "" {
		p, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("%w: install ffmpeg or set its path in config", ErrFFmpegNotFound)
		}
		e.binPath = p
	}

	return e, nil
}

// Extract derives a WAV audio file from videoPath. On failure the partial
// output file is removed before returning.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	out, err := os.CreateTemp(e.tempDir, "vidbrief-audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	audioPath := out.Name()
	if err := out.Close(); err != nil {
		_ = os.Remove(audioPath)
		return "", fmt.Errorf("close temp audio file: %w", err)
	}

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	}

	if stderr, err := e.run(ctx, e.binPath, args); err != nil {
		_ = os.Remove(audioPath)
		return "", fmt.Errorf("%w: %s: %v",
			ErrExtractionFailed, filepath.Base(videoPath), lastLine(stderr))
	}

	return audioPath, nil
}

// defaultRun is the production process runner.
func defaultRun(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// lastLine returns the final non-empty line of FFmpeg's stderr, which is
// where it states the actual failure.
func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
