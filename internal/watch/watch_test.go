package watch_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vidbrief/vidbrief/internal/watch"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestWatcherHandlesNewVideo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seen := make(chan string, 1)

	w, err := watch.New(dir, func(_ context.Context, path string) error {
		seen <- path
		return nil
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	target := filepath.Join(dir, "lecture.mp4")
	if err := os.WriteFile(target, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-seen:
		if got != target {
			t.Errorf("handler saw %q, want %q", got, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never invoked for new video")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestWatcherIgnoresNonVideo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seen := make(chan string, 2)

	w, err := watch.New(dir, func(_ context.Context, path string) error {
		seen <- path
		return nil
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A video after the non-video proves ordering: if the .txt had been
	// handled it would arrive first.
	video := filepath.Join(dir, "talk.webm")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-seen:
		if got != video {
			t.Errorf("handler saw %q, want only %q", got, video)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestWatcherSurvivesHandlerFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls := make(chan string, 2)

	w, err := watch.New(dir, func(_ context.Context, path string) error {
		calls <- path
		return errors.New("pipeline down")
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	for _, name := range []string{"a.mp4", "b.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatal("watcher stopped handling after a failure")
		}
	}
}

func TestNewRejectsMissingDir(t *testing.T) {
	t.Parallel()

	if _, err := watch.New(filepath.Join(t.TempDir(), "absent"), nil, quietLogger()); err == nil {
		t.Error("expected error for missing directory")
	}
}
