// Package watch monitors a drop folder and feeds new videos through the
// summarization pipeline.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// settleDelay gives the writer time to finish before the file is read.
// fsnotify fires on create, not on close.
const settleDelay = 500 * time.Millisecond

// videoExtensions mirrors the upload allowlist.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// Handler processes one detected video file.
type Handler func(ctx context.Context, videoPath string) error

// Watcher monitors a directory for new video files.
//
// Files are handled strictly one at a time: the pipeline's collaborators
// are a single shared model resource, so there is nothing to gain from
// queueing concurrent work against them.
type Watcher struct {
	dir     string
	handler Handler
	log     logrus.FieldLogger
	fsw     *fsnotify.Watcher
}

// New creates a Watcher on dir, invoking handler for each new video.
func New(dir string, handler Handler, log logrus.FieldLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		handler: handler,
		log:     log,
		fsw:     fsw,
	}, nil
}

// Run blocks, processing new videos until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.WithField("dir", w.dir).Info("watching for new videos")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) || !isVideo(event.Name) {
				continue
			}

			w.log.WithField("video", filepath.Base(event.Name)).Info("new video detected")
			select {
			case <-time.After(settleDelay):
			case <-ctx.Done():
				return ctx.Err()
			}

			if err := w.handler(ctx, event.Name); err != nil {
				w.log.WithError(err).WithField("video", filepath.Base(event.Name)).
					Error("processing failed")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.WithError(err).Error("watcher error")
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// isVideo reports whether path has a supported video extension.
func isVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}
