// Package watcher ingests audio files dropped into an inbox directory as if
// they had been uploaded.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"audio-diary/constant"
)

// IngestFunc handles one newly arrived audio file.
type IngestFunc func(ctx context.Context, path string) error

type Watcher struct {
	inputDir string
	handler  IngestFunc
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
}

func New(inputDir string, handler IngestFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(inputDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{
		inputDir: inputDir,
		handler:  handler,
		watcher:  fsw,
	}, nil
}

// Start monitors the inbox until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	zerolog.Ctx(ctx).Info().Str("dir", w.inputDir).Msg("inbox watcher started")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			zerolog.Ctx(ctx).Info().Msg("inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !constant.IsAudioExtension(filepath.Ext(event.Name)) {
				continue
			}

			zerolog.Ctx(ctx).Info().Str("file", event.Name).Msg("new audio file detected")

			// Small delay so the writer has finished the file.
			time.Sleep(500 * time.Millisecond)

			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				if err := w.handler(ctx, path); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Str("file", path).Msg("failed to ingest file")
				}
			}(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			zerolog.Ctx(ctx).Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
