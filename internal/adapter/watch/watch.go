// Package watch reads GSSHA model files from a drop directory. New files
// wake the extractor through fsnotify; a poll interval backstops missed
// events and picks up files present before the watch started.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/couchcryptid/gssha-etl/internal/domain"
)

// settle is how long a file must sit unmodified before it is picked up,
// so partially written files are not read mid-copy.
const settle = 200 * time.Millisecond

// Extractor turns drop-directory files into pipeline input. Committing a
// file moves it to the processed directory so it is not extracted again.
type Extractor struct {
	dir          string
	processedDir string
	pollInterval time.Duration
	logger       *slog.Logger
	watcher      *fsnotify.Watcher
}

// New creates an Extractor watching dir. The processed directory is created
// if it does not exist.
func New(dir, processedDir string, pollInterval time.Duration, logger *slog.Logger) (*Extractor, error) {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create processed dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Extractor{
		dir:          dir,
		processedDir: processedDir,
		pollInterval: pollInterval,
		logger:       logger,
		watcher:      watcher,
	}, nil
}

// ExtractBatch blocks until at least one model file is ready, then returns
// up to batchSize files in name order.
func (e *Extractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.ModelFile, error) {
	for {
		files, err := e.scan(batchSize)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			return files, nil
		}

		timer := time.NewTimer(e.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-e.watcher.Events:
		case err, ok := <-e.watcher.Errors:
			if ok {
				e.logger.Warn("drop directory watch error", "error", err)
			}
		case <-timer.C:
		}
		timer.Stop()
	}
}

// scan lists the drop directory and returns settled files with a recognized
// extension.
func (e *Extractor) scan(batchSize int) ([]domain.ModelFile, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("read drop dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []domain.ModelFile
	for _, entry := range entries {
		if len(files) == batchSize {
			break
		}
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(e.dir, entry.Name())
		kind := domain.DetectKind(path)
		if kind == domain.KindUnknown {
			e.logger.Debug("skipping unrecognized file", "path", path)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < settle {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("read model file failed", "path", path, "error", err)
			continue
		}

		files = append(files, domain.ModelFile{
			Path:    path,
			Kind:    kind,
			Data:    data,
			ModTime: info.ModTime(),
			Commit:  e.commitFunc(path),
		})
	}
	return files, nil
}

// commitFunc moves a consumed file out of the drop directory.
func (e *Extractor) commitFunc(path string) func(ctx context.Context) error {
	return func(_ context.Context) error {
		dest := filepath.Join(e.processedDir, filepath.Base(path))
		if err := os.Rename(path, dest); err != nil {
			return fmt.Errorf("move to processed: %w", err)
		}
		return nil
	}
}

// Close stops the directory watch.
func (e *Extractor) Close() error {
	return e.watcher.Close()
}
