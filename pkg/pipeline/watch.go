package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// DefaultWatchSettle is the quiet period Watch waits for after the last write.
const DefaultWatchSettle = 500 * time.Millisecond

// WatchEvent is delivered for every CLML file processed by Watch.
type WatchEvent struct {
	Path    string
	Op      string // "create" or "modify"
	Outcome *Outcome
	Err     error
}

// pendingFile is a file with unsettled writes. Each write restarts its
// timer under a new generation so a timer that already fired is ignored.
type pendingFile struct {
	timer      *time.Timer
	generation int
	created    bool
}

type settledFile struct {
	name       string
	generation int
}

// Watch processes *.xml files in dir whenever they are created or written,
// calling handle with each result. A file is processed once no write to it
// has been seen for the settle period, so a file being copied in is read
// whole and only once. Watch blocks until ctx is done and returns nil on
// cancellation. Files already present are not processed.
func (pipeline *Pipeline) Watch(ctx context.Context, dir string, opts Options, handle func(WatchEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	pipeline.logger.Info("watching for CLML files", zap.String("dir", dir), zap.Duration("settle", pipeline.settle))

	pending := make(map[string]*pendingFile)
	settled := make(chan settledFile)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, file := range pending {
			file.timer.Stop()
		}
	}()

	schedule := func(name string, file *pendingFile) {
		file.generation++
		ready := settledFile{name: name, generation: file.generation}
		file.timer = time.AfterFunc(pipeline.settle, func() {
			select {
			case settled <- ready:
			case <-done:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".xml") {
				continue
			}
			created := event.Op&fsnotify.Create == fsnotify.Create
			if !created && event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}

			file, found := pending[event.Name]
			if found {
				file.timer.Stop()
				file.created = file.created || created
			} else {
				file = &pendingFile{created: created}
				pending[event.Name] = file
			}
			schedule(event.Name, file)

		case ready := <-settled:
			file, found := pending[ready.name]
			if !found || file.generation != ready.generation {
				continue
			}
			delete(pending, ready.name)

			op := "modify"
			if file.created {
				op = "create"
			}
			outcome, err := pipeline.RunFile(ctx, ready.name, opts)
			if err != nil {
				pipeline.logger.Warn("watched file failed", zap.String("path", ready.name), zap.Error(err))
			}
			handle(WatchEvent{Path: ready.name, Op: op, Outcome: outcome, Err: err})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			pipeline.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
