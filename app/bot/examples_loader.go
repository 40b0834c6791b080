package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
)

// examplesImporter loads json-lines examples into the storage
type examplesImporter interface {
	Import(ctx context.Context, r io.Reader) (int, error)
}

// ExamplesLoader bootstraps the example store from a json-lines file and keeps
// it in sync while the file changes on disk. Import is idempotent, so a
// partial write followed by another event is harmless.
type ExamplesLoader struct {
	store examplesImporter
	path  string
}

// NewExamplesLoader makes a loader for the given file
func NewExamplesLoader(store examplesImporter, path string) *ExamplesLoader {
	return &ExamplesLoader{store: store, path: path}
}

// Load imports the file once, used at startup. A missing file is not an
// error, the store just starts empty.
func (l *ExamplesLoader) Load(ctx context.Context) error {
	if l.path == "" {
		return nil
	}
	data, err := readFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[INFO] no examples file %s, skipping bootstrap", l.path)
			return nil
		}
		return err
	}
	count, err := l.store.Import(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to import examples from %s: %w", l.path, err)
	}
	log.Printf("[INFO] loaded %d examples from %s", count, l.path)
	return nil
}

// Watch blocks watching the examples file and re-imports it on every write,
// returns when the context is canceled
func (l *ExamplesLoader) Watch(ctx context.Context) error {
	if l.path == "" {
		return nil
	}
	return watch(ctx, l.path, func(r io.Reader) error {
		count, err := l.store.Import(ctx, r)
		if err != nil {
			return err
		}
		log.Printf("[INFO] reloaded %d examples from %s", count, l.path)
		return nil
	})
}

// watch starts watching file for changes and calls onDataChange callback
func watch(ctx context.Context, path string, onDataChange func(io.Reader) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	done := make(chan bool)
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[INFO] stopping watcher for %s, %v", path, ctx.Err())
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					data, e := readFile(path)
					if e != nil {
						log.Printf("[WARN] failed to read updated file %s: %v", path, e)
						continue
					}
					if e = onDataChange(data); e != nil {
						log.Printf("[WARN] failed to load updated file %s: %v", path, e)
						continue
					}
				}
			case e, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] watcher error: %v", e)
			}
		}
	}()

	err = watcher.Add(path)
	if err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", path, err)
	}
	<-done
	return nil
}

func readFile(path string) (io.Reader, error) {
	file, err := os.Open(path) //nolint gosec // path is controlled by the app
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return bytes.NewReader(data), nil
}
