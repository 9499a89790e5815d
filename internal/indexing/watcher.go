package indexing

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/substratelabs/hsi/internal/config"
)

// FileEventType classifies a debounced file event.
type FileEventType uint8

const (
	FileEventCreate FileEventType = iota
	FileEventWrite
	FileEventRemove
	FileEventRename
)

// FileWatcher keeps the graph current while the process runs. Events are
// debounced per path so an editor's save burst produces one re-index.
type FileWatcher struct {
	cfg       *config.Config
	indexer   *Indexer
	scanner   *FileScanner
	watcher   *fsnotify.Watcher
	debouncer *eventDebouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileWatcher creates a watcher that feeds the given indexer.
func NewFileWatcher(cfg *config.Config, indexer *Indexer, scanner *FileScanner) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		cfg:     cfg,
		indexer: indexer,
		scanner: scanner,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}
	fw.debouncer = newEventDebouncer(
		time.Duration(cfg.Index.WatchDebounceMs)*time.Millisecond, fw.apply)
	return fw, nil
}

// Start adds watches for the whole directory tree under root and begins
// processing events.
func (fw *FileWatcher) Start(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr == nil && path != root && fw.scanner.excluded(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if werr := fw.watcher.Add(path); werr != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, werr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.processEvents()
	return nil
}

// Stop tears the watcher down. Events still pending in the debouncer are
// dropped; the graph is going away with the process anyway.
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()
	fw.debouncer.stop()
	return err
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	rel, err := filepath.Rel(fw.cfg.Project.Root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	info, err := os.Stat(path)
	if err != nil {
		// Path is gone; only removals are interesting now.
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && fw.scanner.ShouldProcess(rel, path) {
			fw.debouncer.addEvent(path, FileEventRemove)
		}
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !fw.scanner.excluded(rel) {
			if werr := fw.watcher.Add(path); werr != nil {
				log.Printf("Warning: failed to add watch for new directory %s: %v", path, werr)
			}
		}
		return
	}

	if !fw.scanner.ShouldProcess(rel, path) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		fw.debouncer.addEvent(path, FileEventCreate)
	case event.Op&fsnotify.Write != 0:
		fw.debouncer.addEvent(path, FileEventWrite)
	case event.Op&fsnotify.Remove != 0:
		fw.debouncer.addEvent(path, FileEventRemove)
	case event.Op&fsnotify.Rename != 0:
		fw.debouncer.addEvent(path, FileEventRename)
	}
}

// apply executes one debounced batch. Removals run first so a rename seen
// as remove+create settles on the create.
func (fw *FileWatcher) apply(events map[string]FileEventType) {
	log.Printf("Processing %d debounced file events", len(events))
	for path, eventType := range events {
		if eventType == FileEventRemove || eventType == FileEventRename {
			fw.indexer.RemoveFile(path)
		}
	}
	for path, eventType := range events {
		if eventType == FileEventCreate || eventType == FileEventWrite {
			if err := fw.indexer.IndexFile(fw.ctx, path); err != nil {
				log.Printf("Re-index failed for %s: %v", path, err)
			}
		}
	}
}

// eventDebouncer batches file events so bursts collapse into one apply.
type eventDebouncer struct {
	mu       sync.Mutex
	events   map[string]FileEventType
	debounce time.Duration
	timer    *time.Timer
	apply    func(map[string]FileEventType)
}

func newEventDebouncer(debounce time.Duration, apply func(map[string]FileEventType)) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]FileEventType),
		debounce: debounce,
		apply:    apply,
	}
}

// addEvent records the latest event for a path and resets the flush timer.
func (d *eventDebouncer) addEvent(path string, eventType FileEventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[path] = eventType
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

func (d *eventDebouncer) flush() {
	d.mu.Lock()
	events := d.events
	d.events = make(map[string]FileEventType)
	d.mu.Unlock()

	if len(events) == 0 {
		return
	}
	d.apply(events)
}

func (d *eventDebouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]FileEventType)
}
