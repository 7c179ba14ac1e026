// Package watch observes a corpus directory with fsnotify and emits
// debounced change batches. Editors often write a file several times in
// quick succession; batching keeps the indexer from churning.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/corpus/filesystem"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.CorpusWatcher = (*Watcher)(nil)

// DefaultDebounce is the quiet period before a batch is emitted.
const DefaultDebounce = 500 * time.Millisecond

// Watcher emits corpus change batches for a filesystem source.
type Watcher struct {
	source   *filesystem.Source
	fsw      *fsnotify.Watcher
	events   chan domain.CorpusChange
	debounce time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// New starts watching the source's directory tree. The debounce
// duration controls how long the watcher waits for the corpus to go
// quiet before emitting a batch; zero means DefaultDebounce.
func New(source *filesystem.Source, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		source:   source,
		fsw:      fsw,
		events:   make(chan domain.CorpusChange),
		debounce: debounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	// fsnotify does not recurse; register every directory up front.
	// New subdirectories are added as their create events arrive.
	if err := w.addRecursive(source.Root()); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Events returns the change stream.
func (w *Watcher) Events() <-chan domain.CorpusChange {
	return w.events
}

// Close stops watching. The event channel is closed once the loop
// drains.
func (w *Watcher) Close() error {
	select {
	case <-w.stop:
		return nil
	default:
	}
	close(w.stop)
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// run accumulates raw events and flushes a batch after a quiet period.
func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)

	var (
		changed = make(map[string]bool)
		removed = make(map[string]bool)
		timer   *time.Timer
		flushCh <-chan time.Time
	)

	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			flushCh = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	for {
		select {
		case <-w.stop:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.absorb(ev, changed, removed) {
				resetTimer()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)

		case <-flushCh:
			batch := buildBatch(changed, removed)
			changed = make(map[string]bool)
			removed = make(map[string]bool)
			flushCh = nil
			timer = nil
			if batch.Empty() {
				continue
			}
			select {
			case w.events <- batch:
			case <-w.stop:
				return
			}
		}
	}
}

// absorb folds one raw event into the pending batch. Reports whether
// the event was relevant.
func (w *Watcher) absorb(ev fsnotify.Event, changed, removed map[string]bool) bool {
	// A created directory must be watched for events beneath it.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				logger.Warn("Failed to watch new directory %s: %v", ev.Name, err)
			}
			return false
		}
	}

	if !w.source.Matches(ev.Name) {
		return false
	}
	id, ok := w.source.IDForPath(ev.Name)
	if !ok {
		return false
	}

	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		delete(changed, id)
		removed[id] = true
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		delete(removed, id)
		changed[id] = true
	default:
		// Chmod and friends carry no content change.
		return false
	}
	return true
}

func buildBatch(changed, removed map[string]bool) domain.CorpusChange {
	var batch domain.CorpusChange
	for id := range changed {
		batch.Changed = append(batch.Changed, id)
	}
	for id := range removed {
		batch.Removed = append(batch.Removed, id)
	}
	sort.Strings(batch.Changed)
	sort.Strings(batch.Removed)
	return batch
}
