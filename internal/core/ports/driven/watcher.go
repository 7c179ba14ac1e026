package driven

import "github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"

// CorpusWatcher reports document changes in the corpus as they happen.
// Implementations batch rapid sequences of events (editors often write
// a file several times in quick succession).
type CorpusWatcher interface {
	// Events returns the change stream. The channel is closed when
	// the watcher shuts down.
	Events() <-chan domain.CorpusChange

	// Close stops watching and releases resources.
	Close() error
}
