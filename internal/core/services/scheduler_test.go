package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// mockOrchestrator records the calls the scheduler makes.
type mockOrchestrator struct {
	mu       sync.Mutex
	starts   [][]string
	removed  []string
	startErr error
}

func (m *mockOrchestrator) Start(_ context.Context, targets []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return "", m.startErr
	}
	m.starts = append(m.starts, append([]string(nil), targets...))
	return "job-1", nil
}

func (m *mockOrchestrator) Status(string) (domain.IndexJob, error) { return domain.IndexJob{}, nil }
func (m *mockOrchestrator) Active() (domain.IndexJob, bool)        { return domain.IndexJob{}, false }
func (m *mockOrchestrator) Cancel(string) error                    { return nil }
func (m *mockOrchestrator) Wait(string) (domain.IndexJob, error)   { return domain.IndexJob{}, nil }
func (m *mockOrchestrator) Close() error                           { return nil }

func (m *mockOrchestrator) RemoveDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, documentID)
	return nil
}

func (m *mockOrchestrator) snapshot() (starts [][]string, removed []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.starts...), append([]string(nil), m.removed...)
}

// mockWatcher feeds change batches through a channel.
type mockWatcher struct {
	ch chan domain.CorpusChange
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{ch: make(chan domain.CorpusChange)}
}

func (m *mockWatcher) Events() <-chan domain.CorpusChange { return m.ch }
func (m *mockWatcher) Close() error                       { close(m.ch); return nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSchedulerSyncsOnStartup(t *testing.T) {
	orch := &mockOrchestrator{}
	sched := NewScheduler(time.Hour, orch, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sched.Start(context.Background())
	}()

	waitFor(t, func() bool {
		starts, _ := orch.snapshot()
		return len(starts) == 1
	})

	require.NoError(t, sched.Stop())
	<-done

	starts, _ := orch.snapshot()
	require.Len(t, starts, 1)
	// Startup sync covers the whole corpus.
	assert.Empty(t, starts[0])
}

func TestSchedulerPeriodicSync(t *testing.T) {
	orch := &mockOrchestrator{}
	sched := NewScheduler(10*time.Millisecond, orch, nil)

	go func() { _ = sched.Start(context.Background()) }()

	waitFor(t, func() bool {
		starts, _ := orch.snapshot()
		return len(starts) >= 3
	})
	require.NoError(t, sched.Stop())
}

func TestSchedulerAppliesWatcherEvents(t *testing.T) {
	orch := &mockOrchestrator{}
	watcher := newMockWatcher()
	sched := NewScheduler(time.Hour, orch, watcher)

	go func() { _ = sched.Start(context.Background()) }()
	waitFor(t, func() bool {
		starts, _ := orch.snapshot()
		return len(starts) == 1
	})

	watcher.ch <- domain.CorpusChange{
		Changed: []string{"doc-a", "doc-b"},
		Removed: []string{"doc-c"},
	}

	waitFor(t, func() bool {
		starts, removed := orch.snapshot()
		return len(starts) == 2 && len(removed) == 1
	})
	require.NoError(t, sched.Stop())

	starts, removed := orch.snapshot()
	assert.Equal(t, []string{"doc-a", "doc-b"}, starts[1])
	assert.Equal(t, []string{"doc-c"}, removed)
}

func TestSchedulerToleratesRunningJob(t *testing.T) {
	orch := &mockOrchestrator{startErr: domain.ErrJobAlreadyRunning}
	watcher := newMockWatcher()
	sched := NewScheduler(10*time.Millisecond, orch, watcher)

	go func() { _ = sched.Start(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	watcher.ch <- domain.CorpusChange{Changed: []string{"doc-a"}}
	time.Sleep(20 * time.Millisecond)

	// No starts recorded, no panic: the busy indexer is tolerated.
	require.NoError(t, sched.Stop())
	starts, _ := orch.snapshot()
	assert.Empty(t, starts)
}

func TestSchedulerSurvivesWatcherClose(t *testing.T) {
	orch := &mockOrchestrator{}
	watcher := newMockWatcher()
	sched := NewScheduler(10*time.Millisecond, orch, watcher)

	go func() { _ = sched.Start(context.Background()) }()
	waitFor(t, func() bool {
		starts, _ := orch.snapshot()
		return len(starts) >= 1
	})

	require.NoError(t, watcher.Close())

	// Periodic sync keeps running after the event stream ends.
	before, _ := orch.snapshot()
	waitFor(t, func() bool {
		starts, _ := orch.snapshot()
		return len(starts) > len(before)
	})
	require.NoError(t, sched.Stop())
}
