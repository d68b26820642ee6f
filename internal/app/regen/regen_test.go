package regen

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/discovery"
	"loglens/internal/app/filter"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	gate    chan struct{}
}

func (f *fakeGenerator) Generate(_ context.Context, _ []discovery.Group, _ *filter.State, _ aggregator.DisplaySettings) (*aggregator.Document, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}

	if f.gate != nil {
		<-f.gate
	}

	return &aggregator.Document{Text: "doc"}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type commitRecorder struct {
	mu       sync.Mutex
	versions []uint64
}

func (c *commitRecorder) commit(_ *aggregator.Document, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions = append(c.versions, version)
}

func (c *commitRecorder) committed() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]uint64(nil), c.versions...)
}

func testLogger() logger.Logger {
	cfg := config.DefaultConfig()
	cfg.Logging.Format = logger.JSONFormat

	return logger.NewLoggerWithOutput(cfg, io.Discard)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Regen.Debounce = 10 * time.Millisecond

	return cfg
}

func emptySnapshot() Snapshot {
	return Snapshot{State: filter.NewState(time.Hour)}
}

func Test_Manager_ScheduleCommits(t *testing.T) {
	gen := &fakeGenerator{}
	rec := &commitRecorder{}

	m := NewManager(gen, testConfig(), testLogger(), emptySnapshot, rec.commit)
	defer m.Close()

	m.Schedule("file changed")

	require.Eventually(t, func() bool {
		return len(rec.committed()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []uint64{1}, rec.committed())
}

func Test_Manager_DebounceCoalescesBursts(t *testing.T) {
	gen := &fakeGenerator{}
	rec := &commitRecorder{}

	m := NewManager(gen, testConfig(), testLogger(), emptySnapshot, rec.commit)
	defer m.Close()

	for i := 0; i < 5; i++ {
		m.Schedule("burst")
	}

	require.Eventually(t, func() bool {
		return len(rec.committed()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []uint64{5}, rec.committed())
	assert.Equal(t, 1, gen.callCount())
}

func Test_Manager_LatestWins(t *testing.T) {
	gen := &fakeGenerator{
		started: make(chan struct{}, 2),
		gate:    make(chan struct{}, 2),
	}
	rec := &commitRecorder{}

	m := NewManager(gen, testConfig(), testLogger(), emptySnapshot, rec.commit)
	defer m.Close()

	m.Schedule("first")

	// Wait for the first pass to start, then supersede it while it runs.
	<-gen.started
	m.Schedule("second")

	time.Sleep(30 * time.Millisecond)
	gen.gate <- struct{}{}

	<-gen.started
	gen.gate <- struct{}{}

	require.Eventually(t, func() bool {
		return len(rec.committed()) == 1
	}, time.Second, 5*time.Millisecond)

	// The superseded first pass is never committed.
	assert.Equal(t, []uint64{2}, rec.committed())
	assert.Equal(t, 2, gen.callCount())
}

func Test_Manager_CloseStopsScheduling(t *testing.T) {
	gen := &fakeGenerator{}
	rec := &commitRecorder{}

	m := NewManager(gen, testConfig(), testLogger(), emptySnapshot, rec.commit)
	m.Close()

	m.Schedule("after close")

	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, rec.committed())
	assert.Equal(t, 0, gen.callCount())
}
