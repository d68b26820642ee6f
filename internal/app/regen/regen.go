package regen

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/looplab/fsm"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/discovery"
	"loglens/internal/app/errors"
	"loglens/internal/app/filter"
	"loglens/internal/app/watcher"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// FSM states
const (
	Idle       = "idle"
	Generating = "generating"
)

// FSM events
const (
	Trigger  = "trigger"
	Finished = "finished"
)

// FSM callbacks
const (
	OnGenerating = "enter_" + Generating
)

// Snapshot captures everything one generation pass needs
type Snapshot struct {
	Groups   []discovery.Group
	State    *filter.State
	Settings aggregator.DisplaySettings
}

// SnapshotFunc supplies the current inputs at generation time
type SnapshotFunc func() Snapshot

// CommitFunc receives a finished document. It is only invoked when the
// document still reflects the newest scheduled version.
type CommitFunc func(doc *aggregator.Document, version uint64)

// Manager debounces regeneration requests and guarantees that only the
// newest requested version is ever committed. Requests arriving while a
// pass is running restart the pass instead of queueing behind it.
type Manager interface {
	Schedule(reason string)
	Version() uint64
	Close()
}

// manager implements the Manager interface
type manager struct {
	gen      aggregator.Generator
	log      logger.Logger
	snapshot SnapshotFunc
	commit   CommitFunc

	debouncer watcher.Debouncer
	machine   *fsm.FSM
	version   atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	wg     sync.WaitGroup
}

// NewManager creates a regeneration manager
func NewManager(gen aggregator.Generator, cfg *config.Config, log logger.Logger, snapshot SnapshotFunc, commit CommitFunc) Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &manager{
		gen:      gen,
		log:      log.WithComponent("REGEN"),
		snapshot: snapshot,
		commit:   commit,
		ctx:      ctx,
		cancel:   cancel,
	}

	m.machine = newRegenFSM(m)
	m.debouncer = watcher.NewDebouncer(cfg.Regen.Debounce, m.onQuiet)

	return m
}

// newRegenFSM creates the idle/generating lifecycle machine
func newRegenFSM(m *manager) *fsm.FSM {
	return fsm.NewFSM(
		Idle,
		fsm.Events{
			{Name: Trigger, Src: []string{Idle}, Dst: Generating},
			{Name: Finished, Src: []string{Generating}, Dst: Idle},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				m.log.Debug().Msgf("STATE: %s → %s (trigger: %s)", e.Src, e.Dst, e.Event)
			},
			OnGenerating: func(ctx context.Context, e *fsm.Event) {
				m.wg.Add(1)
				go m.run()
			},
		},
	)
}

// Schedule bumps the target version and arms the debounce timer
func (m *manager) Schedule(reason string) {
	m.version.Add(1)
	m.debouncer.Trigger(reason)
}

// Version returns the newest scheduled version
func (m *manager) Version() uint64 {
	return m.version.Load()
}

// Close cancels any running pass and waits for it to drain
func (m *manager) Close() {
	m.cancel()
	m.debouncer.Stop()
	m.wg.Wait()
}

// onQuiet fires after the debounce quiet period
func (m *manager) onQuiet(reasons []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return
	}

	if m.machine.Current() != Idle {
		// The running pass re-checks the version and restarts itself.
		return
	}

	m.log.Debug().Strs("reasons", reasons).Msg("Regeneration triggered")

	if err := m.machine.Event(context.Background(), Trigger); err != nil {
		m.log.Error().Err(err).Msg("Failed to enter generating state")
	}
}

// run regenerates until the produced document matches the newest
// scheduled version, then returns the machine to idle.
func (m *manager) run() {
	defer m.wg.Done()

	for {
		target := m.version.Load()
		snap := m.snapshot()

		doc, err := m.gen.Generate(m.ctx, snap.Groups, snap.State, snap.Settings)

		switch {
		case err != nil:
			m.log.Error().Err(err).Uint64("version", target).Msg("Document generation failed")
		case m.version.Load() != target:
			m.log.Debug().Err(errors.ErrGenerationSuperseded).Uint64("version", target).Msg("Discarding stale document")
		default:
			m.commit(doc, target)
		}

		m.mu.Lock()

		if m.ctx.Err() != nil || m.version.Load() == target {
			if err := m.machine.Event(context.Background(), Finished); err != nil {
				m.log.Error().Err(err).Msg("Failed to return to idle state")
			}

			m.mu.Unlock()

			return
		}

		m.mu.Unlock()
	}
}
