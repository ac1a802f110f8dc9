package plugin

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/simflow/internal/metrics"
)

// SafetyNetPeriod is the consultation interval used when no plugin requests
// one. Large enough that it never fires in a realistic run, but finite so the
// loop can never wedge plugins out entirely.
const SafetyNetPeriod uint64 = 1 << 40

// Manager drives the consult → aggregate → act → reschedule cycle for a
// fixed, ordered set of plugins. It must always be called with the same
// plugin list; different plugin sets require different managers, since the
// elapsed/period bookkeeping is only meaningful for one set.
//
// A Manager is single-threaded by design: all work happens synchronously
// inside the caller's step loop.
type Manager[S any] struct {
	period  uint64
	elapsed uint64

	logger    *zap.Logger
	collector *metrics.Collector
	exit      func(int)
}

// ManagerState is the persistable scheduling state of a Manager. Restoring
// it into a fresh Manager reproduces identical scheduling decisions.
type ManagerState struct {
	Period  uint64 `json:"period"`
	Elapsed uint64 `json:"elapsed_steps"`
}

// Option configures a Manager.
type Option[S any] func(*Manager[S])

// WithLogger sets the logger used for consultation and checkpoint events.
func WithLogger[S any](logger *zap.Logger) Option[S] {
	return func(m *Manager[S]) {
		if logger != nil {
			m.logger = logger.With(zap.String("component", "plugin_manager"))
		}
	}
}

// WithCollector attaches a metrics collector.
func WithCollector[S any](c *metrics.Collector) Option[S] {
	return func(m *Manager[S]) { m.collector = c }
}

// WithExitFunc makes the manager call f(0) after all hooks have run when the
// merged action is Exit, instead of returning the action to the caller.
// Pass os.Exit to restore hard process termination.
func WithExitFunc[S any](f func(int)) Option[S] {
	return func(m *Manager[S]) { m.exit = f }
}

// NewManager creates a Manager that consults plugins on the first step and
// adapts its period from their answers afterwards.
func NewManager[S any](opts ...Option[S]) *Manager[S] {
	m := &Manager[S]{
		period: 1,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the manager's persistable scheduling state.
func (m *Manager[S]) State() ManagerState {
	return ManagerState{Period: m.period, Elapsed: m.elapsed}
}

// Restore replaces the manager's scheduling state with a persisted one.
func (m *Manager[S]) Restore(st ManagerState) {
	m.period = st.Period
	if m.period < 1 {
		m.period = 1
	}
	m.elapsed = st.Elapsed
}

// Run counts one simulation step and, when the current period has elapsed,
// consults every plugin. The merged action decides which notification hooks
// fire: OnLog for Log and above, then a host checkpoint followed by OnSave
// for Save and above. The merged action is returned so the caller can stop
// its loop on ActionExit; on the cheap path the return is ActionNone.
func (m *Manager[S]) Run(sim Simulation, sys S, plugins []Plugin[S]) Action {
	if m.collector != nil {
		m.collector.RecordStep()
	}
	m.elapsed++
	if m.elapsed < m.period {
		return ActionNone
	}
	m.elapsed = 0

	merged := ActionNone
	for _, p := range plugins {
		merged = merged.Merge(p.Decide(sim, sys))
	}

	if merged >= ActionLog {
		for _, p := range plugins {
			p.OnLog(sim, sys)
		}
	}
	if merged >= ActionSave {
		start := time.Now()
		if err := sim.Checkpoint(); err != nil {
			// No error channel exists on the hook surface; record the
			// failure and still deliver OnSave so plugins can flush.
			m.logger.Error("checkpoint failed",
				zap.Uint64("moves", sim.Moves()),
				zap.Error(err))
		} else if m.collector != nil {
			m.collector.ObserveCheckpoint(time.Since(start))
		}
		for _, p := range plugins {
			p.OnSave(sim, sys)
		}
	}

	m.period = SafetyNetPeriod
	for _, p := range plugins {
		if n, ok := p.RunPeriod(); ok && n < m.period {
			m.period = n
		}
	}
	if m.period < 1 {
		m.period = 1
	}

	if m.collector != nil {
		m.collector.RecordConsultation(merged.String(), m.period)
	}

	if merged >= ActionExit {
		m.logger.Info("exit requested",
			zap.Uint64("moves", sim.Moves()))
		if m.exit != nil {
			m.exit(0)
		}
	}
	return merged
}
