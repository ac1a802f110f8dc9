package sim

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/simflow/checkpoint"
	"github.com/BaSui01/simflow/internal/metrics"
	"github.com/BaSui01/simflow/plugin"
)

// Runner owns one simulation run: the walk, its plugin manager, the ordered
// plugin list, and an optional checkpoint store. It drives the step loop
// until a plugin requests Exit, the context is cancelled, or an optional
// step budget runs out.
type Runner struct {
	walk    *RandomWalk
	plugins []plugin.Plugin[*State]
	mgr     *plugin.Manager[*State]
	store   checkpoint.Store

	logger    *zap.Logger
	tracer    trace.Tracer
	collector *metrics.Collector
	maxSteps  uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStore attaches a checkpoint store. Without one, checkpoints are no-ops.
func WithStore(store checkpoint.Store) RunnerOption {
	return func(r *Runner) { r.store = store }
}

// WithLogger sets the runner and manager logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCollector attaches a metrics collector to the plugin manager.
func WithCollector(c *metrics.Collector) RunnerOption {
	return func(r *Runner) { r.collector = c }
}

// WithMaxSteps bounds the loop to n steps as a backstop against plugin sets
// that never request Exit. Zero means unbounded.
func WithMaxSteps(n uint64) RunnerOption {
	return func(r *Runner) { r.maxSteps = n }
}

// NewRunner wires a walk and an ordered plugin list into a runnable loop.
// The plugin list is fixed for the runner's lifetime.
func NewRunner(walk *RandomWalk, plugins []plugin.Plugin[*State], opts ...RunnerOption) *Runner {
	r := &Runner{
		walk:    walk,
		plugins: plugins,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("simflow/sim"),
	}
	for _, opt := range opts {
		opt(r)
	}

	mgrOpts := []plugin.Option[*State]{plugin.WithLogger[*State](r.logger)}
	if r.collector != nil {
		mgrOpts = append(mgrOpts, plugin.WithCollector[*State](r.collector))
	}
	r.mgr = plugin.NewManager(mgrOpts...)

	walk.SetCheckpointFunc(r.snapshot)
	return r
}

// ManagerState exposes the manager's scheduling state, mainly for tests and
// inspection tooling.
func (r *Runner) ManagerState() plugin.ManagerState { return r.mgr.State() }

// Run executes the step loop. It returns nil when a plugin requested Exit or
// the step budget ran out, and the context error on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "simulation.run",
		trace.WithAttributes(attribute.String("run.id", r.walk.RunID())))
	defer span.End()

	r.logger.Info("run started",
		zap.String("run_id", r.walk.RunID()),
		zap.Uint64("moves", r.walk.Moves()))

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run %s interrupted: %w", r.walk.RunID(), err)
		}
		if r.maxSteps > 0 && r.walk.Moves() >= r.maxSteps {
			r.logger.Warn("step budget exhausted",
				zap.String("run_id", r.walk.RunID()),
				zap.Uint64("moves", r.walk.Moves()))
			return nil
		}

		r.walk.Step()
		if r.mgr.Run(r.walk, r.walk.System(), r.plugins) >= plugin.ActionExit {
			r.logger.Info("run finished",
				zap.String("run_id", r.walk.RunID()),
				zap.Uint64("moves", r.walk.Moves()),
				zap.Uint64("rejected", r.walk.RejectedMoves()))
			return nil
		}
	}
}

// Resume loads the latest snapshot for runID from the store and restores
// walk, manager, and plugin state from it, so the continued run makes the
// same scheduling decisions an uninterrupted run would have.
func (r *Runner) Resume(ctx context.Context, runID string) error {
	if r.store == nil {
		return fmt.Errorf("resume %s: no checkpoint store configured", runID)
	}
	snap, err := r.store.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("resume %s: %w", runID, err)
	}
	if err := r.walk.RestorePayload(snap.Simulation); err != nil {
		return fmt.Errorf("resume %s: restore simulation: %w", runID, err)
	}
	r.walk.runID = snap.RunID
	r.mgr.Restore(snap.Manager)
	if err := checkpoint.RestorePluginStates(r.plugins, snap.Plugins); err != nil {
		return fmt.Errorf("resume %s: restore plugins: %w", runID, err)
	}

	r.logger.Info("run resumed",
		zap.String("run_id", snap.RunID),
		zap.Uint64("moves", r.walk.Moves()),
		zap.Uint64("period", snap.Manager.Period))
	return nil
}

// snapshot assembles and persists the atomic unit of run state. Installed
// into the walk as its checkpoint operation.
func (r *Runner) snapshot() error {
	if r.store == nil {
		return nil
	}
	payload, err := r.walk.Payload()
	if err != nil {
		return fmt.Errorf("encode simulation: %w", err)
	}
	states, err := checkpoint.CollectPluginStates(r.plugins)
	if err != nil {
		return fmt.Errorf("collect plugin states: %w", err)
	}
	snap := &checkpoint.Snapshot{
		RunID:      r.walk.RunID(),
		CreatedAt:  time.Now().UTC(),
		Simulation: payload,
		Manager:    r.mgr.State(),
		Plugins:    states,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.store.Save(ctx, snap)
}
