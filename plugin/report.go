package plugin

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Report terminates the run once a configured move count is reached and logs
// progress along the way. Its run period equals the remaining distance to the
// limit, so it is re-consulted exactly when needed and never early.
// A limit of 0 means the run is unbounded and the plugin only reports.
type Report[S any] struct {
	Base[S]

	limit  uint64
	logger *zap.Logger

	startTime  time.Time
	startMoves uint64
	remaining  uint64
}

type reportState struct {
	MaxMoves   uint64 `json:"max_moves"`
	StartMoves uint64 `json:"start_moves"`
}

// NewReport creates a Report plugin with the given move limit.
func NewReport[S any](limit uint64, logger *zap.Logger) *Report[S] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Report[S]{
		limit:     limit,
		logger:    logger.With(zap.String("plugin", "report")),
		startTime: time.Now(),
		remaining: limit,
	}
}

// Name returns "report".
func (r *Report[S]) Name() string { return "report" }

// Decide requests Exit once the move limit is reached.
func (r *Report[S]) Decide(sim Simulation, _ S) Action {
	if r.limit == 0 {
		return ActionNone
	}
	moves := sim.Moves()
	if moves >= r.limit {
		r.remaining = 1
		return ActionExit
	}
	r.remaining = r.limit - moves
	return ActionNone
}

// RunPeriod returns the distance to the move limit, cached by Decide.
func (r *Report[S]) RunPeriod() (uint64, bool) {
	if r.limit == 0 {
		return 0, false
	}
	period := r.remaining
	if period < 1 {
		period = 1
	}
	return period, true
}

// OnLog reports elapsed time and, when a limit is set, completion percentage
// and an estimate of the time remaining.
func (r *Report[S]) OnLog(sim Simulation, _ S) {
	moves := sim.Moves()
	runtime := time.Since(r.startTime)

	if r.limit == 0 || moves <= r.startMoves {
		r.logger.Info("progress",
			zap.Uint64("moves", moves),
			zap.Duration("elapsed", runtime))
		return
	}

	perMove := runtime.Seconds() / float64(moves-r.startMoves)
	var left uint64
	if moves < r.limit {
		left = r.limit - moves
	}
	eta := time.Duration(perMove * float64(left) * float64(time.Second))

	r.logger.Info("progress",
		zap.Uint64("moves", moves),
		zap.Int("percent", int(100*float64(moves)/float64(r.limit))),
		zap.Duration("elapsed", runtime),
		zap.Duration("remaining", eta))
}

// OnSave reports the rejection ratio of the run so far.
func (r *Report[S]) OnSave(sim Simulation, _ S) {
	moves := sim.Moves()
	rejected := sim.RejectedMoves()
	ratio := 0.0
	if moves > 0 {
		ratio = float64(rejected) / float64(moves)
	}
	r.logger.Info("rejection ratio",
		zap.Uint64("rejected", rejected),
		zap.Uint64("moves", moves),
		zap.Float64("ratio", ratio))
}

// State encodes the plugin's bookkeeping for checkpointing. The wall-clock
// timer is intentionally not persisted; a resumed run restarts its ETA
// estimate from resume time.
func (r *Report[S]) State() ([]byte, error) {
	return json.Marshal(reportState{MaxMoves: r.limit, StartMoves: r.startMoves})
}

// RestoreState restores persisted bookkeeping and restarts the timer.
func (r *Report[S]) RestoreState(data []byte) error {
	var st reportState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	r.limit = st.MaxMoves
	r.startMoves = st.StartMoves
	r.startTime = time.Now()
	r.remaining = r.limit
	return nil
}

// SetStartMoves records the move count the timer should measure from, e.g.
// the move count at resume time.
func (r *Report[S]) SetStartMoves(moves uint64) {
	r.startMoves = moves
	r.startTime = time.Now()
}
