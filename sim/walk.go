package sim

import (
	"encoding/json"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

// State is the read-only system view handed to plugins on every hook.
type State struct {
	Position int64 `json:"position"`
}

// walkPayload is the persisted form of a RandomWalk.
type walkPayload struct {
	Position    int64   `json:"position"`
	Moves       uint64  `json:"moves"`
	Rejected    uint64  `json:"rejected"`
	Seed        uint64  `json:"seed"`
	Temperature float64 `json:"temperature"`
}

// RandomWalk is a one-dimensional Metropolis random walk with energy |x|.
// Each step proposes a unit move; uphill moves are accepted with the usual
// Boltzmann probability and otherwise counted as rejected.
type RandomWalk struct {
	runID       string
	seed        uint64
	temperature float64
	rng         *rand.Rand

	state    State
	moves    uint64
	rejected uint64

	checkpointFn func() error
}

// NewRandomWalk creates a walk with the given rng seed and temperature.
func NewRandomWalk(seed uint64, temperature float64) *RandomWalk {
	return &RandomWalk{
		runID:       uuid.NewString(),
		seed:        seed,
		temperature: temperature,
		rng:         rand.New(rand.NewPCG(seed, seed)),
	}
}

// RunID returns the unique identifier of this run.
func (w *RandomWalk) RunID() string { return w.runID }

// System returns the read-only state view for plugins.
func (w *RandomWalk) System() *State { return &w.state }

// Moves returns how many steps have executed so far.
func (w *RandomWalk) Moves() uint64 { return w.moves }

// RejectedMoves returns how many proposed moves were rejected.
func (w *RandomWalk) RejectedMoves() uint64 { return w.rejected }

// Checkpoint delegates to the checkpoint function installed by the Runner.
// A walk without one treats checkpointing as a no-op.
func (w *RandomWalk) Checkpoint() error {
	if w.checkpointFn == nil {
		return nil
	}
	return w.checkpointFn()
}

// SetCheckpointFunc installs the operation that persists the whole run.
func (w *RandomWalk) SetCheckpointFunc(fn func() error) { w.checkpointFn = fn }

// Step executes one Metropolis move.
func (w *RandomWalk) Step() {
	w.moves++

	delta := int64(1)
	if w.rng.IntN(2) == 0 {
		delta = -1
	}
	next := w.state.Position + delta

	dE := abs(next) - abs(w.state.Position)
	if dE <= 0 || w.rng.Float64() < math.Exp(-float64(dE)/w.temperature) {
		w.state.Position = next
		return
	}
	w.rejected++
}

// Payload encodes the walk for checkpointing.
func (w *RandomWalk) Payload() (json.RawMessage, error) {
	return json.Marshal(walkPayload{
		Position:    w.state.Position,
		Moves:       w.moves,
		Rejected:    w.rejected,
		Seed:        w.seed,
		Temperature: w.temperature,
	})
}

// RestorePayload replaces the walk's state with a persisted encoding.
// The rng is reseeded, so a resumed trajectory is statistically equivalent
// but not move-for-move identical; scheduling state lives in the manager and
// plugins and is restored exactly.
func (w *RandomWalk) RestorePayload(data json.RawMessage) error {
	var p walkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	w.state.Position = p.Position
	w.moves = p.Moves
	w.rejected = p.Rejected
	w.seed = p.Seed
	w.temperature = p.Temperature
	w.rng = rand.New(rand.NewPCG(p.Seed, p.Moves))
	return nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
