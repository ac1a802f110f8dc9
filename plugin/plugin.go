package plugin

// Simulation is the narrow view of the host simulation the core consumes.
// The checkpoint operation must durably persist simulation, manager, and
// plugin state as an atomic unit.
type Simulation interface {
	// Moves returns how many simulation steps have executed so far.
	Moves() uint64
	// RejectedMoves returns how many proposed moves were rejected.
	RejectedMoves() uint64
	// Checkpoint durably persists the state of the run.
	Checkpoint() error
}

// Plugin is an observer attached to a simulation loop. S is the read-only
// system-state view handed to every hook; plugins keep their own bookkeeping
// in private fields behind pointer receivers, so the manager never needs
// mutable access to them.
//
// Embed Base to pick up the trivial defaults and implement only the hooks
// you need.
type Plugin[S any] interface {
	// Name returns the unique plugin name. Used for logging and as the key
	// for persisted plugin state.
	Name() string

	// Decide inspects current state and returns the most urgent action this
	// plugin wants taken right now. It must be cheap relative to a
	// simulation step.
	Decide(sim Simulation, sys S) Action

	// RunPeriod returns an upper bound on how many steps may elapse before
	// this plugin should be consulted again. ok is false when the plugin
	// never needs scheduling. The manager re-reads this after every
	// consultation; the value may change over time.
	RunPeriod() (period uint64, ok bool)

	// OnLog is invoked when the merged action is Log, Save, or Exit.
	OnLog(sim Simulation, sys S)

	// OnSave is invoked when the merged action is Save or Exit, after the
	// host checkpoint has completed.
	OnSave(sim Simulation, sys S)
}

// Stateful is implemented by plugins whose bookkeeping must survive a
// checkpoint/resume cycle, so that a resumed run reproduces the same
// scheduling decisions as an uninterrupted one.
type Stateful interface {
	// State returns the plugin's private bookkeeping, encoded.
	State() ([]byte, error)
	// RestoreState replaces the plugin's bookkeeping with a previously
	// persisted encoding.
	RestoreState(data []byte) error
}

// Base provides no-op defaults for every Plugin hook except Name.
type Base[S any] struct{}

// Decide returns ActionNone.
func (Base[S]) Decide(Simulation, S) Action { return ActionNone }

// RunPeriod reports that the plugin never needs scheduling.
func (Base[S]) RunPeriod() (uint64, bool) { return 0, false }

// OnLog does nothing.
func (Base[S]) OnLog(Simulation, S) {}

// OnSave does nothing.
func (Base[S]) OnSave(Simulation, S) {}
