// Package sim provides a reference host for the plugin scheduling core: a
// small Metropolis random-walk simulation and a Runner that drives the step
// loop, wires plugins and manager together, and assembles checkpoint
// snapshots covering simulation, manager, and plugin state.
//
// The simulation itself is deliberately trivial. It exists so the scheduling
// core has a realistic host to exercise it: a move counter, a rejection
// counter, and a checkpoint operation, consumed through the plugin.Simulation
// interface.
package sim
