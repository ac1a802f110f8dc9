// Package simflow provides a top-level convenience entry point for attaching
// plugins to a simulation loop with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/simflow"
//
//	mgr := simflow.New[*mySystem]()
//	for {
//		sys.Step()
//		if mgr.Run(sys, sys.View(), plugins) >= simflow.ActionExit {
//			break
//		}
//	}
//
// This is a thin wrapper around the plugin package; both produce identical
// results. Use this package when you prefer the shorter import path.
package simflow

import "github.com/BaSui01/simflow/plugin"

// Action re-exports the plugin action lattice.
type Action = plugin.Action

// Re-exported action values, in merge order.
const (
	ActionNone = plugin.ActionNone
	ActionLog  = plugin.ActionLog
	ActionSave = plugin.ActionSave
	ActionExit = plugin.ActionExit
)

// Simulation re-exports the host simulation interface.
type Simulation = plugin.Simulation

// New creates a plugin manager. See [plugin.NewManager].
func New[S any](opts ...plugin.Option[S]) *plugin.Manager[S] {
	return plugin.NewManager(opts...)
}
