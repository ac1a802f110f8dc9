// Package plugin provides the scheduling and action-aggregation core for
// attaching observers to long-running simulation loops.
//
// A Plugin periodically inspects simulation state and requests an Action
// (log, save, or exit); the Manager decides on every simulation step whether
// any plugin work is due, merges the requested actions, and fires the
// matching notification hooks. The common case is a single counter check, so
// per-step overhead stays constant regardless of plugin count.
//
// Usage:
//
//	mgr := plugin.NewManager[*mySystem](plugin.WithLogger[*mySystem](logger))
//	plugins := []plugin.Plugin[*mySystem]{
//		plugin.NewReport[*mySystem](1_000_000, logger),
//		plugin.NewSaver[*mySystem](),
//	}
//	for {
//		sim.Step()
//		if mgr.Run(sim, sys, plugins) >= plugin.ActionExit {
//			break
//		}
//	}
package plugin
