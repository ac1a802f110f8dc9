package plugin

import "fmt"

// Action is the outcome a plugin can request on a consultation. Actions form
// a total order (None < Log < Save < Exit) and merging any set of them yields
// the maximum element present, so aggregation is independent of plugin order.
type Action int

const (
	// ActionNone means nothing special need be done.
	ActionNone Action = iota
	// ActionLog requests logging of interesting information.
	ActionLog
	// ActionSave requests a checkpoint of simulation and plugin state.
	ActionSave
	// ActionExit requests termination of the run.
	ActionExit
)

// Merge combines two requested actions into the more urgent one.
// It is associative, commutative, and idempotent.
func (a Action) Merge(b Action) Action {
	if b > a {
		return b
	}
	return a
}

// String returns the lower-case name of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionLog:
		return "log"
	case ActionSave:
		return "save"
	case ActionExit:
		return "exit"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction converts a string produced by String back into an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "none":
		return ActionNone, nil
	case "log":
		return ActionLog, nil
	case "save":
		return ActionSave, nil
	case "exit":
		return ActionExit, nil
	default:
		return ActionNone, fmt.Errorf("unknown action %q", s)
	}
}
