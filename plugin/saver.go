package plugin

import "encoding/json"

// Saver schedules checkpoints on an exponential schedule: it requests Save
// once the move count passes its current threshold, then doubles the
// threshold. Early in a run checkpoints are frequent; later they thin out.
type Saver[S any] struct {
	Base[S]

	next     uint64
	distance uint64
}

type saverState struct {
	NextOutput uint64 `json:"next_output"`
}

// NewSaver creates a Saver whose first checkpoint fires on the first move.
func NewSaver[S any]() *Saver[S] {
	return &Saver[S]{next: 1, distance: 1}
}

// Name returns "saver".
func (s *Saver[S]) Name() string { return "saver" }

// Decide requests Save when the move count has passed the current threshold.
func (s *Saver[S]) Decide(sim Simulation, _ S) Action {
	moves := sim.Moves()
	action := ActionNone
	if moves >= s.next {
		s.next *= 2
		action = ActionSave
	}
	if s.next > moves {
		s.distance = s.next - moves
	} else {
		s.distance = 1
	}
	return action
}

// RunPeriod returns the distance to the next save threshold, cached by
// Decide.
func (s *Saver[S]) RunPeriod() (uint64, bool) {
	return s.distance, true
}

// State encodes the save schedule for checkpointing.
func (s *Saver[S]) State() ([]byte, error) {
	return json.Marshal(saverState{NextOutput: s.next})
}

// RestoreState restores a persisted save schedule.
func (s *Saver[S]) RestoreState(data []byte) error {
	var st saverState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	s.next = st.NextOutput
	if s.next < 1 {
		s.next = 1
	}
	s.distance = 1
	return nil
}
