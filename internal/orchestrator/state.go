package orchestrator

import "github.com/msp-agents/msp/internal/errors"

// State is a phase of the run state machine. Transitions are checked:
// a run cannot skip validation or revisit a finished phase.
type State string

const (
	StateInit              State = "init"
	StateDecomposed        State = "decomposed"
	StateExecuting         State = "executing"
	StateValidating        State = "validating"
	StateApproved          State = "approved"
	StateReworking         State = "reworking"
	StateRevalidatingFinal State = "revalidating_final"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// validTransitions maps each state to the states it may advance to.
var validTransitions = map[State][]State{
	StateInit:              {StateDecomposed, StateFailed},
	StateDecomposed:        {StateExecuting, StateFailed},
	StateExecuting:         {StateValidating, StateDone, StateFailed},
	StateValidating:        {StateApproved, StateReworking, StateDone, StateFailed},
	StateReworking:         {StateRevalidatingFinal, StateFailed},
	StateRevalidatingFinal: {StateApproved, StateDone, StateFailed},
	StateApproved:          {StateDone},
	StateDone:              {},
	StateFailed:            {},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// transition advances the machine or returns an error naming both states.
func transition(current, next State) (State, error) {
	if !current.CanTransition(next) {
		return current, errors.Wrapf(errors.ErrInvalidInput,
			"illegal state transition %s -> %s", current, next)
	}
	return next, nil
}
