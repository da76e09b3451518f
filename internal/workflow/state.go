package workflow

import (
	"fmt"
	"time"
)

// State is a stage of the submission state machine.
type State string

const (
	StateIdle               State = "Idle"
	StateLoaded             State = "Loaded"
	StateValidated          State = "Validated"
	StateRejected           State = "Rejected"
	StateFilled             State = "Filled"
	StateSubmitting         State = "Submitting"
	StateAwaitingNavigation State = "AwaitingNavigation"
	StateValidating         State = "Validating"
	StateSucceeded          State = "Succeeded"
	StateFailed             State = "Failed"
)

// transitions lists the legal successors of each state. Failed is reachable
// from every non-terminal state because any fatal error ends the run.
var transitions = map[State][]State{
	StateIdle:               {StateLoaded, StateFailed},
	StateLoaded:             {StateValidated, StateRejected, StateFailed},
	StateValidated:          {StateFilled, StateFailed},
	StateFilled:             {StateSubmitting, StateFailed},
	StateSubmitting:         {StateAwaitingNavigation, StateFailed},
	StateAwaitingNavigation: {StateValidating, StateFailed},
	StateValidating:         {StateSucceeded, StateFailed},
}

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

func (s State) canMoveTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition records one state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// machine tracks the current state and its history.
type machine struct {
	current State
	history []Transition
	now     func() time.Time
}

func newMachine(now func() time.Time) *machine {
	return &machine{current: StateIdle, now: now}
}

func (m *machine) moveTo(next State) error {
	if !m.current.canMoveTo(next) {
		return fmt.Errorf("illegal state transition %s -> %s", m.current, next)
	}
	m.history = append(m.history, Transition{From: m.current, To: next, At: m.now()})
	m.current = next
	return nil
}

// fail moves to Failed unless the machine already reached a terminal state.
func (m *machine) fail() {
	if m.current.Terminal() {
		return
	}
	_ = m.moveTo(StateFailed)
}
