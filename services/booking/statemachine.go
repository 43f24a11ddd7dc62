package booking

import (
	"fmt"

	"bookdesk/models"
)

// TransitionTable lists the allowed next states for each state.
// States with no entry are terminal.
type TransitionTable map[models.BookingState][]models.BookingState

// DefaultTransitions is the production booking lifecycle.
var DefaultTransitions = TransitionTable{
	models.BookingDraft:     {models.BookingProposed},
	models.BookingProposed:  {models.BookingConfirmed, models.BookingExpired},
	models.BookingConfirmed: {models.BookingCancelled},
}

// StateMachine validates booking transitions against a whitelist.
type StateMachine struct {
	edges map[models.BookingState]map[models.BookingState]struct{}
}

// NewStateMachine copies table so later changes to it have no effect.
func NewStateMachine(table TransitionTable) *StateMachine {
	edges := make(map[models.BookingState]map[models.BookingState]struct{}, len(table))
	for from, tos := range table {
		set := make(map[models.BookingState]struct{}, len(tos))
		for _, to := range tos {
			set[to] = struct{}{}
		}
		edges[from] = set
	}
	return &StateMachine{edges: edges}
}

// NewDefaultStateMachine builds a machine over DefaultTransitions.
func NewDefaultStateMachine() *StateMachine {
	return NewStateMachine(DefaultTransitions)
}

// Transition returns next if current -> next is whitelisted, and an
// *InvalidTransitionError otherwise. It does not persist anything.
func (m *StateMachine) Transition(current, next models.BookingState) (models.BookingState, error) {
	if _, ok := m.edges[current][next]; !ok {
		return "", &InvalidTransitionError{From: current, To: next}
	}
	return next, nil
}

// IsTerminal reports whether no transition leaves s.
func (m *StateMachine) IsTerminal(s models.BookingState) bool {
	return len(m.edges[s]) == 0
}

// Replay folds audit entries starting from the initial state and returns the
// state they reconstruct. Each entry must start where the previous one ended
// and follow an allowed edge.
func (m *StateMachine) Replay(entries []models.BookingAuditEntry) (models.BookingState, error) {
	state := models.InitialBookingState
	for i, e := range entries {
		if e.PreviousState != state {
			return state, &replayError{index: i, want: state, got: e.PreviousState}
		}
		next, err := m.Transition(e.PreviousState, e.NewState)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

type replayError struct {
	index int
	want  models.BookingState
	got   models.BookingState
}

func (e *replayError) Error() string {
	return fmt.Sprintf("%v: entry %d starts at %s, expected %s", ErrBrokenAuditChain, e.index, e.got, e.want)
}

func (e *replayError) Unwrap() error { return ErrBrokenAuditChain }
