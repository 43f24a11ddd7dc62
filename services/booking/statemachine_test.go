package booking

import (
	"errors"
	"testing"

	"bookdesk/models"
)

var allStates = []models.BookingState{
	models.BookingDraft,
	models.BookingProposed,
	models.BookingConfirmed,
	models.BookingCancelled,
	models.BookingExpired,
}

func TestTransitionWhitelist(t *testing.T) {
	m := NewDefaultStateMachine()
	allowed := map[[2]models.BookingState]bool{
		{models.BookingDraft, models.BookingProposed}:      true,
		{models.BookingProposed, models.BookingConfirmed}:  true,
		{models.BookingProposed, models.BookingExpired}:    true,
		{models.BookingConfirmed, models.BookingCancelled}: true,
	}

	for _, from := range allStates {
		for _, to := range allStates {
			got, err := m.Transition(from, to)
			if allowed[[2]models.BookingState{from, to}] {
				if err != nil || got != to {
					t.Errorf("Transition(%s, %s) = (%s, %v), want (%s, nil)", from, to, got, err, to)
				}
				continue
			}
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Errorf("Transition(%s, %s) err = %v, want *InvalidTransitionError", from, to, err)
				continue
			}
			if invalid.From != from || invalid.To != to {
				t.Errorf("error names %s -> %s, want %s -> %s", invalid.From, invalid.To, from, to)
			}
		}
	}
}

func TestDraftToConfirmedRejected(t *testing.T) {
	_, err := NewDefaultStateMachine().Transition(models.BookingDraft, models.BookingConfirmed)
	want := &InvalidTransitionError{From: models.BookingDraft, To: models.BookingConfirmed}
	if err == nil || err.Error() != want.Error() {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestTerminalStates(t *testing.T) {
	m := NewDefaultStateMachine()
	for _, s := range allStates {
		terminal := s == models.BookingCancelled || s == models.BookingExpired
		if got := m.IsTerminal(s); got != terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, terminal)
		}
	}
}

func TestStateMachineCopiesTable(t *testing.T) {
	table := TransitionTable{models.BookingDraft: {models.BookingConfirmed}}
	m := NewStateMachine(table)
	table[models.BookingConfirmed] = []models.BookingState{models.BookingDraft}

	if _, err := m.Transition(models.BookingDraft, models.BookingConfirmed); err != nil {
		t.Errorf("alternate policy edge rejected: %v", err)
	}
	if _, err := m.Transition(models.BookingConfirmed, models.BookingDraft); err == nil {
		t.Error("edge added after construction was accepted")
	}
}

func TestReplay(t *testing.T) {
	m := NewDefaultStateMachine()
	chain := []models.BookingAuditEntry{
		{PreviousState: models.BookingDraft, NewState: models.BookingProposed},
		{PreviousState: models.BookingProposed, NewState: models.BookingConfirmed},
		{PreviousState: models.BookingConfirmed, NewState: models.BookingCancelled},
	}
	got, err := m.Replay(chain)
	if err != nil || got != models.BookingCancelled {
		t.Fatalf("Replay = (%s, %v), want (cancelled, nil)", got, err)
	}

	if got, err := m.Replay(nil); err != nil || got != models.BookingDraft {
		t.Errorf("Replay(nil) = (%s, %v), want (draft, nil)", got, err)
	}

	broken := []models.BookingAuditEntry{
		{PreviousState: models.BookingDraft, NewState: models.BookingProposed},
		{PreviousState: models.BookingConfirmed, NewState: models.BookingCancelled},
	}
	if _, err := m.Replay(broken); !errors.Is(err, ErrBrokenAuditChain) {
		t.Errorf("Replay(broken) err = %v, want ErrBrokenAuditChain", err)
	}
}
