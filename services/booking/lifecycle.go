package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "bookdesk/database/repository/booking"
	"bookdesk/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLifecycleService implements LifecycleService.
type DefaultLifecycleService struct {
	Repo        bookingRepo.BookingRepository
	Audit       *AuditLog
	Machine     *StateMachine
	Expiry      ExpiryScheduler // optional
	ProposalTTL time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

func (s *DefaultLifecycleService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create stores a new booking in the initial state. Creation is not a transition
// and writes no audit entry.
func (s *DefaultLifecycleService) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if req.InstructorID == "" || req.CustomerRef == "" {
		return nil, fmt.Errorf("%w: instructor and customer are required", ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("%w: invalid booking date %q", ErrInvalidRequest, req.Date)
	}
	if req.End < req.Start {
		return nil, fmt.Errorf("%w: booking end (%d) precedes start (%d)", ErrInvalidRequest, req.End, req.Start)
	}

	now := s.now()
	b := &models.Booking{
		ID:             uuid.New().String(),
		InstructorID:   req.InstructorID,
		ConversationID: req.ConversationID,
		CustomerRef:    req.CustomerRef,
		Date:           req.Date,
		Start:          req.Start,
		End:            req.End,
		TotalPrice:     req.TotalPrice,
		State:          models.InitialBookingState,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.Logger.Info("booking created", zap.String("booking_id", b.ID), zap.String("instructor_id", b.InstructorID))
	return b, nil
}

// Get returns a booking by id.
func (s *DefaultLifecycleService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.Repo.GetByID(ctx, id)
}

// Transition validates current -> next, applies it with a conditional update and
// appends the audit entry. The operation has failed unless all three succeed.
func (s *DefaultLifecycleService) Transition(ctx context.Context, id string, next models.BookingState, actor models.Actor) (*models.Booking, error) {
	if !actor.Valid() {
		return nil, fmt.Errorf("%w: unknown actor %q", ErrInvalidRequest, actor)
	}
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := b.State
	if _, err := s.Machine.Transition(from, next); err != nil {
		return nil, err
	}

	at := s.now()
	version, ok, err := s.Repo.UpdateStateIf(ctx, id, from, next, at)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s -> %s: %w", from, next, err)
	}
	if !ok {
		s.Logger.Warn("booking transition lost a race",
			zap.String("booking_id", id), zap.String("from", string(from)), zap.String("to", string(next)))
		return nil, ErrTransitionConflict
	}

	if err := s.Audit.Record(ctx, AuditRecord{BookingID: id, PreviousState: from, NewState: next, Actor: actor, Seq: version}); err != nil {
		s.Logger.Error("booking state changed without audit entry",
			zap.String("booking_id", id), zap.String("from", string(from)), zap.String("to", string(next)), zap.Error(err))
		return nil, err
	}

	b.State = next
	b.Version = version
	b.UpdatedAt = at
	s.Logger.Info("booking transitioned",
		zap.String("booking_id", id), zap.String("from", string(from)), zap.String("to", string(next)), zap.String("actor", string(actor)))

	if next == models.BookingProposed {
		s.scheduleExpiry(ctx, id, at)
	}
	return b, nil
}

func (s *DefaultLifecycleService) scheduleExpiry(ctx context.Context, id string, proposedAt time.Time) {
	if s.Expiry == nil || s.ProposalTTL <= 0 {
		return
	}
	expireAt := proposedAt.Add(s.ProposalTTL)
	if err := s.Expiry.ScheduleExpiry(ctx, id, expireAt); err != nil {
		// The sweep in the worker picks up proposals whose task was never enqueued.
		s.Logger.Warn("failed to schedule proposal expiry", zap.String("booking_id", id), zap.Error(err))
	}
}

// ExpireIfProposed expires a booking on behalf of the system. A booking that has
// already moved on is not an error.
func (s *DefaultLifecycleService) ExpireIfProposed(ctx context.Context, id string) (bool, error) {
	_, err := s.Transition(ctx, id, models.BookingExpired, models.ActorSystem)
	var invalid *InvalidTransitionError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &invalid), errors.Is(err, ErrTransitionConflict):
		s.Logger.Debug("proposal expiry skipped", zap.String("booking_id", id), zap.Error(err))
		return false, nil
	default:
		return false, err
	}
}

// ExpireStale expires every proposal last updated before cutoff and returns how many it expired.
func (s *DefaultLifecycleService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.Repo.ListByState(ctx, models.BookingProposed, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, b := range stale {
		ok, err := s.ExpireIfProposed(ctx, b.ID)
		if err != nil {
			return expired, fmt.Errorf("failed to expire booking %s: %w", b.ID, err)
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// History returns the audit trail of a booking and checks it against the stored state.
func (s *DefaultLifecycleService) History(ctx context.Context, id string) (*History, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.Audit.ListForBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	replayed, err := s.Machine.Replay(entries)
	if err != nil {
		s.Logger.Error("audit replay failed", zap.String("booking_id", id), zap.Error(err))
	}
	return &History{
		Booking:    b,
		Entries:    entries,
		Replayed:   replayed,
		Consistent: err == nil && replayed == b.State,
	}, nil
}
