package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jnst/event-marketer-api/internal/clock"
	"github.com/jnst/event-marketer-api/internal/model"
	"github.com/jnst/event-marketer-api/internal/repository"
)

// EventServiceImpl implements EventService for event management business logic.
type EventServiceImpl struct {
	eventRepo      repository.EventRepository
	transactionMgr repository.TransactionManager
	clock          clock.Clock
}

// NewEventServiceImpl creates a new EventService implementation.
func NewEventServiceImpl(
	eventRepo repository.EventRepository,
	transactionMgr repository.TransactionManager,
	clk clock.Clock,
) EventService {
	return &EventServiceImpl{
		eventRepo:      eventRepo,
		transactionMgr: transactionMgr,
		clock:          clk,
	}
}

// CreateEvent validates the payload and stores a new event.
func (s *EventServiceImpl) CreateEvent(ctx context.Context, payload *model.EventPayload) (*model.Event, error) {
	params, err := payload.ValidateForCreate()
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.Create(ctx, params, s.now())
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "event created", slog.Int64("event_id", event.ID))

	return event, nil
}

// ListEvents returns all events.
func (s *EventServiceImpl) ListEvents(ctx context.Context) ([]*model.Event, error) {
	return s.eventRepo.List(ctx)
}

// GetEvent retrieves an event by ID.
func (s *EventServiceImpl) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// UpdateEvent applies the supplied fields to an existing event.
func (s *EventServiceImpl) UpdateEvent(
	ctx context.Context, id int64, payload *model.EventPayload,
) (*model.Event, error) {
	params, err := payload.ValidateForUpdate()
	if err != nil {
		return nil, err
	}

	var updated *model.Event

	err = s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		params.Apply(event)
		event.UpdatedAt = s.nextUpdatedAt(event.UpdatedAt)

		updated, err = s.eventRepo.Update(ctx, event)

		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "event updated", slog.Int64("event_id", id))

	return updated, nil
}

// DeleteEvent removes an event permanently.
func (s *EventServiceImpl) DeleteEvent(ctx context.Context, id int64) error {
	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		return s.eventRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "event deleted", slog.Int64("event_id", id))

	return nil
}

// now is truncated to the precision PostgreSQL stores.
func (s *EventServiceImpl) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt never returns a value at or before prev.
func (s *EventServiceImpl) nextUpdatedAt(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}

	return now
}
