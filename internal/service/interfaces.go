// Package service provides business logic layer implementations.
package service

import (
	"context"

	"github.com/jnst/event-marketer-api/internal/model"
)

// EventService defines business logic methods for event management.
type EventService interface {
	CreateEvent(ctx context.Context, payload *model.EventPayload) (*model.Event, error)
	ListEvents(ctx context.Context) ([]*model.Event, error)
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	UpdateEvent(ctx context.Context, id int64, payload *model.EventPayload) (*model.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}
