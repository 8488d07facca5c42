// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"time"

	"github.com/jnst/event-marketer-api/internal/model"
)

// EventRepository defines methods for event data access.
// Methods run inside the transaction carried by ctx when there is one.
type EventRepository interface {
	Create(ctx context.Context, params *model.CreateEventParams, now time.Time) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionManager defines methods for database transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
