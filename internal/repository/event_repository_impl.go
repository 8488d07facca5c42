package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-marketer-api/internal/model"
)

const eventColumns = `id, title, description, date, location, created_at, updated_at`

// eventRow mirrors the events table.
type eventRow struct {
	ID          int64
	Title       string
	Description string
	Date        pgtype.Date
	Location    string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

func (r *eventRow) scanTargets() []any {
	return []any{&r.ID, &r.Title, &r.Description, &r.Date, &r.Location, &r.CreatedAt, &r.UpdatedAt}
}

func (r *eventRow) toModel() *model.Event {
	return &model.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date.Time.Format(model.DateLayout),
		Location:    r.Location,
		CreatedAt:   r.CreatedAt.Time.UTC(),
		UpdatedAt:   r.UpdatedAt.Time.UTC(),
	}
}

// EventRepositoryImpl implements EventRepository using PostgreSQL.
type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewEventRepositoryImpl creates a new EventRepository implementation.
func NewEventRepositoryImpl(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{pool: pool}
}

// Create inserts a new event and returns it with its generated id.
func (r *EventRepositoryImpl) Create(
	ctx context.Context, params *model.CreateEventParams, now time.Time,
) (*model.Event, error) {
	date, err := toDate(params.Date)
	if err != nil {
		return nil, err
	}

	const stmt = `
INSERT INTO events (title, description, date, location, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING ` + eventColumns

	var row eventRow
	if err := conn(ctx, r.pool).QueryRow(ctx, stmt,
		params.Title, params.Description, date, params.Location, now,
	).Scan(row.scanTargets()...); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	return row.toModel(), nil
}

// List returns all events ordered by id.
func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// GetByID retrieves an event by ID.
func (r *EventRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an event by ID and locks its row.
func (r *EventRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepositoryImpl) get(ctx context.Context, query string, id int64) (*model.Event, error) {
	var row eventRow
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(row.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}

		return nil, fmt.Errorf("get event %d: %w", id, err)
	}

	return row.toModel(), nil
}

// Update persists the mutable fields of event.
func (r *EventRepositoryImpl) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	date, err := toDate(event.Date)
	if err != nil {
		return nil, err
	}

	const stmt = `
UPDATE events
SET title = $2, description = $3, date = $4, location = $5, updated_at = $6
WHERE id = $1
RETURNING ` + eventColumns

	var row eventRow
	if err := conn(ctx, r.pool).QueryRow(ctx, stmt,
		event.ID, event.Title, event.Description, date, event.Location, event.UpdatedAt,
	).Scan(row.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}

		return nil, fmt.Errorf("update event %d: %w", event.ID, err)
	}

	return row.toModel(), nil
}

// Delete removes an event permanently.
func (r *EventRepositoryImpl) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}

	return nil
}

func toDate(s string) (pgtype.Date, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("encode date %q: %w", s, err)
	}

	return pgtype.Date{Time: t, Valid: true}, nil
}
