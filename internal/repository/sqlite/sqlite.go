// Package sqlite implements the event repository on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/jnst/event-marketer-api/internal/model"
	"github.com/jnst/event-marketer-api/internal/repository"
)

// timeLayout is fixed width so that text comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const eventColumns = `id, title, description, date, location, created_at, updated_at`

type txKey struct{}

// Open opens the database at path with a single connection, which serializes
// all statements and keeps per-id operations linearizable.
func Open(path string) (*sqlx.DB, error) {
	const op = "storage.sqlite.Open"

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return db, nil
}

type eventRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Date        string `db:"date"`
	Location    string `db:"location"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r *eventRow) toModel() (*model.Event, error) {
	createdAt, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(timeLayout, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &model.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Location:    r.Location,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// EventRepository implements repository.EventRepository on SQLite.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new SQLite-backed event repository.
func NewEventRepository(db *sqlx.DB) repository.EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}

	return r.db
}

// Create inserts a new event and returns it with its generated id.
func (r *EventRepository) Create(
	ctx context.Context, params *model.CreateEventParams, now time.Time,
) (*model.Event, error) {
	const op = "storage.sqlite.Create"

	ts := formatTime(now)
	var row eventRow
	err := sqlx.GetContext(ctx, r.ext(ctx), &row, `
INSERT INTO events (title, description, date, location, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING `+eventColumns,
		params.Title, params.Description, params.Date, params.Location, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return row.toModel()
}

// List returns all events ordered by id.
func (r *EventRepository) List(ctx context.Context) ([]*model.Event, error) {
	const op = "storage.sqlite.List"

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &rows, `SELECT `+eventColumns+` FROM events ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events := make([]*model.Event, 0, len(rows))
	for i := range rows {
		event, err := rows[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, event)
	}

	return events, nil
}

// GetByID retrieves an event by ID.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	const op = "storage.sqlite.GetByID"

	var row eventRow
	err := sqlx.GetContext(ctx, r.ext(ctx), &row, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return row.toModel()
}

// GetByIDForUpdate needs no explicit lock: the single connection already
// excludes every other statement while the transaction is open.
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	return r.GetByID(ctx, id)
}

// Update persists the mutable fields of event.
func (r *EventRepository) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	const op = "storage.sqlite.Update"

	var row eventRow
	err := sqlx.GetContext(ctx, r.ext(ctx), &row, `
UPDATE events
SET title = ?, description = ?, date = ?, location = ?, updated_at = ?
WHERE id = ?
RETURNING `+eventColumns,
		event.Title, event.Description, event.Date, event.Location, formatTime(event.UpdatedAt), event.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return row.toModel()
}

// Delete removes an event permanently.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	const op = "storage.sqlite.Delete"

	res, err := r.ext(ctx).ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return model.ErrEventNotFound
	}

	return nil
}

// TransactionManager implements repository.TransactionManager on SQLite.
type TransactionManager struct {
	db *sqlx.DB
}

// NewTransactionManager creates a new SQLite transaction manager.
func NewTransactionManager(db *sqlx.DB) repository.TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction executes fn within a transaction carried by its ctx.
// Nested calls join the outer transaction.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "storage.sqlite.WithTransaction"

	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%s: %w, rollback failed: %v", op, err, rollbackErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}
