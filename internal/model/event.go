// Package model defines domain models and data structures.
package model

import "time"

// DateLayout is the wire and storage layout of Event.Date.
const DateLayout = "2006-01-02"

// Event represents a scheduled event entity.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventPayload is the client-supplied body of a create or update request.
// A nil field was not supplied.
type EventPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
}

// CreateEventParams represents parameters for creating a new event.
type CreateEventParams struct {
	Title       string
	Description string
	Date        string
	Location    string
}

// UpdateEventParams represents a partial update; nil fields keep their stored value.
type UpdateEventParams struct {
	Title       *string
	Description *string
	Date        *string
	Location    *string
}

// Apply copies the supplied fields onto e.
func (p *UpdateEventParams) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
}
