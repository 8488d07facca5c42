package model

import "errors"

// ErrEventNotFound is returned when no live event has the requested id.
var ErrEventNotFound = errors.New("event not found")

const (
	// MsgTitleTooLong is reported when a title exceeds MaxTitleLength.
	MsgTitleTooLong = "Title must be 200 characters or less"
	// MsgLocationTooLong is reported when a location exceeds MaxLocationLength.
	MsgLocationTooLong = "Location must be 200 characters or less"
	// MsgNULCharacter is reported when any supplied field contains a NUL character.
	MsgNULCharacter = "Fields must not contain NUL characters"
	// MsgInvalidDate is reported when a date is not a real YYYY-MM-DD date.
	MsgInvalidDate = "Date must be in YYYY-MM-DD format"

	missingFieldsPrefix = "Missing required fields: "
)

// ValidationError is returned when client input is malformed or incomplete.
type ValidationError struct {
	Message string
}

// Error returns the client-facing message.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}
