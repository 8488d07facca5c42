package model

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxTitleLength is the maximum number of characters in a title.
	MaxTitleLength = 200
	// MaxLocationLength is the maximum number of characters in a location.
	MaxLocationLength = 200
)

// validate is safe for concurrent use and holds no per-request state.
var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	titleRule    = "max=" + strconv.Itoa(MaxTitleLength)
	locationRule = "max=" + strconv.Itoa(MaxLocationLength)
	// PostgreSQL text columns cannot store NUL.
	noNULRule = "excludesall=\x00"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type payloadField struct {
	name  string
	value *string
}

func (p *EventPayload) fields() []payloadField {
	return []payloadField{
		{name: "title", value: p.Title},
		{name: "description", value: p.Description},
		{name: "date", value: p.Date},
		{name: "location", value: p.Location},
	}
}

// ValidateForCreate checks that every field is present and well formed.
func (p *EventPayload) ValidateForCreate() (*CreateEventParams, error) {
	var missing []string
	for _, f := range p.fields() {
		if f.value == nil || *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, NewValidationError(missingFieldsPrefix + strings.Join(missing, ", "))
	}

	if err := p.checkRules(); err != nil {
		return nil, err
	}

	return &CreateEventParams{
		Title:       *p.Title,
		Description: *p.Description,
		Date:        *p.Date,
		Location:    *p.Location,
	}, nil
}

// ValidateForUpdate checks only the supplied fields. A supplied field may not be blank.
func (p *EventPayload) ValidateForUpdate() (*UpdateEventParams, error) {
	var blank []string
	for _, f := range p.fields() {
		if f.value != nil && *f.value == "" {
			blank = append(blank, f.name)
		}
	}
	if len(blank) > 0 {
		return nil, NewValidationError(missingFieldsPrefix + strings.Join(blank, ", "))
	}

	if err := p.checkRules(); err != nil {
		return nil, err
	}

	return &UpdateEventParams{
		Title:       p.Title,
		Description: p.Description,
		Date:        p.Date,
		Location:    p.Location,
	}, nil
}

func (p *EventPayload) checkRules() error {
	for _, f := range p.fields() {
		if f.value == nil {
			continue
		}
		if err := validate.Var(*f.value, noNULRule); err != nil {
			return NewValidationError(MsgNULCharacter)
		}
	}

	if p.Title != nil {
		if err := validate.Var(*p.Title, titleRule); err != nil {
			return NewValidationError(MsgTitleTooLong)
		}
	}

	if p.Location != nil {
		if err := validate.Var(*p.Location, locationRule); err != nil {
			return NewValidationError(MsgLocationTooLong)
		}
	}

	if p.Date != nil && !IsValidDate(*p.Date) {
		return NewValidationError(MsgInvalidDate)
	}

	return nil
}

// IsValidDate reports whether s is exactly YYYY-MM-DD and names a real calendar day.
func IsValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}

	return validate.Var(s, "datetime="+DateLayout) == nil
}
