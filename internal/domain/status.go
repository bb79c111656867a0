package domain

import (
	"regexp"
	"strings"
)

// DefaultStatusColor is used when a status is created on demand by label.
const DefaultStatusColor = "#9ca3af"

var statusColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Status is a shared label referenced by tasks and task steps.
type Status struct {
	ID    int64
	Name  string
	Color string
}

// Validate normalizes the status and checks name and color.
func (s *Status) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return NewValidationError("name", "is required")
	}
	s.Color = strings.TrimSpace(s.Color)
	if s.Color == "" {
		s.Color = DefaultStatusColor
	}
	if !statusColorPattern.MatchString(s.Color) {
		return NewValidationError("color", "must look like #rrggbb")
	}
	return nil
}

// User is an assignee. Name is the display name matched by keyword search.
type User struct {
	ID    int64
	Name  string
	Email string
}

// StatusRef names a status either by id or by label. The zero value means
// "no status given".
type StatusRef struct {
	ID    int64
	Label string
}

// StatusByID references an existing status row.
func StatusByID(id int64) StatusRef { return StatusRef{ID: id} }

// StatusByLabel references a status by its name.
func StatusByLabel(label string) StatusRef { return StatusRef{Label: strings.TrimSpace(label)} }

// IsZero reports whether the reference names nothing.
func (r StatusRef) IsZero() bool { return r.ID == 0 && r.Label == "" }

// ParseStatusRef converts a raw caller value. All-digit strings are ids; an
// id with no matching row is retried as a status name when resolved.
func ParseStatusRef(raw string) StatusRef {
	v := ParseFilterValue(raw)
	if id, ok := v.ID(); ok {
		return StatusByID(id)
	}
	return StatusByLabel(v.Literal())
}
