package domain

import (
	"strings"
	"time"
)

// Project is the root of the work tree.
type Project struct {
	ID        int64
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product belongs to exactly one Project.
type Product struct {
	ID        int64
	ProjectID int64
	Name      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductWithProject is a product joined with its parent project, as listed
// for the include-empty fill-in pass.
type ProductWithProject struct {
	Product Product
	Project Project
}

// ValidateName trims name and rejects blank values.
func ValidateName(field, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewValidationError(field, "is required")
	}
	return trimmed, nil
}
