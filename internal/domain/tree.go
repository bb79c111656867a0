package domain

import (
	"fmt"
	"strings"
	"time"
)

type RowType string

const (
	RowProject RowType = "project"
	RowProduct RowType = "product"
	RowTask    RowType = "task"
)

// ParseRowType validates a caller-supplied row type.
func ParseRowType(s string) (RowType, error) {
	switch RowType(strings.ToLower(strings.TrimSpace(s))) {
	case RowProject:
		return RowProject, nil
	case RowProduct:
		return RowProduct, nil
	case RowTask:
		return RowTask, nil
	}
	return "", NewValidationError("rowType", fmt.Sprintf("unknown row type %q", s))
}

// Level returns the tree depth for the row type.
func (t RowType) Level() int {
	switch t {
	case RowProduct:
		return 1
	case RowTask:
		return 2
	default:
		return 0
	}
}

// TreeRow is one flattened node of the project/product/task tree.
// Rows are derived on every read and never persisted.
type TreeRow struct {
	RowType     RowType   `json:"rowType"`
	ID          int64     `json:"id"`
	ParentID    *int64    `json:"parentId"`
	Level       int       `json:"level"`
	Name        string    `json:"name"`
	Status      string    `json:"status,omitempty"`
	AssigneeID  *int64    `json:"assigneeId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	HasChildren bool      `json:"hasChildren"`
}

// TreeResult is the response of every tree read and mutation.
type TreeResult struct {
	Rows      []TreeRow `json:"rows"`
	TaskCount int       `json:"taskCount"`
}

// TreeQuery carries keyword and filter parameters of a tree read.
type TreeQuery struct {
	Keyword      string
	Statuses     []FilterValue
	Assignees    []FilterValue
	IncludeEmpty bool
}

// Normalized returns a copy with the keyword trimmed.
func (q TreeQuery) Normalized() TreeQuery {
	q.Keyword = strings.TrimSpace(q.Keyword)
	return q
}
