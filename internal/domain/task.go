package domain

import "time"

type Task struct {
	ID         int64
	ProductID  int64
	Title      string
	StatusID   *int64
	StatusName string // joined from statuses; empty when unset
	AssigneeID *int64
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TaskStep is an append-only progress entry under a task.
type TaskStep struct {
	ID         int64
	TaskID     int64
	Content    string
	StatusID   *int64
	StatusName string
	AssigneeID *int64
	CreatedBy  string
	CreatedAt  time.Time
}

// TaskRecord is a task denormalized with its product and project ancestry.
// It is the unit the tree builder consumes.
type TaskRecord struct {
	Task    Task
	Product Product
	Project Project
}

// Optional distinguishes "field not supplied" from a supplied value. A
// supplied nil pointer value means "explicitly cleared".
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a supplied Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TaskPatch is a partial task update. Only supplied fields are written.
type TaskPatch struct {
	Title    Optional[string]
	Status   Optional[StatusRef]
	Assignee Optional[*int64]
}

// Empty reports whether no field is supplied.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Status.Set && !p.Assignee.Set
}
