package testutil

import (
	"sync/atomic"
	"time"

	"github.com/alexanderramin/opstree/internal/domain"
)

// fixtureEpoch anchors fixture timestamps; each new fixture is one
// millisecond later than the previous so creation order is deterministic.
var (
	fixtureEpoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	fixtureTick  atomic.Int64
)

func nextCreatedAt() time.Time {
	return fixtureEpoch.Add(time.Duration(fixtureTick.Add(1)) * time.Millisecond)
}

// Project options
type ProjectOption func(*domain.Project)

func WithOwner(owner string) ProjectOption {
	return func(p *domain.Project) {
		p.OwnerID = owner
	}
}

func WithProjectCreatedAt(t time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.CreatedAt = t
		p.UpdatedAt = t
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := nextCreatedAt()
	p := &domain.Project{
		Name:      name,
		OwnerID:   "owner@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Product options
type ProductOption func(*domain.Product)

func WithProductCreatedAt(t time.Time) ProductOption {
	return func(p *domain.Product) {
		p.CreatedAt = t
		p.UpdatedAt = t
	}
}

func NewTestProduct(projectID int64, name string, opts ...ProductOption) *domain.Product {
	now := nextCreatedAt()
	p := &domain.Product{
		ProjectID: projectID,
		Name:      name,
		CreatedBy: "creator@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task options
type TaskOption func(*domain.Task)

func WithStatusID(id int64) TaskOption {
	return func(t *domain.Task) {
		t.StatusID = &id
	}
}

func WithAssignee(id int64) TaskOption {
	return func(t *domain.Task) {
		t.AssigneeID = &id
	}
}

func WithTaskCreatedAt(ts time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CreatedAt = ts
		t.UpdatedAt = ts
	}
}

func NewTestTask(productID int64, title string, opts ...TaskOption) *domain.Task {
	now := nextCreatedAt()
	t := &domain.Task{
		ProductID: productID,
		Title:     title,
		CreatedBy: "creator@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func NewTestTaskStep(taskID int64, content string) *domain.TaskStep {
	return &domain.TaskStep{
		TaskID:    taskID,
		Content:   content,
		CreatedBy: "creator@example.com",
		CreatedAt: nextCreatedAt(),
	}
}
