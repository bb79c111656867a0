package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
)

type taskStepService struct {
	steps    repository.TaskStepRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewTaskStepService(steps repository.TaskStepRepo, uow db.UnitOfWork, observers ...UseCaseObserver) TaskStepService {
	return &taskStepService{steps: steps, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *taskStepService) ListByTask(ctx context.Context, taskID int64) ([]domain.TaskStep, error) {
	if err := requireID("taskId", taskID); err != nil {
		return nil, err
	}
	return s.steps.ListByTask(ctx, taskID)
}

func (s *taskStepService) Add(ctx context.Context, in AddTaskStepInput) (step *domain.TaskStep, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": in.TaskID}
	defer func() { observe(ctx, s.observer, "task_step.add", startedAt, fields, err) }()

	if err = requireID("taskId", in.TaskID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.NewValidationError("content", "is required")
	}

	step = &domain.TaskStep{
		TaskID:     in.TaskID,
		Content:    content,
		AssigneeID: in.AssigneeID,
		CreatedBy:  in.CreatedBy,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		if _, err := r.tasks.GetByID(ctx, in.TaskID); err != nil {
			return err
		}
		statusID, err := resolveStatusID(ctx, r.statuses, in.Status)
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, r.users, in.AssigneeID); err != nil {
			return err
		}
		st, err := r.statuses.GetByID(ctx, statusID)
		if err != nil {
			return err
		}
		step.StatusID = &statusID
		step.StatusName = st.Name
		return r.steps.Create(ctx, step)
	})
	if err != nil {
		return nil, fmt.Errorf("adding task step: %w", err)
	}
	fields["step_id"] = step.ID
	return step, nil
}

func (s *taskStepService) UpdateStatus(ctx context.Context, stepID int64, status domain.StatusRef) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"step_id": stepID}
	defer func() { observe(ctx, s.observer, "task_step.update_status", startedAt, fields, err) }()

	if err = requireID("id", stepID); err != nil {
		return err
	}
	if status.IsZero() {
		return domain.NewValidationError("status", "is required")
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		statusID, err := resolveStatusID(ctx, r.statuses, status)
		if err != nil {
			return err
		}
		return r.steps.UpdateStatus(ctx, stepID, &statusID)
	})
}
