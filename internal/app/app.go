// Package app assembles the services behind every entry point from a single
// store handle.
package app

import (
	"log/slog"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/repository"
	"github.com/alexanderramin/opstree/internal/service"
)

// Services holds the use-case ports shared by the CLI, HTTP and MCP
// surfaces.
type Services struct {
	Tree     service.TreeService
	Steps    service.TaskStepService
	Statuses service.StatusService
	Users    service.UserService
	Import   service.ImportService
	Health   db.Pinger
}

// New wires services over h. When logger is non-nil every use case is also
// reported through it.
func New(h *db.Handle, logger *slog.Logger, observers ...service.UseCaseObserver) *Services {
	if logger != nil {
		observers = append(observers, service.NewSlogUseCaseObserver(logger))
	}
	return &Services{
		Tree: service.NewTreeService(service.TreeDeps{
			Conn:   h,
			UoW:    h,
			Pinger: h,
		}, observers...),
		Steps:    service.NewTaskStepService(repository.NewSQLiteTaskStepRepo(h), h, observers...),
		Statuses: service.NewStatusService(repository.NewSQLiteStatusRepo(h)),
		Users:    service.NewUserService(repository.NewSQLiteUserRepo(h)),
		Import:   service.NewImportService(h, observers...),
		Health:   h,
	}
}
