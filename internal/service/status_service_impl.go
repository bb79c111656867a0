package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
)

type statusService struct {
	statuses repository.StatusRepo
}

func NewStatusService(statuses repository.StatusRepo) StatusService {
	return &statusService{statuses: statuses}
}

func (s *statusService) List(ctx context.Context) ([]domain.Status, error) {
	return s.statuses.List(ctx)
}

func (s *statusService) Create(ctx context.Context, name, color string) (*domain.Status, error) {
	status := &domain.Status{Name: name, Color: color}
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("creating status: %w", err)
	}
	return status, nil
}

type userService struct {
	users repository.UserRepo
}

func NewUserService(users repository.UserRepo) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Create(ctx context.Context, name, email string) (*domain.User, error) {
	trimmed, err := domain.ValidateName("name", name)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Name: trimmed, Email: strings.TrimSpace(email)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}
