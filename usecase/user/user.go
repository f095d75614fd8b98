// Package user holds the admin-only account operations.
package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
)

// RequireAdmin is the role gate applied to admin-only operations.
func RequireAdmin(ident *domain.Identity) error {
	if ident == nil || !ident.IsAdmin {
		return domain.ErrAdminRequired
	}
	return nil
}

type UseCase struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tasks:  tasks,
		logger: logger,
	}
}

// Search lists accounts matching the query. Admin only.
func (uc *UseCase) Search(ctx context.Context, ident *domain.Identity, query string) ([]domain.User, error) {
	if err := RequireAdmin(ident); err != nil {
		return nil, err
	}
	return uc.users.Search(ctx, query)
}

// Delete removes an account. Admin only. Deletion is refused while any task
// still references the user as creator or assignee, keeping createdBy and
// assignedTo references valid.
func (uc *UseCase) Delete(ctx context.Context, ident *domain.Identity, id string) error {
	if err := RequireAdmin(ident); err != nil {
		return err
	}
	count, err := uc.tasks.CountReferencing(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.NewError(domain.ErrCodeConflict, "User is referenced by existing tasks")
	}
	return uc.users.Delete(ctx, id)
}
