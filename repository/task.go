package repository

import (
	"context"
	"time"

	"github.com/taskhub/backend/domain"
)

// PageSize is the fixed number of tasks per listing page.
const PageSize = 5

// TaskScope restricts which rows a caller can see, independent of the
// user-supplied filters. A zero scope is unrestricted (admin callers).
type TaskScope struct {
	// UserID, when set, limits results to tasks the user created or is
	// assigned to.
	UserID string
}

// Unrestricted reports whether the scope imposes no row filter.
func (s TaskScope) Unrestricted() bool {
	return s.UserID == ""
}

// Matches applies the scoping predicate to a single task.
func (s TaskScope) Matches(t *domain.Task) bool {
	if s.Unrestricted() {
		return true
	}
	return t.CreatedBy == s.UserID || t.AssignedTo == s.UserID
}

// TaskFilter describes one listing request. The scope and each present
// filter are conjoined: when the scope is a disjunction (non-admin caller)
// it stays a separate AND group so a search can never widen visibility.
type TaskFilter struct {
	Scope    TaskScope
	Search   string
	Status   string
	Priority string
	Page     int // 1-based
}

// TaskPage is a single page of results plus pagination metadata. TotalPages
// is computed over the scoped and filtered set, not the whole collection.
type TaskPage struct {
	Tasks       []domain.Task `json:"tasks"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) (*TaskPage, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	// CountReferencing counts tasks that reference the user as creator or
	// assignee. Used to refuse deleting users that tasks still point at.
	CountReferencing(ctx context.Context, userID string) (int, error)
	// DueBetween returns non-completed tasks whose due date falls in
	// [from, until). Feeds the reminder sweep.
	DueBetween(ctx context.Context, from, until time.Time) ([]domain.Task, error)
}
