// Package memory provides map-backed repository implementations. They mirror
// the Postgres predicate semantics exactly and back the unit tests, which
// inject them instead of touching module-level state.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
)

type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	order []string // insertion order, the stable listing order
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]domain.Task)}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter repository.TaskFilter) (*repository.TaskPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Task
	for _, id := range r.order {
		task := r.tasks[id]
		if matchesFilter(&task, filter) {
			matched = append(matched, task)
		}
	}

	total := len(matched)
	start := (page - 1) * repository.PageSize
	if start > total {
		start = total
	}
	end := start + repository.PageSize
	if end > total {
		end = total
	}

	return &repository.TaskPage{
		Tasks:       append([]domain.Task(nil), matched[start:end]...),
		CurrentPage: page,
		TotalPages:  (total + repository.PageSize - 1) / repository.PageSize,
	}, nil
}

// matchesFilter conjoins the scope group and each present filter, matching
// the SQL built by the Postgres repository.
func matchesFilter(t *domain.Task, filter repository.TaskFilter) bool {
	if !filter.Scope.Matches(t) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && t.Priority != filter.Priority {
		return false
	}
	return true
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	r.order = append(r.order, task.ID)
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.CreatedBy = existing.CreatedBy
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *TaskRepository) CountReferencing(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, task := range r.tasks {
		if task.CreatedBy == userID || task.AssignedTo == userID {
			count++
		}
	}
	return count, nil
}

func (r *TaskRepository) DueBetween(ctx context.Context, from, until time.Time) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tasks []domain.Task
	for _, id := range r.order {
		task := r.tasks[id]
		if task.IsCompleted() {
			continue
		}
		if !task.DueDate.Before(from) && task.DueDate.Before(until) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}
