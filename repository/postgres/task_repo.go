package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
)

const taskColumns = "id, title, description, due_date, status, priority, assigned_to, created_by, attachment, created_at, updated_at"

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

// List runs the page query and the total count over the same WHERE clause,
// so totalPages always agrees with the rows returned.
func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) (*repository.TaskPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}

	where, args := buildTaskWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM tasks" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	pageArgs := append(args, repository.PageSize, (page-1)*repository.PageSize)
	pageQuery := fmt.Sprintf(
		"SELECT %s FROM tasks%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		taskColumns, where, len(args)+1, len(args)+2,
	)

	rows, err := r.pool.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, repository.PageSize)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.TaskPage{
		Tasks:       tasks,
		CurrentPage: page,
		TotalPages:  (total + repository.PageSize - 1) / repository.PageSize,
	}, nil
}

// buildTaskWhere translates a TaskFilter into SQL. The scoping disjunction
// stays inside its own parenthesized group: each further filter is ANDed on
// top, never merged into the OR.
func buildTaskWhere(filter repository.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if !filter.Scope.Unrestricted() {
		args = append(args, filter.Scope.UserID)
		conds = append(conds, fmt.Sprintf("(created_by = $%d OR assigned_to = $%d)", len(args), len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, title, description, due_date, status, priority, assigned_to, created_by, attachment)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.Priority,
		task.AssignedTo,
		task.CreatedBy,
		task.Attachment,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

// Update writes every mutable column. created_by is deliberately absent: it
// is immutable after creation.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		due_date = $4,
		status = $5,
		priority = $6,
		assigned_to = $7,
		attachment = $8,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.Priority,
		task.AssignedTo,
		task.Attachment,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) CountReferencing(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE created_by = $1 OR assigned_to = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *taskRepository) DueBetween(ctx context.Context, from, until time.Time) ([]domain.Task, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE status <> $1 AND due_date >= $2 AND due_date < $3 ORDER BY due_date",
		taskColumns,
	)
	rows, err := r.pool.Query(ctx, query, domain.StatusCompleted, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Status,
		&task.Priority,
		&task.AssignedTo,
		&task.CreatedBy,
		&task.Attachment,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
