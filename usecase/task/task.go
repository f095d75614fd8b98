// Package task holds the task CRUD use case together with the access policy
// it enforces. Notification dispatch is fire-and-forget: a failed enqueue is
// logged and never fails the mutation that triggered it.
package task

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
	"github.com/taskhub/backend/usecase"
)

type UseCase struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	notifier usecase.Notifier
	files    usecase.FileStore
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	notifier usecase.Notifier,
	files usecase.FileStore,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		files:    files,
		logger:   logger,
	}
}

type CreateInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
	Priority    string
	AssignedTo  string
}

// UpdateInput carries a partial update: nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Status      *string
	Priority    *string
	AssignedTo  *string
}

type ListInput struct {
	Search   string
	Status   string
	Priority string
	Page     int
}

func (uc *UseCase) List(ctx context.Context, ident *domain.Identity, input ListInput) (*repository.TaskPage, error) {
	page := input.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "invalid page")
	}
	return uc.tasks.List(ctx, repository.TaskFilter{
		Scope:    ScopeFor(ident),
		Search:   input.Search,
		Status:   input.Status,
		Priority: input.Priority,
		Page:     page,
	})
}

func (uc *UseCase) Get(ctx context.Context, ident *domain.Identity, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(ident, task) {
		return nil, domain.ErrTaskAccessDenied
	}
	return task, nil
}

// Create validates the input and persists a new task owned by the caller.
// An unset assignee defaults to the creator, in which case no notification
// goes out.
func (uc *UseCase) Create(ctx context.Context, ident *domain.Identity, input CreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Title is required")
	}
	if strings.TrimSpace(input.DueDate) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "dueDate is required")
	}
	dueDate, err := domain.ParseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.StatusNotStarted
	} else if !domain.ValidStatus(status) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Status is invalid")
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityLow
	} else if !domain.ValidPriority(priority) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Priority is invalid")
	}

	assignee := input.AssignedTo
	if assignee == "" {
		assignee = ident.ID
	} else if assignee != ident.ID {
		if _, err := uc.users.GetByID(ctx, assignee); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil, domain.NewError(domain.ErrCodeNotFound, "Assigned user not found")
			}
			return nil, err
		}
	}

	task := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     dueDate,
		Status:      status,
		Priority:    priority,
		AssignedTo:  assignee,
		CreatedBy:   ident.ID,
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	if created.AssignedTo != created.CreatedBy {
		uc.notifyAssigned(ctx, created)
	}
	return created, nil
}

// Update applies a partial update behind the ownership gate and fires
// assignment/completion notifications for the transitions it observed.
func (uc *UseCase) Update(ctx context.Context, ident *domain.Identity, id string, input UpdateInput) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(ident, task) {
		return nil, domain.ErrTaskAccessDenied
	}

	var assigned, completed bool

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "Title is required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.DueDate != nil {
		dueDate, err := domain.ParseDueDate(*input.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = dueDate
	}
	if input.Status != nil && *input.Status != task.Status {
		if !domain.ValidStatus(*input.Status) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "Status is invalid")
		}
		task.Status = *input.Status
		completed = task.Status == domain.StatusCompleted
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "Priority is invalid")
		}
		task.Priority = *input.Priority
	}
	if input.AssignedTo != nil && *input.AssignedTo != "" && *input.AssignedTo != task.AssignedTo {
		if _, err := uc.users.GetByID(ctx, *input.AssignedTo); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil, domain.NewError(domain.ErrCodeNotFound, "Assigned user not found")
			}
			return nil, err
		}
		task.AssignedTo = *input.AssignedTo
		assigned = true
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if assigned {
		uc.notifyAssigned(ctx, task)
	}
	if completed {
		uc.notifyCompleted(ctx, task)
	}
	return task, nil
}

// Delete removes the task and its stored attachment, if any.
func (uc *UseCase) Delete(ctx context.Context, ident *domain.Identity, id string) error {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanAccess(ident, task) {
		return domain.ErrTaskAccessDenied
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	if task.Attachment != "" && uc.files != nil {
		if err := uc.files.Remove(task.Attachment); err != nil {
			uc.logger.Warn("failed to remove attachment",
				zap.String("task_id", id), zap.Error(err))
		}
	}
	return nil
}

// Attachment extensions accepted by the upload endpoint.
var allowedAttachmentExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
}

// Attach stores an uploaded file and records its reference on the task,
// replacing (and deleting) any previous attachment.
func (uc *UseCase) Attach(ctx context.Context, ident *domain.Identity, id, filename string, r io.Reader) (*domain.Task, error) {
	if !allowedAttachmentExts[strings.ToLower(filepath.Ext(filename))] {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Attachment is invalid")
	}
	if uc.files == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "file storage not configured")
	}

	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(ident, task) {
		return nil, domain.ErrTaskAccessDenied
	}

	ref, err := uc.files.Save(filename, r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to store attachment", err)
	}

	previous := task.Attachment
	task.Attachment = ref
	if err := uc.tasks.Update(ctx, task); err != nil {
		if removeErr := uc.files.Remove(ref); removeErr != nil {
			uc.logger.Warn("failed to remove orphaned attachment", zap.Error(removeErr))
		}
		return nil, err
	}

	if previous != "" {
		if err := uc.files.Remove(previous); err != nil {
			uc.logger.Warn("failed to remove replaced attachment", zap.Error(err))
		}
	}
	return task, nil
}

// Detach removes the task's attachment reference and the stored file.
func (uc *UseCase) Detach(ctx context.Context, ident *domain.Identity, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(ident, task) {
		return nil, domain.ErrTaskAccessDenied
	}
	if task.Attachment == "" {
		return task, nil
	}

	ref := task.Attachment
	task.Attachment = ""
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	if uc.files != nil {
		if err := uc.files.Remove(ref); err != nil {
			uc.logger.Warn("failed to remove attachment", zap.Error(err))
		}
	}
	return task, nil
}

func (uc *UseCase) notifyAssigned(ctx context.Context, task *domain.Task) {
	if uc.notifier == nil {
		return
	}
	assignee, err := uc.users.GetByID(ctx, task.AssignedTo)
	if err != nil {
		uc.logger.Warn("skipping assignment notification",
			zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	if err := uc.notifier.TaskAssigned(ctx, task, assignee); err != nil {
		uc.logger.Error("failed to enqueue assignment notification",
			zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (uc *UseCase) notifyCompleted(ctx context.Context, task *domain.Task) {
	if uc.notifier == nil {
		return
	}
	assignee, err := uc.users.GetByID(ctx, task.AssignedTo)
	if err != nil {
		uc.logger.Warn("skipping completion notification",
			zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	if err := uc.notifier.TaskCompleted(ctx, task, assignee); err != nil {
		uc.logger.Error("failed to enqueue completion notification",
			zap.String("task_id", task.ID), zap.Error(err))
	}
}
