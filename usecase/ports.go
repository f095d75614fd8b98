package usecase

import (
	"context"
	"io"

	"github.com/taskhub/backend/domain"
)

// Notifier abstracts the email notification pipeline. Implementations are
// best-effort: use cases log failures and never surface them to the caller,
// since notifications are side effects of an already-committed mutation.
type Notifier interface {
	TaskAssigned(ctx context.Context, task *domain.Task, assignee *domain.User) error
	TaskCompleted(ctx context.Context, task *domain.Task, assignee *domain.User) error
}

// FileStore abstracts attachment storage. Save returns an opaque reference
// that is stored on the task and later passed back to Remove.
type FileStore interface {
	Save(name string, r io.Reader) (string, error)
	Remove(ref string) error
}
