// Package services holds the notification pipeline: an email notifier that
// enqueues to the outbox, a cron-driven dispatcher that drains it through
// SMTP, and a daily reminder sweep for upcoming due dates.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/internal/infrastructure/outbox"
	"github.com/taskhub/backend/usecase"
)

// EmailNotifier turns task events into outbox messages. Enqueueing is the
// only synchronous step; delivery happens later in the dispatcher.
type EmailNotifier struct {
	store  *outbox.Store
	logger *zap.Logger
}

var _ usecase.Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(store *outbox.Store, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{store: store, logger: logger}
}

// TaskAssigned enqueues an assignment notification for the assignee.
func (n *EmailNotifier) TaskAssigned(ctx context.Context, task *domain.Task, assignee *domain.User) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nA new task titled %q has been assigned to you.\n\nDue date: %s\nPriority: %s\n\nPlease log in to view the details.",
		assignee.Username,
		task.Title,
		task.DueDate.Format("2006-01-02"),
		task.Priority,
	)
	return n.enqueue(assignee.Email, "New Task Assigned", body)
}

// TaskCompleted enqueues a completion notification for the assignee.
func (n *EmailNotifier) TaskCompleted(ctx context.Context, task *domain.Task, assignee *domain.User) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nThe task titled %q has been marked as completed.\n\nNo further action is required.",
		assignee.Username,
		task.Title,
	)
	return n.enqueue(assignee.Email, "Task Completed", body)
}

// TaskDueSoon enqueues a due date reminder for the assignee.
func (n *EmailNotifier) TaskDueSoon(task *domain.Task, assignee *domain.User) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nThe task titled %q is due on %s and is not completed yet.\n\nPlease log in to review it.",
		assignee.Username,
		task.Title,
		task.DueDate.Format("2006-01-02"),
	)
	return n.enqueue(assignee.Email, "Task Due Soon", body)
}

func (n *EmailNotifier) enqueue(to, subject, body string) error {
	if n == nil || n.store == nil {
		return fmt.Errorf("outbox not configured")
	}
	err := n.store.Enqueue(outbox.Message{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err == nil {
		n.logger.Debug("notification enqueued",
			zap.String("to", to), zap.String("subject", subject))
	}
	return err
}
