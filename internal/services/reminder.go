package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskhub/backend/repository"
)

// ReminderConfig controls the due date sweep.
type ReminderConfig struct {
	Schedule string
	Window   time.Duration
}

// Reminder sweeps for uncompleted tasks whose due date falls inside the
// lookahead window and enqueues a reminder email per assignee.
type Reminder struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	notifier *EmailNotifier
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ReminderConfig
}

func NewReminder(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	notifier *EmailNotifier,
	logger *zap.Logger,
	cfg ReminderConfig,
) *Reminder {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 0 8 * * *"
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reminder{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	_, _ = r.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := r.Sweep(ctx); err != nil {
			r.logger.Error("reminder sweep failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *Reminder) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("due date reminder started")
}

// Stop gracefully stops the scheduler.
func (r *Reminder) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("due date reminder stopped")
}

// Sweep runs one reminder pass.
func (r *Reminder) Sweep(ctx context.Context) error {
	now := time.Now()
	due, err := r.tasks.DueBetween(ctx, now, now.Add(r.cfg.Window))
	if err != nil {
		return err
	}

	for i := range due {
		task := &due[i]
		assignee, err := r.users.GetByID(ctx, task.AssignedTo)
		if err != nil {
			r.logger.Warn("skipping reminder, assignee lookup failed",
				zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		if err := r.notifier.TaskDueSoon(task, assignee); err != nil {
			r.logger.Error("failed to enqueue reminder",
				zap.String("task_id", task.ID), zap.Error(err))
		}
	}
	return nil
}
