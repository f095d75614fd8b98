package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskhub/backend/internal/infrastructure/outbox"
)

// Sender delivers a single email. The SMTP implementation lives in
// pkg/mailer; tests substitute a fake.
type Sender interface {
	Send(to, subject, body string) error
}

// DispatcherConfig controls how frequently the outbox is drained.
type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	Retention   time.Duration
}

// Dispatcher drains the outbox through the SMTP sender on a cron schedule.
// A message that keeps failing is dropped after MaxAttempts with a log line;
// notification delivery is best-effort end to end.
type Dispatcher struct {
	store  *outbox.Store
	sender Sender
	logger *zap.Logger
	cron   *cron.Cron
	cfg    DispatcherConfig
}

func NewDispatcher(store *outbox.Store, sender Sender, logger *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		store:  store,
		sender: sender,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		if err := d.Drain(); err != nil {
			d.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = d.cron.AddFunc("0 0 * * * *", func() {
		if err := d.store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
			d.logger.Warn("outbox cleanup failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *Dispatcher) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("notification dispatcher started")
}

// Stop gracefully stops the scheduler.
func (d *Dispatcher) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("notification dispatcher stopped")
}

// Drain sends one batch of queued messages synchronously.
func (d *Dispatcher) Drain() error {
	if d == nil || d.store == nil || d.sender == nil {
		return nil
	}

	messages, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := d.sender.Send(msg.To, msg.Subject, msg.Body); err != nil {
			d.logger.Error("failed to send notification",
				zap.String("message_id", msg.ID),
				zap.String("to", msg.To),
				zap.Error(err))

			msg.Attempts++
			if msg.Attempts >= d.cfg.MaxAttempts {
				d.logger.Warn("dropping notification (max attempts reached)",
					zap.String("message_id", msg.ID))
				_ = d.store.Remove(msg)
				continue
			}
			if err := d.store.Requeue(msg); err != nil {
				d.logger.Error("failed to requeue notification", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(msg); err != nil {
			d.logger.Warn("failed to purge sent notification", zap.Error(err))
		}
	}
	return nil
}
