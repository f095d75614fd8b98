// Package lifecycle coordinates graceful shutdown: components register a
// closer as they start, and on SIGTERM/SIGINT the closers run in reverse
// registration order under a shared deadline.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

type closer struct {
	name string
	fn   ShutdownFunc
}

type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	closers []closer
}

// New creates a lifecycle manager with the desired shutdown timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown closer. Registration order should match startup
// order; shutdown runs the closers in reverse.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closers = append(m.closers, closer{name: name, fn: fn})
}

// Shutdown executes all registered closers under the configured timeout.
// A failing closer is logged and does not stop the remaining ones.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	closers := make([]closer, len(m.closers))
	copy(closers, m.closers)
	m.mu.Unlock()

	var result error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", c.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", c.name))
	}
	return result
}

// Listen invokes cancel once a termination signal arrives.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
