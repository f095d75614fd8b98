package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/infrastructure/outbox"
)

type fakeSender struct {
	sent []string
	fail bool
}

func (s *fakeSender) Send(to, subject, body string) error {
	if s.fail {
		return errors.New("smtp unreachable")
	}
	s.sent = append(s.sent, to)
	return nil
}

func openOutbox(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDrainSendsAndPurges(t *testing.T) {
	store := openOutbox(t)
	sender := &fakeSender{}
	d := NewDispatcher(store, sender, nil, DispatcherConfig{})

	require.NoError(t, store.Enqueue(outbox.Message{To: "a@example.com", Subject: "s", Body: "b"}))
	require.NoError(t, store.Enqueue(outbox.Message{To: "b@example.com", Subject: "s", Body: "b"}))

	require.NoError(t, d.Drain())

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.sent)
	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDrainRequeuesFailures(t *testing.T) {
	store := openOutbox(t)
	sender := &fakeSender{fail: true}
	d := NewDispatcher(store, sender, nil, DispatcherConfig{MaxAttempts: 3})

	require.NoError(t, store.Enqueue(outbox.Message{To: "a@example.com", Subject: "s", Body: "b"}))

	require.NoError(t, d.Drain())

	batch, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, batch, 1, "failed message stays queued")
	assert.Equal(t, 1, batch[0].Attempts)
}

func TestDrainDropsAfterMaxAttempts(t *testing.T) {
	store := openOutbox(t)
	sender := &fakeSender{fail: true}
	d := NewDispatcher(store, sender, nil, DispatcherConfig{MaxAttempts: 2})

	require.NoError(t, store.Enqueue(outbox.Message{To: "a@example.com", Subject: "s", Body: "b"}))

	require.NoError(t, d.Drain())
	require.NoError(t, d.Drain())

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size, "message dropped once attempts are exhausted")
}

func TestDrainRecoversMidBatch(t *testing.T) {
	store := openOutbox(t)
	sender := &fakeSender{fail: true}
	d := NewDispatcher(store, sender, nil, DispatcherConfig{MaxAttempts: 5})

	require.NoError(t, store.Enqueue(outbox.Message{To: "a@example.com", Subject: "s", Body: "b"}))
	require.NoError(t, d.Drain())

	sender.fail = false
	require.NoError(t, d.Drain())

	assert.Equal(t, []string{"a@example.com"}, sender.sent)
	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDispatcherStartStop(t *testing.T) {
	store := openOutbox(t)
	d := NewDispatcher(store, &fakeSender{}, nil, DispatcherConfig{Interval: time.Hour})

	d.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d.Stop(ctx)
}
