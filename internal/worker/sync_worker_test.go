package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/services"
	"expenses/internal/sheets/memory"
)

type fakeSyncer struct {
	now   int
	since []time.Time
	err   error
}

func (f *fakeSyncer) SyncNow(context.Context) error {
	f.now++
	return f.err
}

func (f *fakeSyncer) SyncSince(_ context.Context, t time.Time) error {
	f.since = append(f.since, t)
	return f.err
}

func TestHandleChangeUsesMessageTimestamp(t *testing.T) {
	s := &fakeSyncer{}
	w := NewMirrorWorker(s)

	msg := amqp.NewLedgerChangeMessage(amqp.OpAdd, "a", 3)
	require.NoError(t, w.HandleChange(context.Background(), msg))

	require.Len(t, s.since, 1)
	assert.Equal(t, msg.Timestamp, s.since[0])
	assert.Zero(t, s.now)
}

func TestHandleChangeResyncForcesCopy(t *testing.T) {
	s := &fakeSyncer{}
	w := NewMirrorWorker(s)

	require.NoError(t, w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage(amqp.OpResync, "", 0)))
	assert.Equal(t, 1, s.now)
	assert.Empty(t, s.since)
}

func TestHandleChangeWrapsErrors(t *testing.T) {
	s := &fakeSyncer{err: errors.New("sheets unavailable")}
	w := NewMirrorWorker(s)

	err := w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage(amqp.OpRemove, "a", 2))
	require.Error(t, err)
	assert.ErrorContains(t, err, "sheets unavailable")

	assert.Error(t, w.StartupSync(context.Background()))
}

func TestMirrorWorkerCopiesSnapshot(t *testing.T) {
	state := core.LedgerState{
		Currency: "USD",
		Entries:  []core.Entry{{ID: "a", Amount: 7, Category: core.Other, Date: core.NewDate(2024, 4, 1)}},
	}
	primary := memory.NewWithState(state)
	mirror := memory.New()
	p := services.NewSyncProcessor(primary, mirror, services.SyncProcessorConfig{
		Interval:   time.Hour,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	w := NewMirrorWorker(p)

	require.NoError(t, w.StartupSync(context.Background()))
	got, found, err := mirror.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, state, got)

	require.NoError(t, w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage(amqp.OpUpdate, "a", 2)))
	assert.Equal(t, 2, mirror.Saves())
}
