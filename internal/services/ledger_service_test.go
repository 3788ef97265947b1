package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/sheets/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*amqp.LedgerChangeMessage
	err      error
	closed   bool
}

func (p *recordingPublisher) Publish(_ context.Context, msg *amqp.LedgerChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Op
	}
	return out
}

func newLedgerService(t *testing.T, pub ChangePublisher) *LedgerService {
	t.Helper()
	store, err := ledger.Open(context.Background(), memory.New())
	require.NoError(t, err)
	return NewLedgerService(store, pub)
}

func TestLedgerServicePublishesCommittedChanges(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newLedgerService(t, pub)

	e, err := svc.Add(ctx, core.EntryInput{Amount: "250", Category: "Food", Date: "2024-03-05"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, e.ID, core.EntryInput{Amount: "300", Category: "Food", Date: "2024-03-05"})
	require.NoError(t, err)

	require.NoError(t, svc.SetCurrency(ctx, "USD"))
	require.NoError(t, svc.Remove(ctx, e.ID))

	assert.Equal(t, []string{amqp.OpAdd, amqp.OpUpdate, amqp.OpCurrency, amqp.OpRemove}, pub.ops())
	assert.Equal(t, e.ID, pub.messages[0].EntryID)
	assert.Equal(t, uint64(1), pub.messages[0].Revision)
	assert.Equal(t, uint64(4), pub.messages[3].Revision)
}

func TestLedgerServiceSkipsNoOps(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newLedgerService(t, pub)

	require.NoError(t, svc.Remove(ctx, "missing"))
	require.NoError(t, svc.SetCurrency(ctx, core.DefaultCurrency))

	_, err := svc.Add(ctx, core.EntryInput{Amount: "-1", Category: "Food", Date: "2024-03-05"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Update(ctx, "missing", core.EntryInput{Amount: "1", Category: "Food", Date: "2024-03-05"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, pub.ops())
}

func TestLedgerServicePublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newLedgerService(t, pub)

	e, err := svc.Add(ctx, core.EntryInput{Amount: "10", Category: "Bills", Date: "2024-01-01"})
	require.NoError(t, err)

	got, err := svc.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.Len(t, pub.ops(), 1)
}

func TestLedgerServiceWithoutPublisher(t *testing.T) {
	svc := newLedgerService(t, nil)

	_, err := svc.Add(context.Background(), core.EntryInput{Amount: "10", Category: "Bills", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCurrency, svc.Currency())
	assert.NoError(t, svc.Close())
}

func TestLedgerServiceCloseClosesPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newLedgerService(t, pub)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestLedgerServiceConcurrentRemovePublishesOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newLedgerService(t, pub)

	e, err := svc.Add(ctx, core.EntryInput{Amount: "5", Category: "Food", Date: "2024-03-05"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Remove(ctx, e.ID))
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{amqp.OpAdd, amqp.OpRemove}, pub.ops())
}
