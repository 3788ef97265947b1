package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/sheets/memory"
)

type flakySaver struct {
	mu       sync.Mutex
	failures int
	calls    int
	saved    core.LedgerState
}

func (f *flakySaver) Save(_ context.Context, state core.LedgerState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("quota exceeded")
	}
	f.saved = state
	return nil
}

func fastConfig() SyncProcessorConfig {
	return SyncProcessorConfig{Interval: time.Hour, MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	cfg := DefaultSyncProcessorConfig()
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)

	p := NewSyncProcessor(memory.New(), memory.New(), SyncProcessorConfig{})
	assert.Equal(t, cfg, p.config)
}

func TestSyncNowCopiesPrimaryToMirror(t *testing.T) {
	primary := memory.NewWithState(sampleState())
	mirror := memory.New()
	p := NewSyncProcessor(primary, mirror, fastConfig())

	require.NoError(t, p.SyncNow(context.Background()))

	got, found, err := mirror.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sampleState(), got)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Syncs)
	assert.Equal(t, 3, stats.LastEntries)
	assert.Empty(t, stats.LastError)
}

func TestSyncNowMirrorsEmptyLedgerWhenPrimaryUnsaved(t *testing.T) {
	mirror := &flakySaver{}
	p := NewSyncProcessor(memory.New(), mirror, fastConfig())

	require.NoError(t, p.SyncNow(context.Background()))
	assert.Empty(t, mirror.saved.Entries)
	assert.Equal(t, core.DefaultCurrency, mirror.saved.Currency)
}

func TestSyncNowRetries(t *testing.T) {
	mirror := &flakySaver{failures: 2}
	p := NewSyncProcessor(memory.NewWithState(sampleState()), mirror, fastConfig())

	require.NoError(t, p.SyncNow(context.Background()))
	assert.Equal(t, 3, mirror.calls)

	mirror = &flakySaver{failures: 5}
	p = NewSyncProcessor(memory.NewWithState(sampleState()), mirror, fastConfig())

	err := p.SyncNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 3, mirror.calls)
	assert.Equal(t, 1, p.Stats().Failures)
}

func TestSyncSinceSkipsCoveredChanges(t *testing.T) {
	mirror := &flakySaver{}
	p := NewSyncProcessor(memory.NewWithState(sampleState()), mirror, fastConfig())
	clock := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	require.NoError(t, p.SyncSince(context.Background(), clock.Add(-time.Minute)))
	assert.Equal(t, 1, mirror.calls)

	require.NoError(t, p.SyncSince(context.Background(), clock.Add(-time.Second)))
	assert.Equal(t, 1, mirror.calls)

	require.NoError(t, p.SyncSince(context.Background(), clock.Add(time.Second)))
	assert.Equal(t, 2, mirror.calls)
}

func TestSyncProcessorLifecycle(t *testing.T) {
	mirror := &flakySaver{}
	p := NewSyncProcessor(memory.NewWithState(sampleState()), mirror, fastConfig())
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(ctx))

	assert.Eventually(t, func() bool {
		mirror.mu.Lock()
		defer mirror.mu.Unlock()
		return mirror.calls == 1
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())
	assert.NoError(t, p.Stop(stopCtx))
}
