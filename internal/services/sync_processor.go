package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "expenses/internal/log"
	"expenses/internal/sheets"
)

// SyncProcessorConfig holds configuration for the mirror sync processor
type SyncProcessorConfig struct {
	// Interval is how often a full copy runs regardless of change events (default: 5m)
	Interval time.Duration

	// MaxRetries is the number of attempts per copy before giving up (default: 3)
	MaxRetries int

	// RetryDelay is the pause before the first retry, doubled on each attempt (default: 1s)
	RetryDelay time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		Interval:   5 * time.Minute,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// SyncStats describes the processor's copy history.
type SyncStats struct {
	Syncs       int
	Failures    int
	LastEntries int
	LastStarted time.Time
	LastSuccess time.Time
	LastError   string
}

// SyncProcessor copies the primary snapshot to a mirror store, on demand
// and on a fixed interval. Copies never overlap.
type SyncProcessor struct {
	primary sheets.SnapshotLoader
	mirror  sheets.SnapshotSaver
	config  SyncProcessorConfig
	now     func() time.Time

	syncMu sync.Mutex
	stats  SyncStats

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(primary sheets.SnapshotLoader, mirror sheets.SnapshotSaver, config SyncProcessorConfig) *SyncProcessor {
	defaults := DefaultSyncProcessorConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	return &SyncProcessor{
		primary: primary,
		mirror:  mirror,
		config:  config,
		now:     time.Now,
	}
}

// Start begins the periodic copy loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"interval", p.config.Interval,
		"max_retries", p.config.MaxRetries)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Copy immediately on startup
	p.syncLogged(ctx, "startup")

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.syncLogged(ctx, "interval")
		}
	}
}

func (p *SyncProcessor) syncLogged(ctx context.Context, reason string) {
	if err := p.SyncNow(ctx); err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Mirror sync failed", err,
			applog.ComponentMirror, reason, applog.NewFields())
	}
}

// SyncSince copies the snapshot unless a copy that started at or after
// changedAt already succeeded, in which case the change is already mirrored.
func (p *SyncProcessor) SyncSince(ctx context.Context, changedAt time.Time) error {
	p.syncMu.Lock()
	covered := !changedAt.IsZero() &&
		!p.stats.LastSuccess.IsZero() &&
		!p.stats.LastStarted.Before(changedAt)
	p.syncMu.Unlock()
	if covered {
		slog.DebugContext(ctx, "Change already mirrored", "changed_at", changedAt)
		return nil
	}
	return p.SyncNow(ctx)
}

// SyncNow loads the primary snapshot and saves it to the mirror, retrying
// with exponential backoff up to MaxRetries attempts.
func (p *SyncProcessor) SyncNow(ctx context.Context) error {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	started := p.now()
	delay := p.config.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		entries, err := p.copyOnce(ctx)
		if err == nil {
			p.stats.Syncs++
			p.stats.LastEntries = entries
			p.stats.LastStarted = started
			p.stats.LastSuccess = p.now()
			p.stats.LastError = ""
			slog.InfoContext(ctx, "Mirror synced",
				"entries", entries,
				"attempt", attempt)
			return nil
		}
		lastErr = err
		slog.WarnContext(ctx, "Mirror sync attempt failed",
			"attempt", attempt,
			"error", err)

		if attempt == p.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = p.config.MaxRetries
		case <-time.After(delay):
			delay *= 2
		}
	}

	p.stats.Failures++
	p.stats.LastError = lastErr.Error()
	return fmt.Errorf("mirror sync: %w", lastErr)
}

func (p *SyncProcessor) copyOnce(ctx context.Context) (int, error) {
	state, found, err := p.primary.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load primary snapshot: %w", err)
	}
	if !found {
		slog.DebugContext(ctx, "Primary has no snapshot yet, mirroring empty ledger")
	}
	state = state.Clone()
	if err := p.mirror.Save(ctx, state); err != nil {
		return 0, fmt.Errorf("save mirror snapshot: %w", err)
	}
	return len(state.Entries), nil
}

// Stats returns a copy of the processor's counters
func (p *SyncProcessor) Stats() SyncStats {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()
	return p.stats
}
