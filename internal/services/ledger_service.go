package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
)

// ChangePublisher announces committed ledger mutations.
type ChangePublisher interface {
	Publish(ctx context.Context, msg *amqp.LedgerChangeMessage) error
}

// LedgerService runs ledger mutations and publishes a change message for each
// committed one. Publishing is best effort and never fails a mutation.
type LedgerService struct {
	store     *ledger.Store
	publisher ChangePublisher
}

// NewLedgerService wires the store to an optional publisher (nil disables events).
func NewLedgerService(store *ledger.Store, publisher ChangePublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// Store exposes the underlying ledger for read paths.
func (s *LedgerService) Store() *ledger.Store {
	return s.store
}

func (s *LedgerService) Add(ctx context.Context, in core.EntryInput) (core.Entry, error) {
	e, err := s.store.Add(ctx, in)
	if err != nil {
		return core.Entry{}, err
	}
	s.publish(ctx, amqp.OpAdd, e.ID)
	return e, nil
}

func (s *LedgerService) Update(ctx context.Context, id string, in core.EntryInput) (core.Entry, error) {
	e, err := s.store.Update(ctx, id, in)
	if err != nil {
		return core.Entry{}, err
	}
	s.publish(ctx, amqp.OpUpdate, id)
	return e, nil
}

// Remove deletes an entry. Nothing is published when the id was absent.
func (s *LedgerService) Remove(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.publish(ctx, amqp.OpRemove, id)
	}
	return nil
}

func (s *LedgerService) SetCurrency(ctx context.Context, code string) error {
	changed, err := s.store.ChangeCurrency(ctx, code)
	if err != nil {
		return err
	}
	if changed {
		s.publish(ctx, amqp.OpCurrency, "")
	}
	return nil
}

func (s *LedgerService) Get(id string) (core.Entry, error) {
	return s.store.Get(id)
}

func (s *LedgerService) Currency() string {
	return s.store.Currency()
}

// publish logs a committed mutation and announces it when a publisher is set.
func (s *LedgerService) publish(ctx context.Context, op, entryID string) {
	revision := s.store.Revision()
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogLedgerChange(ctx, op, entryID, revision)
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangeMessage(op, entryID, revision)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger change",
			"op", op,
			"entry_id", entryID,
			"revision", msg.Revision,
			"error", err)
	}
}

// Close releases the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
