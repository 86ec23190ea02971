// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// RecordStore is the relational side of the transaction log.
type RecordStore interface {
	Append(ctx context.Context, tx core.Transaction) error
	SoftDelete(ctx context.Context, id string) error
}

// MirrorLog is the append-only CSV export.
type MirrorLog interface {
	Append(tx core.Transaction) error
}

// EventPublisher notifies the indexer worker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, msg *amqp.TransactionEvent) error
}

// TransactionService orchestrates ingestion across SQLite, the CSV mirror,
// and AMQP. SQLite is the source of truth: once the row is in, mirror and
// event failures are logged, not surfaced.
type TransactionService struct {
	store     RecordStore
	mirror    MirrorLog
	publisher EventPublisher
}

func NewTransactionService(store RecordStore, mirror MirrorLog, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		mirror:    mirror,
		publisher: publisher,
	}
}

// Create validates and stores a new transaction, returning its assigned ID.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (string, error) {
	tx.ID = uuid.NewString()

	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.Append(ctx, tx); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Append(tx); err != nil {
			slog.ErrorContext(ctx, "Failed to append to CSV mirror",
				"id", tx.ID, "error", err)
		}
	}

	s.publish(ctx, amqp.NewIndexEvent(tx.ID))
	return tx.ID, nil
}

// Delete soft deletes a transaction and asks the indexer to drop its
// vector point. The CSV mirror stays append-only and is not touched.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}

	s.publish(ctx, amqp.NewDeleteEvent(id))
	return nil
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.TransactionEvent) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event",
			"id", msg.ID, "action", msg.Action)
		return
	}
	if err := s.publisher.PublishEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", msg.ID, "action", msg.Action, "error", err)
	}
}
