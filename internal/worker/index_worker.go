// Package worker keeps the vector store in step with SQLite. Events from
// AMQP drive the normal path; a periodic backfill sweep catches anything
// the event path missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/assistant"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionReader is the storage surface the worker needs.
type TransactionReader interface {
	Get(ctx context.Context, id string) (*core.Transaction, error)
	ListUnindexed(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkIndexed(ctx context.Context, id string) error
}

// Embedder turns chunk text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorWriter is the vector store surface the worker needs.
type VectorWriter interface {
	Upsert(ctx context.Context, points []assistant.Point) error
	Delete(ctx context.Context, ids []string) error
}

// EventConsumer delivers transaction events until the context ends.
type EventConsumer interface {
	Consume(ctx context.Context, handler func(*amqp.TransactionEvent) error) error
}

type IndexWorker struct {
	store     TransactionReader
	embedder  Embedder
	vectors   VectorWriter
	consumer  EventConsumer
	batchSize int
	interval  time.Duration
}

func NewIndexWorker(store TransactionReader, embedder Embedder, vectors VectorWriter, consumer EventConsumer, batchSize int, interval time.Duration) *IndexWorker {
	return &IndexWorker{
		store:     store,
		embedder:  embedder,
		vectors:   vectors,
		consumer:  consumer,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run consumes events and sweeps for unindexed transactions until the
// context is cancelled.
func (w *IndexWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.consumer.Consume(ctx, func(msg *amqp.TransactionEvent) error {
			return w.HandleEvent(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Backfill(ctx); err != nil {
					slog.ErrorContext(ctx, "Backfill sweep failed", "error", err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleEvent processes one transaction event.
func (w *IndexWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	switch msg.Action {
	case amqp.ActionIndex:
		return w.indexTransaction(ctx, msg.ID)
	case amqp.ActionDelete:
		return w.deleteVector(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Unknown event action", "action", msg.Action, "id", msg.ID)
		return nil
	}
}

func (w *IndexWorker) indexTransaction(ctx context.Context, id string) error {
	tx, err := w.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between publish and consume. Nothing to index.
		slog.WarnContext(ctx, "Transaction gone before indexing", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	if err := w.indexOne(ctx, *tx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction indexed", "id", id)
	return nil
}

func (w *IndexWorker) indexOne(ctx context.Context, tx core.Transaction) error {
	text := assistant.ChunkText(tx)
	vector, err := w.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed transaction %s: %w", tx.ID, err)
	}

	point := assistant.Point{
		ID:      tx.ID,
		Vector:  vector,
		Payload: assistant.Payload(tx),
	}
	if err := w.vectors.Upsert(ctx, []assistant.Point{point}); err != nil {
		return fmt.Errorf("upsert vector for %s: %w", tx.ID, err)
	}

	if err := w.store.MarkIndexed(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark indexed %s: %w", tx.ID, err)
	}
	return nil
}

func (w *IndexWorker) deleteVector(ctx context.Context, id string) error {
	if err := w.vectors.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("delete vector for %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Vector point deleted", "id", id)
	return nil
}

// Backfill indexes transactions the event path missed, oldest first.
func (w *IndexWorker) Backfill(ctx context.Context) error {
	pending, err := w.store.ListUnindexed(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unindexed: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Backfilling unindexed transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.indexOne(ctx, tx); err != nil {
			// Keep going; the next sweep retries the stragglers.
			slog.ErrorContext(ctx, "Backfill index failed", "id", tx.ID, "error", err)
		}
	}
	return nil
}
