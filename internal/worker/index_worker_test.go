package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/assistant"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeReader struct {
	txs       map[string]core.Transaction
	unindexed []core.Transaction
	marked    []string
}

func (f *fakeReader) Get(ctx context.Context, id string) (*core.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &tx, nil
}

func (f *fakeReader) ListUnindexed(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit < len(f.unindexed) {
		return f.unindexed[:limit], nil
	}
	return f.unindexed, nil
}

func (f *fakeReader) MarkIndexed(ctx context.Context, id string) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return []float32{0.1, 0.2}, nil
}

type fakeVectors struct {
	upserted []assistant.Point
	deleted  []string
}

func (f *fakeVectors) Upsert(ctx context.Context, points []assistant.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeVectors) Delete(ctx context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

func testTx(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		ProductName: "Milk",
		Category:    "Food",
		Amount:      core.Money{Cents: 250},
		DateAdded:   time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
	}
}

func newTestWorker(reader *fakeReader, embedder *fakeEmbedder, vectors *fakeVectors) *IndexWorker {
	return NewIndexWorker(reader, embedder, vectors, nil, 50, time.Minute)
}

func TestHandleEventIndex(t *testing.T) {
	reader := &fakeReader{txs: map[string]core.Transaction{"id-1": testTx("id-1")}}
	embedder := &fakeEmbedder{}
	vectors := &fakeVectors{}
	w := newTestWorker(reader, embedder, vectors)

	err := w.HandleEvent(context.Background(), amqp.NewIndexEvent("id-1"))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(vectors.upserted) != 1 || vectors.upserted[0].ID != "id-1" {
		t.Fatalf("vector not upserted: %+v", vectors.upserted)
	}
	if len(reader.marked) != 1 || reader.marked[0] != "id-1" {
		t.Fatalf("transaction not marked indexed: %+v", reader.marked)
	}
	if len(embedder.texts) != 1 || embedder.texts[0] != assistant.ChunkText(testTx("id-1")) {
		t.Fatalf("unexpected embedded text: %v", embedder.texts)
	}
}

func TestHandleEventIndexGoneTransaction(t *testing.T) {
	reader := &fakeReader{txs: map[string]core.Transaction{}}
	vectors := &fakeVectors{}
	w := newTestWorker(reader, &fakeEmbedder{}, vectors)

	// A transaction deleted before the event arrives is not an error,
	// otherwise the delivery would requeue forever.
	if err := w.HandleEvent(context.Background(), amqp.NewIndexEvent("gone")); err != nil {
		t.Fatalf("expected nil for missing transaction, got %v", err)
	}
	if len(vectors.upserted) != 0 {
		t.Fatal("nothing should be upserted for a missing transaction")
	}
}

func TestHandleEventDelete(t *testing.T) {
	vectors := &fakeVectors{}
	w := newTestWorker(&fakeReader{}, &fakeEmbedder{}, vectors)

	if err := w.HandleEvent(context.Background(), amqp.NewDeleteEvent("id-1")); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "id-1" {
		t.Fatalf("vector not deleted: %+v", vectors.deleted)
	}
}

func TestHandleEventUnknownAction(t *testing.T) {
	w := newTestWorker(&fakeReader{}, &fakeEmbedder{}, &fakeVectors{})
	msg := &amqp.TransactionEvent{ID: "id-1", Action: "compact"}
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("unknown actions should be dropped, got %v", err)
	}
}

func TestBackfill(t *testing.T) {
	reader := &fakeReader{
		unindexed: []core.Transaction{testTx("id-1"), testTx("id-2")},
	}
	vectors := &fakeVectors{}
	w := newTestWorker(reader, &fakeEmbedder{}, vectors)

	if err := w.Backfill(context.Background()); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if len(vectors.upserted) != 2 {
		t.Fatalf("got %d upserts, want 2", len(vectors.upserted))
	}
	if len(reader.marked) != 2 {
		t.Fatalf("got %d marked, want 2", len(reader.marked))
	}
}

func TestBackfillContinuesPastFailures(t *testing.T) {
	reader := &fakeReader{
		unindexed: []core.Transaction{testTx("id-1"), testTx("id-2")},
	}
	embedder := &fakeEmbedder{err: errors.New("ollama down")}
	vectors := &fakeVectors{}
	w := newTestWorker(reader, embedder, vectors)

	if err := w.Backfill(context.Background()); err != nil {
		t.Fatalf("backfill should not fail on per-row errors: %v", err)
	}
	if len(reader.marked) != 0 {
		t.Fatal("failed rows must stay unindexed for the next sweep")
	}
}
