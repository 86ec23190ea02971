package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type fakeStore struct {
	appended []core.Transaction
	deleted  []string
	failNext error
}

func (f *fakeStore) Append(ctx context.Context, tx core.Transaction) error {
	if f.failNext != nil {
		return f.failNext
	}
	f.appended = append(f.appended, tx)
	return nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id string) error {
	if f.failNext != nil {
		return f.failNext
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeMirror struct {
	appended []core.Transaction
	err      error
}

func (f *fakeMirror) Append(tx core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, tx)
	return nil
}

type fakePublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, msg)
	return nil
}

func validTx() core.Transaction {
	return core.Transaction{
		ProductName: "Milk",
		Category:    "Food",
		Amount:      core.Money{Cents: 250},
		DateAdded:   time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreate(t *testing.T) {
	store := &fakeStore{}
	mirror := &fakeMirror{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, mirror, pub)

	id, err := svc.Create(context.Background(), validTx())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected an assigned ID")
	}
	if len(store.appended) != 1 || store.appended[0].ID != id {
		t.Fatalf("store not written: %+v", store.appended)
	}
	if len(mirror.appended) != 1 {
		t.Fatalf("mirror not written: %+v", mirror.appended)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionIndex || pub.events[0].ID != id {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, &fakeMirror{}, &fakePublisher{})

	tx := validTx()
	tx.ProductName = "  "
	if _, err := svc.Create(context.Background(), tx); !errors.Is(err, core.ErrEmptyProduct) {
		t.Fatalf("expected ErrEmptyProduct, got %v", err)
	}
	if len(store.appended) != 0 {
		t.Fatal("invalid transaction must not reach the store")
	}
}

func TestCreateStoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &fakeStore{failNext: storeErr}
	mirror := &fakeMirror{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, mirror, pub)

	if _, err := svc.Create(context.Background(), validTx()); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(mirror.appended) != 0 || len(pub.events) != 0 {
		t.Fatal("mirror and publisher must not run when the store write fails")
	}
}

func TestCreateSurvivesMirrorAndPublishFailures(t *testing.T) {
	store := &fakeStore{}
	mirror := &fakeMirror{err: errors.New("csv broken")}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, mirror, pub)

	id, err := svc.Create(context.Background(), validTx())
	if err != nil {
		t.Fatalf("create should succeed when only side channels fail: %v", err)
	}
	if len(store.appended) != 1 || store.appended[0].ID != id {
		t.Fatalf("store not written: %+v", store.appended)
	}
}

func TestDelete(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, nil, pub)

	if err := svc.Delete(context.Background(), "id-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "id-1" {
		t.Fatalf("store delete not called: %+v", store.deleted)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionDelete {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestDeleteStoreFailure(t *testing.T) {
	store := &fakeStore{failNext: errors.New("not found")}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, nil, pub)

	if err := svc.Delete(context.Background(), "id-1"); err == nil {
		t.Fatal("expected error when soft delete fails")
	}
	if len(pub.events) != 0 {
		t.Fatal("no event should be published when the delete fails")
	}
}
