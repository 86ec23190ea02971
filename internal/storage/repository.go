// Package storage is the relational record store. Transactions are keyed by
// UUID and soft-deleted; the analytics engine reads the full live set on
// every report request.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no live transaction has the given ID.
var ErrNotFound = errors.New("transaction not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append inserts a new transaction. The caller assigns the ID.
func (r *Repository) Append(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, product_name, category, amount_cents, date_added)
		VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.ProductName, tx.Category, tx.Amount.Cents, tx.DateAdded.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"product_name", tx.ProductName,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return nil
}

// ListAll returns every live transaction in ingestion order. The analytics
// engine relies on this ordering for its tie-breaks.
func (r *Repository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_name, category, amount_cents, date_added
		FROM transactions
		WHERE deleted_at IS NULL
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListRecent returns the most recently ingested live transactions.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_name, category, amount_cents, date_added
		FROM transactions
		WHERE deleted_at IS NULL
		ORDER BY rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Get returns a single live transaction by ID.
func (r *Repository) Get(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, product_name, category, amount_cents, date_added
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL`, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// SoftDelete marks a transaction deleted without removing the row.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction soft deleted", "id", id)
	return nil
}

// ListUnindexed returns live transactions not yet pushed to the vector
// store, oldest first. Used by the indexer's backfill sweep.
func (r *Repository) ListUnindexed(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_name, category, amount_cents, date_added
		FROM transactions
		WHERE deleted_at IS NULL AND indexed_at IS NULL
		ORDER BY rowid
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unindexed transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// MarkIndexed records that a transaction's vector point is up to date.
func (r *Repository) MarkIndexed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET indexed_at = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark transaction indexed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		tx        core.Transaction
		dateAdded string
	)
	if err := row.Scan(&tx.ID, &tx.ProductName, &tx.Category, &tx.Amount.Cents, &dateAdded); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, dateAdded)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", dateAdded, err)
	}
	tx.DateAdded = t
	return &tx, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
