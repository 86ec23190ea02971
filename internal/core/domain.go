package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Money struct {
		Cents int64
	}

	// Transaction is one purchase event. ID is assigned at creation time and
	// is the only key deletion operates on.
	Transaction struct {
		ID          string
		ProductName string
		Category    string
		Amount      Money
		DateAdded   time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyProduct    = errors.New("empty product name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrProductTooLong  = errors.New("product name too long (max 100 characters)")
	ErrCategoryTooLong = errors.New("category too long (max 50 characters)")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.ProductName)) == 0 {
		return ErrEmptyProduct
	}
	if len(t.ProductName) > 100 {
		return ErrProductTooLong
	}
	if len(strings.TrimSpace(t.Category)) == 0 {
		return ErrEmptyCategory
	}
	if len(t.Category) > 50 {
		return ErrCategoryTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.DateAdded.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Month returns the calendar month bucket as a YYYY-MM string.
// String comparison on these keys is chronological order.
func (t Transaction) Month() string {
	return t.DateAdded.Format("2006-01")
}
