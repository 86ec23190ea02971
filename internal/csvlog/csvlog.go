// Package csvlog keeps the append-only CSV mirror of the transaction log.
// The file is a plain export of everything ever ingested; deletions never
// touch it.
package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

var header = []string{"product_name", "category", "expenditure", "date_added"}

type Log struct {
	mu   sync.Mutex
	path string
}

func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create csv directory: %w", err)
	}
	return &Log{path: path}, nil
}

// Append writes one transaction to the end of the mirror file, creating it
// with a header row first if needed.
func (l *Log) Append(tx core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		writeHeader = true
	} else if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	record := []string{
		tx.ProductName,
		tx.Category,
		tx.Amount.FormatValue(),
		tx.DateAdded.UTC().Format("2006-01-02"),
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadAll parses the mirror file into raw records for the analytics engine.
// A missing file means nothing has been logged yet and is not an error.
func (l *Log) ReadAll() ([]analytics.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	recs, err := analytics.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read csv mirror: %w", err)
	}
	return recs, nil
}

// Path returns the location of the mirror file.
func (l *Log) Path() string {
	return l.path
}
