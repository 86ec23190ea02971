// Package analytics computes summary statistics, chart-ready tables and
// insights from the transaction record store. Every invocation rebuilds the
// working dataset from scratch; the package keeps no state between calls.
package analytics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// ErrNoData is returned when the record source holds no usable rows.
// Callers render a "no data yet" state; this is not a failure.
var ErrNoData = errors.New("no transaction records")

// RequiredColumns is the schema the record source must provide.
var RequiredColumns = []string{"product_name", "category", "expenditure", "date_added"}

// SchemaError reports required columns absent from the record source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

// Record is one raw row before cleaning. Expenditure and DateAdded are kept
// as strings because manual entry produces dirty values; Clean decides what
// survives.
type Record struct {
	ProductName string
	Category    string
	Expenditure string
	DateAdded   string
}

// Row is one cleaned record with its derived calendar columns attached.
type Row struct {
	Product  string
	Category string
	Amount   float64
	Date     time.Time
	Month    string // YYYY-MM, chronologically sortable as a string
	Weekday  int    // 0 = Monday .. 6 = Sunday
	ISOWeek  int
	Day      int // day of month, 1-31
	Hour     int // 0 when the source row carried a pure date
}

// Dataset is the cleaned working set for a single analysis invocation.
type Dataset struct {
	Rows []Row
}

func (d *Dataset) Empty() bool {
	return d == nil || len(d.Rows) == 0
}

// CleanReport accounts for every input row so data-quality loss is visible
// instead of silent.
type CleanReport struct {
	Seen             int
	Kept             int
	DroppedBadDate   int
	DroppedBadAmount int
}

func (r CleanReport) Dropped() int {
	return r.DroppedBadDate + r.DroppedBadAmount
}

// dateLayouts are tried in order when parsing date_added. Pure dates get
// hour 0.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// mondayWeekday maps time.Weekday onto the 0=Monday .. 6=Sunday scale used
// by the pivot ordering and the correlation features.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Clean drops rows with an unparseable date or a missing/non-numeric amount
// and derives the calendar columns on the survivors. Row order is preserved;
// all tie-breaks downstream rely on it.
func Clean(recs []Record) (*Dataset, CleanReport) {
	rep := CleanReport{Seen: len(recs)}
	ds := &Dataset{Rows: make([]Row, 0, len(recs))}
	for _, rec := range recs {
		date, ok := parseDate(rec.DateAdded)
		if !ok {
			rep.DroppedBadDate++
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(rec.Expenditure), 64)
		if err != nil {
			rep.DroppedBadAmount++
			continue
		}
		_, week := date.ISOWeek()
		ds.Rows = append(ds.Rows, Row{
			Product:  rec.ProductName,
			Category: rec.Category,
			Amount:   amount,
			Date:     date,
			Month:    date.Format("2006-01"),
			Weekday:  mondayWeekday(date),
			ISOWeek:  week,
			Day:      date.Day(),
			Hour:     date.Hour(),
		})
	}
	rep.Kept = len(ds.Rows)
	return ds, rep
}

// ReadCSV reads records from the flat transaction log. The header must carry
// every required column; extras are ignored. An empty file (header only, or
// nothing at all) yields zero records, not an error.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	field := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var recs []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		recs = append(recs, Record{
			ProductName: field(row, "product_name"),
			Category:    field(row, "category"),
			Expenditure: field(row, "expenditure"),
			DateAdded:   field(row, "date_added"),
		})
	}
	return recs, nil
}

// FromTransactions projects store rows into records. Store rows are already
// validated, so cleaning keeps all of them.
func FromTransactions(txs []core.Transaction) []Record {
	recs := make([]Record, len(txs))
	for i, tx := range txs {
		recs[i] = Record{
			ProductName: tx.ProductName,
			Category:    tx.Category,
			Expenditure: tx.Amount.FormatValue(),
			DateAdded:   tx.DateAdded.Format(time.RFC3339),
		}
	}
	return recs
}

// categories returns distinct categories in first-encountered order, the
// ordering every category tie-break resolves against.
func (d *Dataset) categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range d.Rows {
		if _, ok := seen[row.Category]; ok {
			continue
		}
		seen[row.Category] = struct{}{}
		out = append(out, row.Category)
	}
	return out
}

// amountsByCategory groups amounts preserving first-encountered category
// order and within-category row order.
func (d *Dataset) amountsByCategory() ([]string, map[string][]float64) {
	order := d.categories()
	groups := make(map[string][]float64, len(order))
	for _, row := range d.Rows {
		groups[row.Category] = append(groups[row.Category], row.Amount)
	}
	return order, groups
}

// sortedKeys returns map keys in ascending order. Month and day keys are
// built so string order is chronological order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
