package analytics

import "sort"

// Stable table names. The presentation layer maps each name to a chart type
// without inspecting table internals.
const (
	TableCategoryTotals       = "category_totals"
	TableCategoryCounts       = "category_counts"
	TableCategorySpread       = "category_spread"
	TableMonthlyTotals        = "monthly_totals"
	TableDailyTotals          = "daily_totals"
	TableHistogram            = "expenditure_histogram"
	TableCategoryDistribution = "category_distribution"
	TableWeekdayPivot         = "weekday_category_pivot"
	TableDayOfMonthTotals     = "day_of_month_totals"
	TableTopTransactions      = "top_transactions"
	TableCorrelation          = "correlation_matrix"
)

// TopN is how many transactions the top-transactions table ranks. Datasets
// with fewer rows do not produce the table.
const TopN = 10

// HistogramBuckets is the fixed bucket count of the expenditure histogram.
const HistogramBuckets = 30

// MovingAvgWindow is the trailing window of the daily moving average.
const MovingAvgWindow = 7

type (
	CategoryTotal struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	CategoryCount struct {
		Category string `json:"category"`
		Count    int    `json:"count"`
	}

	CategorySpread struct {
		Category string  `json:"category"`
		Mean     float64 `json:"mean"`
		StdDev   float64 `json:"std_dev"`
	}

	MonthTotal struct {
		Month      string  `json:"month"` // YYYY-MM
		Total      float64 `json:"total"`
		Cumulative float64 `json:"cumulative"`
	}

	DayTotal struct {
		Date      string  `json:"date"` // YYYY-MM-DD
		Total     float64 `json:"total"`
		MovingAvg float64 `json:"moving_avg"`
	}

	Bucket struct {
		Low   float64 `json:"low"`
		High  float64 `json:"high"`
		Count int     `json:"count"`
	}

	CategoryDistribution struct {
		Category string    `json:"category"`
		Min      float64   `json:"min"`
		Q1       float64   `json:"q1"`
		Median   float64   `json:"median"`
		Q3       float64   `json:"q3"`
		Max      float64   `json:"max"`
		Outliers []float64 `json:"outliers,omitempty"`
	}

	PivotRow struct {
		Weekday string    `json:"weekday"`
		Totals  []float64 `json:"totals"` // aligned with WeekdayCategoryPivot.Categories
	}

	WeekdayCategoryPivot struct {
		Categories []string   `json:"categories"`
		Rows       []PivotRow `json:"rows"` // Monday first, only weekdays present
	}

	MonthDayTotal struct {
		Day   int     `json:"day"` // 1-31, only days present
		Total float64 `json:"total"`
	}

	RankedTransaction struct {
		Rank     int     `json:"rank"`
		Product  string  `json:"product"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date"`
	}

	CorrelationMatrix struct {
		Labels []string    `json:"labels"`
		Values [][]float64 `json:"values"`
	}
)

// Tables bundles every derived table of one analysis invocation. WeekdayPivot
// and TopTransactions are nil when their production rules are not met; they
// are omitted rather than emitted empty.
type Tables struct {
	CategoryTotals        []CategoryTotal        `json:"category_totals"`
	CategoryCounts        []CategoryCount        `json:"category_counts"`
	CategorySpread        []CategorySpread       `json:"category_spread"`
	MonthlyTotals         []MonthTotal           `json:"monthly_totals"`
	DailyTotals           []DayTotal             `json:"daily_totals"`
	Histogram             []Bucket               `json:"expenditure_histogram"`
	CategoryDistributions []CategoryDistribution `json:"category_distribution"`
	WeekdayPivot          *WeekdayCategoryPivot  `json:"weekday_category_pivot,omitempty"`
	DayOfMonthTotals      []MonthDayTotal        `json:"day_of_month_totals"`
	TopTransactions       []RankedTransaction    `json:"top_transactions,omitempty"`
	Correlation           CorrelationMatrix      `json:"correlation_matrix"`
}

// Produced lists the stable names of the tables this invocation produced,
// in a fixed order.
func (t Tables) Produced() []string {
	names := []string{
		TableCategoryTotals,
		TableCategoryCounts,
		TableCategorySpread,
		TableMonthlyTotals,
		TableDailyTotals,
		TableHistogram,
		TableCategoryDistribution,
	}
	if t.WeekdayPivot != nil {
		names = append(names, TableWeekdayPivot)
	}
	names = append(names, TableDayOfMonthTotals)
	if t.TopTransactions != nil {
		names = append(names, TableTopTransactions)
	}
	return append(names, TableCorrelation)
}

// BuildTables computes the full battery over a non-empty dataset.
func BuildTables(ds *Dataset) Tables {
	return Tables{
		CategoryTotals:        CategoryTotals(ds),
		CategoryCounts:        CategoryCounts(ds),
		CategorySpread:        CategorySpreads(ds),
		MonthlyTotals:         MonthlyTotals(ds),
		DailyTotals:           DailyTotals(ds),
		Histogram:             Histogram(ds),
		CategoryDistributions: CategoryDistributions(ds),
		WeekdayPivot:          WeekdayPivot(ds),
		DayOfMonthTotals:      DayOfMonthTotals(ds),
		TopTransactions:       TopTransactions(ds, TopN),
		Correlation:           Correlation(ds),
	}
}

// CategoryTotals sums expenditure per category, sorted descending by total.
// Equal totals keep first-encountered category order.
func CategoryTotals(ds *Dataset) []CategoryTotal {
	order, groups := ds.amountsByCategory()
	out := make([]CategoryTotal, len(order))
	for i, cat := range order {
		out[i] = CategoryTotal{Category: cat, Total: sum(groups[cat])}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// CategoryCounts counts transactions per category in first-encountered order.
func CategoryCounts(ds *Dataset) []CategoryCount {
	order, groups := ds.amountsByCategory()
	out := make([]CategoryCount, len(order))
	for i, cat := range order {
		out[i] = CategoryCount{Category: cat, Count: len(groups[cat])}
	}
	return out
}

// CategorySpreads computes per-category mean and sample standard deviation
// for error-bar display.
func CategorySpreads(ds *Dataset) []CategorySpread {
	order, groups := ds.amountsByCategory()
	out := make([]CategorySpread, len(order))
	for i, cat := range order {
		out[i] = CategorySpread{
			Category: cat,
			Mean:     mean(groups[cat]),
			StdDev:   sampleStdDev(groups[cat]),
		}
	}
	return out
}

// MonthlyTotals sums per month bucket in chronological order and carries the
// running total alongside.
func MonthlyTotals(ds *Dataset) []MonthTotal {
	totals := make(map[string]float64)
	for _, row := range ds.Rows {
		totals[row.Month] += row.Amount
	}
	months := sortedKeys(totals)
	out := make([]MonthTotal, len(months))
	var running float64
	for i, m := range months {
		running += totals[m]
		out[i] = MonthTotal{Month: m, Total: totals[m], Cumulative: running}
	}
	return out
}

// DailyTotals sums per calendar day with a trailing moving average. Partial
// windows at the start average whatever is available.
func DailyTotals(ds *Dataset) []DayTotal {
	totals := make(map[string]float64)
	for _, row := range ds.Rows {
		totals[row.Date.Format("2006-01-02")] += row.Amount
	}
	days := sortedKeys(totals)
	out := make([]DayTotal, len(days))
	for i, d := range days {
		lo := i - MovingAvgWindow + 1
		if lo < 0 {
			lo = 0
		}
		var window float64
		for j := lo; j <= i; j++ {
			window += totals[days[j]]
		}
		out[i] = DayTotal{
			Date:      d,
			Total:     totals[d],
			MovingAvg: window / float64(i-lo+1),
		}
	}
	return out
}

// Histogram buckets expenditures into a fixed number of equal-width buckets
// spanning the observed range. A degenerate range (all values equal) is
// widened by half a unit on each side so every bucket keeps a positive width.
func Histogram(ds *Dataset) []Bucket {
	lo := ds.Rows[0].Amount
	hi := lo
	for _, row := range ds.Rows[1:] {
		if row.Amount < lo {
			lo = row.Amount
		}
		if row.Amount > hi {
			hi = row.Amount
		}
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / HistogramBuckets

	out := make([]Bucket, HistogramBuckets)
	for i := range out {
		out[i] = Bucket{Low: lo + float64(i)*width, High: lo + float64(i+1)*width}
	}
	for _, row := range ds.Rows {
		idx := int((row.Amount - lo) / width)
		if idx >= HistogramBuckets {
			idx = HistogramBuckets - 1 // max lands in the last bucket
		}
		out[idx].Count++
	}
	return out
}

// CategoryDistributions computes the five-number summary plus outlier
// candidates (beyond 1.5 IQR whiskers) per category.
func CategoryDistributions(ds *Dataset) []CategoryDistribution {
	order, groups := ds.amountsByCategory()
	out := make([]CategoryDistribution, len(order))
	for i, cat := range order {
		s := append([]float64(nil), groups[cat]...)
		sort.Float64s(s)
		q1 := quantile(s, 0.25)
		q3 := quantile(s, 0.75)
		iqr := q3 - q1
		d := CategoryDistribution{
			Category: cat,
			Min:      s[0],
			Q1:       q1,
			Median:   quantile(s, 0.5),
			Q3:       q3,
			Max:      s[len(s)-1],
		}
		for _, v := range s {
			if v < q1-1.5*iqr || v > q3+1.5*iqr {
				d.Outliers = append(d.Outliers, v)
			}
		}
		out[i] = d
	}
	return out
}

var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayPivot sums expenditure per weekday and category. The table is only
// produced when both dimensions have more than one distinct value; otherwise
// it collapses into tables already present and is omitted.
func WeekdayPivot(ds *Dataset) *WeekdayCategoryPivot {
	cats := ds.categories()
	present := make(map[int]bool)
	for _, row := range ds.Rows {
		present[row.Weekday] = true
	}
	if len(cats) < 2 || len(present) < 2 {
		return nil
	}

	catIndex := make(map[string]int, len(cats))
	for i, c := range cats {
		catIndex[c] = i
	}
	cells := make(map[int][]float64)
	for _, row := range ds.Rows {
		if cells[row.Weekday] == nil {
			cells[row.Weekday] = make([]float64, len(cats))
		}
		cells[row.Weekday][catIndex[row.Category]] += row.Amount
	}

	pivot := &WeekdayCategoryPivot{Categories: cats}
	for wd := 0; wd < 7; wd++ {
		if totals, ok := cells[wd]; ok {
			pivot.Rows = append(pivot.Rows, PivotRow{Weekday: weekdayNames[wd], Totals: totals})
		}
	}
	return pivot
}

// DayOfMonthTotals sums per day of month; days without transactions are
// absent, not zero.
func DayOfMonthTotals(ds *Dataset) []MonthDayTotal {
	totals := make(map[int]float64)
	for _, row := range ds.Rows {
		totals[row.Day] += row.Amount
	}
	days := make([]int, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Ints(days)
	out := make([]MonthDayTotal, len(days))
	for i, d := range days {
		out[i] = MonthDayTotal{Day: d, Total: totals[d]}
	}
	return out
}

// TopTransactions ranks the n largest transactions. Ties keep original record
// order. Datasets with fewer than n rows do not produce the table.
func TopTransactions(ds *Dataset, n int) []RankedTransaction {
	if len(ds.Rows) < n {
		return nil
	}
	idx := make([]int, len(ds.Rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ds.Rows[idx[a]].Amount > ds.Rows[idx[b]].Amount
	})
	out := make([]RankedTransaction, n)
	for rank, i := range idx[:n] {
		row := ds.Rows[i]
		out[rank] = RankedTransaction{
			Rank:     rank + 1,
			Product:  row.Product,
			Category: row.Category,
			Amount:   row.Amount,
			Date:     row.Date.Format("2006-01-02"),
		}
	}
	return out
}

var correlationLabels = []string{"expenditure", "month", "day", "weekday"}

// Correlation builds the 4x4 Pearson correlation matrix between expenditure
// and the integer time features. Zero-variance features correlate as 0; the
// diagonal is exactly 1.
func Correlation(ds *Dataset) CorrelationMatrix {
	n := len(ds.Rows)
	features := [4][]float64{
		make([]float64, n), // expenditure
		make([]float64, n), // month number
		make([]float64, n), // day of month
		make([]float64, n), // weekday, Monday = 0
	}
	for i, row := range ds.Rows {
		features[0][i] = row.Amount
		features[1][i] = float64(row.Date.Month())
		features[2][i] = float64(row.Day)
		features[3][i] = float64(row.Weekday)
	}

	values := make([][]float64, 4)
	for i := range values {
		values[i] = make([]float64, 4)
		values[i][i] = 1
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			r := pearson(features[i], features[j])
			values[i][j] = r
			values[j][i] = r
		}
	}
	return CorrelationMatrix{Labels: correlationLabels, Values: values}
}
