package analytics

import (
	"math"
	"sort"
)

// Summary holds the scalar aggregates over the expenditure column.
type Summary struct {
	Total            float64 `json:"total"`
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
	Max              float64 `json:"max"`
	Min              float64 `json:"min"`
	StdDev           float64 `json:"std_dev"`
	Count            int     `json:"count"`
	TopCategory      string  `json:"top_category"`
	TopCategoryTotal float64 `json:"top_category_total"`
}

// Summarize computes the summary statistics. The dataset must be non-empty;
// Analyze gates on that before calling.
func Summarize(ds *Dataset) Summary {
	amounts := make([]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		amounts[i] = row.Amount
	}

	s := Summary{
		Total:  sum(amounts),
		Mean:   mean(amounts),
		Median: median(amounts),
		Max:    max64(amounts),
		Min:    min64(amounts),
		StdDev: sampleStdDev(amounts),
		Count:  len(amounts),
	}

	// Top category by total; ties resolve to the first-encountered category.
	order, groups := ds.amountsByCategory()
	for _, cat := range order {
		total := sum(groups[cat])
		if s.TopCategory == "" || total > s.TopCategoryTotal {
			s.TopCategory = cat
			s.TopCategoryTotal = total
		}
	}
	return s
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func min64(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func max64(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// sampleStdDev uses the N-1 estimator. Fewer than two points yields 0.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// quantile interpolates linearly between order statistics (the same scheme
// spreadsheet and dataframe tooling defaults to). xs must be sorted.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// pearson returns the Pearson correlation coefficient, or 0 when either
// series has no variance.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}
