package analytics

import "fmt"

// Insight kinds, in the order Insights emits them.
const (
	InsightTopCategory      = "top_category"
	InsightAverageValue     = "average_value"
	InsightPriciestPurchase = "priciest_purchase"
	InsightTrend            = "trend"
	InsightFrequentCategory = "frequent_category"
)

// Insight is one short finding plus the scalar that justifies it. For the
// trend insight, Value is the raw last-minus-first month delta and the two
// month totals ride along so callers can label an equal case themselves.
type Insight struct {
	Kind            string  `json:"kind"`
	Text            string  `json:"text"`
	Value           float64 `json:"value"`
	FirstMonthTotal float64 `json:"first_month_total,omitempty"`
	LastMonthTotal  float64 `json:"last_month_total,omitempty"`
}

// Insights derives the fixed-order findings from a non-empty dataset.
func Insights(ds *Dataset) []Insight {
	var out []Insight

	s := Summarize(ds)
	out = append(out, Insight{
		Kind:  InsightTopCategory,
		Text:  fmt.Sprintf("You spend the most on %s (%.2f total).", s.TopCategory, s.TopCategoryTotal),
		Value: s.TopCategoryTotal,
	})
	out = append(out, Insight{
		Kind:  InsightAverageValue,
		Text:  fmt.Sprintf("Your average transaction is %.2f.", s.Mean),
		Value: s.Mean,
	})

	// Priciest single purchase; equal amounts resolve to the first occurrence.
	priciest := ds.Rows[0]
	for _, row := range ds.Rows[1:] {
		if row.Amount > priciest.Amount {
			priciest = row
		}
	}
	out = append(out, Insight{
		Kind:  InsightPriciestPurchase,
		Text:  fmt.Sprintf("Your most expensive purchase was %s at %.2f.", priciest.Product, priciest.Amount),
		Value: priciest.Amount,
	})

	// Trend needs at least two distinct months.
	if months := MonthlyTotals(ds); len(months) >= 2 {
		first := months[0]
		last := months[len(months)-1]
		direction := "decreasing"
		if last.Total > first.Total {
			direction = "increasing"
		}
		out = append(out, Insight{
			Kind: InsightTrend,
			Text: fmt.Sprintf("Your monthly spending is %s (%s: %.2f, %s: %.2f).",
				direction, first.Month, first.Total, last.Month, last.Total),
			Value:           last.Total - first.Total,
			FirstMonthTotal: first.Total,
			LastMonthTotal:  last.Total,
		})
	}

	// Most frequent category; ties resolve to the first-encountered one.
	var modeCat string
	var modeCount int
	for _, cc := range CategoryCounts(ds) {
		if cc.Count > modeCount {
			modeCat = cc.Category
			modeCount = cc.Count
		}
	}
	out = append(out, Insight{
		Kind:  InsightFrequentCategory,
		Text:  fmt.Sprintf("You buy %s most often (%d transactions).", modeCat, modeCount),
		Value: float64(modeCount),
	})

	return out
}
