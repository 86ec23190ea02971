package analytics

import (
	"strings"
	"testing"
)

func TestInsightsFixedOrder(t *testing.T) {
	ds, _ := Clean([]Record{
		rec("Laptop", "Tech", "900", "2025-01-10"),
		rec("Coffee", "Food", "3", "2025-02-01"),
		rec("Bread", "Food", "2", "2025-02-02"),
	})
	ins := Insights(ds)
	wantKinds := []string{
		InsightTopCategory,
		InsightAverageValue,
		InsightPriciestPurchase,
		InsightTrend,
		InsightFrequentCategory,
	}
	if len(ins) != len(wantKinds) {
		t.Fatalf("got %d insights, want %d", len(ins), len(wantKinds))
	}
	for i, k := range wantKinds {
		if ins[i].Kind != k {
			t.Fatalf("insight %d kind = %s, want %s", i, ins[i].Kind, k)
		}
	}
}

func TestInsightsTrendNeedsTwoMonths(t *testing.T) {
	ds, _ := Clean([]Record{
		rec("a", "A", "10", "2025-03-01"),
		rec("b", "A", "20", "2025-03-15"),
	})
	for _, in := range Insights(ds) {
		if in.Kind == InsightTrend {
			t.Fatal("trend emitted for a single month")
		}
	}
}

func TestInsightsTrendDirectionAndDelta(t *testing.T) {
	ds, _ := Clean([]Record{
		rec("a", "A", "10", "2025-01-01"),
		rec("b", "A", "30", "2025-02-01"),
	})
	var trend *Insight
	for i := range Insights(ds) {
		in := Insights(ds)[i]
		if in.Kind == InsightTrend {
			trend = &in
		}
	}
	if trend == nil {
		t.Fatal("expected trend insight")
	}
	if !strings.Contains(trend.Text, "increasing") {
		t.Fatalf("trend text = %q, want increasing", trend.Text)
	}
	if trend.Value != 20 || trend.FirstMonthTotal != 10 || trend.LastMonthTotal != 30 {
		t.Fatalf("trend delta = %+v, want 20 (10 -> 30)", trend)
	}

	// Reversed totals flip the label; equal totals keep "decreasing" but the
	// caller can tell from the zero delta.
	ds2, _ := Clean([]Record{
		rec("a", "A", "30", "2025-01-01"),
		rec("b", "A", "10", "2025-02-01"),
	})
	for _, in := range Insights(ds2) {
		if in.Kind == InsightTrend && !strings.Contains(in.Text, "decreasing") {
			t.Fatalf("trend text = %q, want decreasing", in.Text)
		}
	}
}

func TestInsightsPriciestTieFirstOccurrence(t *testing.T) {
	ds, _ := Clean([]Record{
		rec("early", "A", "50", "2025-03-01"),
		rec("late", "A", "50", "2025-03-02"),
	})
	for _, in := range Insights(ds) {
		if in.Kind == InsightPriciestPurchase && !strings.Contains(in.Text, "early") {
			t.Fatalf("priciest text = %q, want first occurrence 'early'", in.Text)
		}
	}
}

func TestInsightsModeTieFirstEncountered(t *testing.T) {
	ds, _ := Clean([]Record{
		rec("a", "B", "1", "2025-03-01"),
		rec("b", "A", "1", "2025-03-02"),
		rec("c", "B", "1", "2025-03-03"),
		rec("d", "A", "1", "2025-03-04"),
	})
	for _, in := range Insights(ds) {
		if in.Kind == InsightFrequentCategory {
			if !strings.Contains(in.Text, "B") || in.Value != 2 {
				t.Fatalf("mode = %+v, want B with 2", in)
			}
		}
	}
}
