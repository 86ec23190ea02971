package analytics

import (
	"errors"
	"reflect"
	"testing"
)

func TestAnalyzeIsDeterministic(t *testing.T) {
	recs := []Record{
		rec("a", "A", "10", "2025-01-01"),
		rec("b", "B", "20", "2025-02-15"),
		rec("c", "A", "30", "2025-03-20"),
		rec("d", "C", "5", "2025-03-21"),
	}
	first, err := Analyze(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Analyze(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs over the same records diverged")
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	if _, err := Analyze(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	// All rows dropped by cleaning is the same as no rows at all.
	dirty := []Record{
		rec("a", "A", "x", "2025-03-01"),
		rec("b", "A", "10", "never"),
	}
	if _, err := Analyze(dirty); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData after lossy cleaning, got %v", err)
	}
}

func TestAnalyzeProducedMatchesTables(t *testing.T) {
	recs := []Record{
		rec("a", "A", "10", "2025-03-03"),
		rec("b", "B", "20", "2025-03-04"),
	}
	res, err := Analyze(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tables.WeekdayPivot == nil {
		t.Fatal("expected pivot for two categories over two weekdays")
	}
	found := false
	for _, name := range res.Produced {
		if name == TableWeekdayPivot {
			found = true
		}
	}
	if !found {
		t.Fatalf("produced names %v missing %s", res.Produced, TableWeekdayPivot)
	}
	if res.Clean.Seen != 2 || res.Clean.Kept != 2 {
		t.Fatalf("clean report = %+v, want 2 seen 2 kept", res.Clean)
	}
}
