package analytics

// Result is the full output of one analysis invocation.
type Result struct {
	Summary  Summary     `json:"summary"`
	Tables   Tables      `json:"tables"`
	Insights []Insight   `json:"insights"`
	Clean    CleanReport `json:"clean_report"`
	Produced []string    `json:"produced_tables"`
}

// Analyze cleans the records and computes statistics, tables and insights.
// It is a pure function of its input: the same records always yield the same
// result. Returns ErrNoData when no usable rows remain after cleaning.
func Analyze(recs []Record) (*Result, error) {
	ds, rep := Clean(recs)
	if ds.Empty() {
		return nil, ErrNoData
	}
	tables := BuildTables(ds)
	return &Result{
		Summary:  Summarize(ds),
		Tables:   tables,
		Insights: Insights(ds),
		Clean:    rep,
		Produced: tables.Produced(),
	}, nil
}
