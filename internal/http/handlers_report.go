package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"fintrack/internal/analytics"
	applog "fintrack/internal/log"
)

type reportData struct {
	NoData     bool
	Summary    analytics.Summary
	Insights   []analytics.Insight
	Produced   []string
	Seen       int
	Kept       int
	Dropped    int
	TablesJSON template.JS
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	result, err := s.report(r.Context())
	if errors.Is(err, analytics.ErrNoData) {
		s.render(w, r, "report.html", reportData{NoData: true}, http.StatusOK)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Report build failed", applog.FieldError, err)
		http.Error(w, "could not build the report", http.StatusInternalServerError)
		return
	}

	tablesJSON, err := json.Marshal(result.Tables)
	if err != nil {
		logger.ErrorContext(r.Context(), "Marshal tables failed", applog.FieldError, err)
		http.Error(w, "could not build the report", http.StatusInternalServerError)
		return
	}

	data := reportData{
		Summary:    result.Summary,
		Insights:   result.Insights,
		Produced:   result.Produced,
		Seen:       result.Clean.Seen,
		Kept:       result.Clean.Kept,
		Dropped:    result.Clean.Dropped(),
		TablesJSON: template.JS(tablesJSON),
	}
	s.render(w, r, "report.html", data, http.StatusOK)
}

// handleAPIReport returns the full analysis result as JSON.
func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	result, err := s.report(r.Context())
	if errors.Is(err, analytics.ErrNoData) {
		writeJSONError(w, http.StatusNotFound, "no transactions recorded yet")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Report build failed", applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "could not build the report")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.ErrorContext(r.Context(), "Encode report failed", applog.FieldError, err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
