package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

type fakeReader struct {
	txs []core.Transaction
}

func (f *fakeReader) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReader) ListRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit < len(f.txs) {
		return f.txs[:limit], nil
	}
	return f.txs, nil
}

type fakeWriter struct {
	created []core.Transaction
	deleted []string
	err     error
}

func (f *fakeWriter) Create(ctx context.Context, tx core.Transaction) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tx.ID = "assigned-id"
	f.created = append(f.created, tx)
	return tx.ID, nil
}

func (f *fakeWriter) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAssistant struct {
	answer string
	err    error
}

func (f *fakeAssistant) Answer(ctx context.Context, question string) (string, error) {
	return f.answer, f.err
}

func testTxs() []core.Transaction {
	base := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	return []core.Transaction{
		{ID: "id-1", ProductName: "Milk", Category: "Food", Amount: core.Money{Cents: 250}, DateAdded: base},
		{ID: "id-2", ProductName: "Bus", Category: "Transport", Amount: core.Money{Cents: 180}, DateAdded: base.AddDate(0, 0, 1)},
		{ID: "id-3", ProductName: "Bread", Category: "Food", Amount: core.Money{Cents: 120}, DateAdded: base.AddDate(0, 1, 0)},
	}
}

func newTestServer(reader *fakeReader, writer *fakeWriter, assistant Assistant) *Server {
	return NewServer(":0", reader, writer, assistant, applog.New(applog.DefaultConfig()))
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(&fakeReader{txs: testTxs()}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Milk", "Transport", "2.50"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestHandleCreate(t *testing.T) {
	writer := &fakeWriter{}
	s := newTestServer(&fakeReader{}, writer, nil)

	form := url.Values{
		"product_name": {"Milk"},
		"category":     {"Food"},
		"expenditure":  {"2,50"},
		"date_added":   {"2025-03-03"},
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body: %s", rec.Code, rec.Body.String())
	}
	if len(writer.created) != 1 {
		t.Fatalf("created = %+v, want one transaction", writer.created)
	}
	tx := writer.created[0]
	if tx.ProductName != "Milk" || tx.Amount.Cents != 250 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.DateAdded.Format("2006-01-02") != "2025-03-03" {
		t.Fatalf("unexpected date: %v", tx.DateAdded)
	}
}

func TestHandleCreateBadAmount(t *testing.T) {
	writer := &fakeWriter{}
	s := newTestServer(&fakeReader{}, writer, nil)

	form := url.Values{
		"product_name": {"Milk"},
		"category":     {"Food"},
		"expenditure":  {"-3"},
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Amount must be a positive number") {
		t.Errorf("missing validation message in body")
	}
	if len(writer.created) != 0 {
		t.Fatal("invalid form must not reach the writer")
	}
}

func TestHandleDelete(t *testing.T) {
	writer := &fakeWriter{}
	s := newTestServer(&fakeReader{}, writer, nil)

	req := httptest.NewRequest("POST", "/transactions/id-1/delete", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if len(writer.deleted) != 1 || writer.deleted[0] != "id-1" {
		t.Fatalf("deleted = %+v, want [id-1]", writer.deleted)
	}
}

func TestHandleDeleteNotFound(t *testing.T) {
	writer := &fakeWriter{err: storage.ErrNotFound}
	s := newTestServer(&fakeReader{}, writer, nil)

	req := httptest.NewRequest("POST", "/transactions/missing/delete", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleReportNoData(t *testing.T) {
	s := newTestServer(&fakeReader{}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/report", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No transactions recorded yet") {
		t.Errorf("missing no-data message")
	}
}

func TestHandleReport(t *testing.T) {
	s := newTestServer(&fakeReader{txs: testTxs()}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/report", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Summary", "category_totals", "Top category"} {
		if !strings.Contains(body, want) {
			t.Errorf("report page missing %q", want)
		}
	}
}

func TestHandleAPIReport(t *testing.T) {
	s := newTestServer(&fakeReader{txs: testTxs()}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/api/report", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result struct {
		Summary struct {
			Count int     `json:"count"`
			Total float64 `json:"total"`
		} `json:"summary"`
		Produced []string `json:"produced_tables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Summary.Count != 3 {
		t.Errorf("count = %d, want 3", result.Summary.Count)
	}
	if len(result.Produced) == 0 {
		t.Error("produced tables should not be empty")
	}
}

func TestHandleAPIReportNoData(t *testing.T) {
	s := newTestServer(&fakeReader{}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/api/report", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleChat(t *testing.T) {
	assistant := &fakeAssistant{answer: "You spent 2.50 on food."}
	s := newTestServer(&fakeReader{}, &fakeWriter{}, assistant)

	form := url.Values{"question": {"How much on food?"}}
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), assistant.answer) {
		t.Errorf("chat page missing answer")
	}
}

func TestHandleChatUnavailable(t *testing.T) {
	s := newTestServer(&fakeReader{}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/chat", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not configured") {
		t.Errorf("chat page should say the assistant is unavailable")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(&fakeReader{}, &fakeWriter{}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients should not be affected")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Milk  ", "Milk"},
		{"Mi\x00lk", "Milk"},
		{"line\nbreak", "line\nbreak"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
