package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

const recentLimit = 20

type txView struct {
	ID       string
	Product  string
	Category string
	Amount   string
	Date     string
}

type homeData struct {
	Recent []txView
	Error  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, r, "")
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, formError string) {
	logger := applog.FromContext(r.Context())

	data := homeData{Error: formError}
	recent, err := s.reader.ListRecent(r.Context(), recentLimit)
	if err != nil {
		logger.ErrorContext(r.Context(), "List recent transactions failed", applog.FieldError, err)
	}
	for _, tx := range recent {
		data.Recent = append(data.Recent, txView{
			ID:       tx.ID,
			Product:  tx.ProductName,
			Category: tx.Category,
			Amount:   tx.Amount.FormatValue(),
			Date:     tx.DateAdded.Format("2006-01-02"),
		})
	}

	status := http.StatusOK
	if formError != "" {
		status = http.StatusUnprocessableEntity
	}
	s.render(w, r, "home.html", data, status)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(r.Context(), "Parse form failed", applog.FieldError, err)
		s.renderHome(w, r, "Invalid request format")
		return
	}

	product := sanitizeInput(r.Form.Get("product_name"))
	category := sanitizeInput(r.Form.Get("category"))
	amountStr := strings.TrimSpace(r.Form.Get("expenditure"))

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		s.renderHome(w, r, "Amount must be a positive number")
		return
	}

	date := time.Now().UTC()
	if v := strings.TrimSpace(r.Form.Get("date_added")); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.renderHome(w, r, "Date must look like 2006-01-02")
			return
		}
		date = parsed
	}

	tx := core.Transaction{
		ProductName: product,
		Category:    category,
		Amount:      core.Money{Cents: cents},
		DateAdded:   date,
	}

	id, err := s.writer.Create(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			s.renderHome(w, r, validationMessage(err))
			return
		}
		logger.ErrorContext(r.Context(), "Create transaction failed", applog.FieldError, err)
		http.Error(w, "could not save transaction", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(r.Context(), "Transaction ingested",
		applog.FieldTxID, id,
		applog.FieldProduct, tx.ProductName,
		applog.FieldCategory, tx.Category,
		applog.FieldAmountCents, tx.Amount.Cents)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	id := r.PathValue("id")

	if err := s.writer.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(r.Context(), "Delete transaction failed",
			applog.FieldTxID, id, applog.FieldError, err)
		http.Error(w, "could not delete transaction", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render executes a template, falling back to a plain error when templates
// failed to parse at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any, status int) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name, applog.FieldError, err)
	}
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyProduct,
		core.ErrProductTooLong,
		core.ErrEmptyCategory,
		core.ErrCategoryTooLong,
		core.ErrInvalidAmount,
		core.ErrZeroDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyProduct):
		return "Product name is required"
	case errors.Is(err, core.ErrProductTooLong):
		return "Product name is too long"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required"
	case errors.Is(err, core.ErrCategoryTooLong):
		return "Category is too long"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, core.ErrZeroDate):
		return "Date is required"
	default:
		return template.HTMLEscapeString(err.Error())
	}
}
