package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/store"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cacheKey := "list:" + r.URL.RawQuery
	if cached, ok := s.listCache.Get(cacheKey); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, cached)
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	set, err := s.ledger.Reconcile(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list expenses", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	filtered := core.Apply(set, spec)
	if filtered == nil {
		filtered = []core.Record{}
	}
	s.listCache.Set(cacheKey, filtered)
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	_, rec, err := s.ledger.Submit(r.Context(), nil, draft, nil)
	if err != nil {
		s.writeSubmitError(w, r, err, "create")
		return
	}

	s.invalidate()
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)

	s.logger.InfoContext(r.Context(), "Expense created",
		"id", rec.ID,
		"title", rec.Title,
		"amount_cents", rec.Amount.Cents,
		"category", rec.Category,
		"date", rec.Date.Time.Format("2006-01-02"))

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Expense added (#%d): %s — %s on %s",
			rec.ID, rec.Title, rec.Amount.Format(), rec.Date.Format()),
		"expense": rec,
	})
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseExpenseID(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handleReplaceExpense(w, r, id)
	case http.MethodDelete:
		s.handleDeleteExpense(w, r, id)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleReplaceExpense(w http.ResponseWriter, r *http.Request, id int64) {
	draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	_, rec, err := s.ledger.Submit(r.Context(), nil, draft, &id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		s.writeSubmitError(w, r, err, "replace")
		return
	}

	s.invalidate()
	atomic.AddInt64(&s.appMetrics.expensesUpdated, 1)

	s.logger.InfoContext(r.Context(), "Expense replaced", "id", rec.ID, "title", rec.Title)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Expense updated",
		"expense": rec,
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, id int64) {
	// Deleting a missing id succeeds; the reply is the same either way
	if _, err := s.ledger.Remove(r.Context(), nil, id); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to delete expense", "id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	s.invalidate()
	atomic.AddInt64(&s.appMetrics.expensesDeleted, 1)

	s.logger.InfoContext(r.Context(), "Expense deleted", "id", id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted"})
}

type statsResponse struct {
	core.Statistics
	TotalFormatted             string `json:"totalFormatted"`
	CurrentMonthTotalFormatted string `json:"currentMonthTotalFormatted"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cached, ok := s.statsCache.Get("stats"); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, newStatsResponse(cached))
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	set, err := s.ledger.Reconcile(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute statistics", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	stats := core.Summarize(set, time.Now())
	s.statsCache.Set("stats", stats)
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func newStatsResponse(stats core.Statistics) statsResponse {
	return statsResponse{
		Statistics:                 stats,
		TotalFormatted:             stats.Total.Format(),
		CurrentMonthTotalFormatted: stats.CurrentMonthTotal.Format(),
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	type categoryEntry struct {
		Code  core.Category `json:"code"`
		Label string        `json:"label"`
	}
	out := make([]categoryEntry, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		out = append(out, categoryEntry{Code: c, Label: c.Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeDraft reads and sanitizes a draft from the request body. On
// failure the error response is already written.
func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request) (core.Draft, bool) {
	var draft core.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.logger.WarnContext(r.Context(), "Malformed expense payload",
			applog.FieldPath, r.URL.Path, "error", err)
		if core.IsValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, "malformed request body")
		}
		return core.Draft{}, false
	}
	draft.Title = sanitizeInput(draft.Title)
	return draft, true
}

func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if core.IsValidationError(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), "Failed to save expense",
		"error", err,
		"operation", op,
		applog.FieldComponent, applog.ComponentLedger)
	writeError(w, http.StatusServiceUnavailable, "store unavailable")
}
