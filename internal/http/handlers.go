package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/report"
)

type transactionRequest struct {
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type transactionPatchRequest struct {
	Amount      *string `json:"amount"`
	Type        *string `json:"type"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

type transactionResponse struct {
	ID          string  `json:"id"`
	AmountCents int64   `json:"amountCents"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"createdAt"`
}

type summaryResponse struct {
	BalanceCents      int64   `json:"balanceCents"`
	Balance           float64 `json:"balance"`
	TotalIncomeCents  int64   `json:"totalIncomeCents"`
	TotalExpenseCents int64   `json:"totalExpenseCents"`
	MonthToDateCents  int64   `json:"monthToDateCents"`
}

type categoryShareResponse struct {
	Category    string  `json:"category"`
	AmountCents int64   `json:"amountCents"`
	Amount      float64 `json:"amount"`
	Percentage  int     `json:"percentage"`
}

type dateGroupResponse struct {
	Label        string                `json:"label"`
	Transactions []transactionResponse `json:"transactions"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		AmountCents: tx.Amount.Cents,
		Amount:      tx.Amount.Dollars(),
		Type:        string(tx.Type),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.UTC().Format(time.RFC3339),
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps ledger errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use RFC 3339 or YYYY-MM-DD", s)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+err.Error())
		return
	}

	tx := core.Transaction{
		UserID:      userID,
		Amount:      core.Money{Cents: cents},
		Type:        core.TransactionType(req.Type),
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tx.Date = date
	}

	id, err := s.svc.AddTransaction(r.Context(), tx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateUserCaches(userID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	var (
		txs []core.Transaction
		err error
	)
	if from != "" || to != "" {
		start, end, perr := parseRange(from, to)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		txs, err = s.svc.ListTransactionsByRange(r.Context(), userID, start, end)
	} else {
		txs, err = s.svc.ListTransactions(r.Context(), userID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("'to' must not be before 'from'")
	}
	return start, end, nil
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	id := r.PathValue("id")

	var req transactionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var patch ledger.Patch
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+err.Error())
			return
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if req.Type != nil {
		typ := core.TransactionType(*req.Type)
		patch.Type = &typ
	}
	if req.Category != nil {
		cat := strings.TrimSpace(*req.Category)
		patch.Category = &cat
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		patch.Description = &desc
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.Date = &date
	}

	if err := s.svc.UpdateTransaction(r.Context(), userID, id, patch); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateUserCaches(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	id := r.PathValue("id")

	if err := s.svc.DeleteTransaction(r.Context(), userID, id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateUserCaches(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	cacheKey := "overview:" + userID

	ov, cached := s.overviewCache.Get(cacheKey)
	if !cached {
		var err error
		ov, err = s.svc.Overview(r.Context(), userID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.overviewCache.Set(cacheKey, ov)
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		BalanceCents:      ov.Balance.Cents,
		Balance:           ov.Balance.Dollars(),
		TotalIncomeCents:  ov.TotalIncome.Cents,
		TotalExpenseCents: ov.TotalExpense.Cents,
		MonthToDateCents:  ov.MonthToDate.Cents,
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	period := report.Month
	if raw := r.URL.Query().Get("period"); raw != "" {
		var err error
		period, err = report.ParsePeriod(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cacheKey := "insights:" + userID + ":" + string(period)
	shares, cached := s.insightsCache.Get(cacheKey)
	if !cached {
		var err error
		shares, err = s.svc.SpendingInsights(r.Context(), userID, period)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.insightsCache.Set(cacheKey, shares)
	}

	out := make([]categoryShareResponse, 0, len(shares))
	for _, share := range shares {
		out = append(out, categoryShareResponse{
			Category:    share.Category,
			AmountCents: share.Amount.Cents,
			Amount:      share.Amount.Dollars(),
			Percentage:  share.Percentage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	cacheKey := "timeline:" + userID

	groups, cached := s.timelineCache.Get(cacheKey)
	if !cached {
		var err error
		groups, err = s.svc.Timeline(r.Context(), userID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.timelineCache.Set(cacheKey, groups)
	}

	out := make([]dateGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, dateGroupResponse{
			Label:        g.Label,
			Transactions: toTransactionResponses(g.Transactions),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
