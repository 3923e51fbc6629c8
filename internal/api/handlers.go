// Package api is the thin HTTP adapter over the service layer. It decodes
// requests, maps service errors to status codes and never holds logic of
// its own.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kivo-app/kivo/internal/domain"
	"github.com/kivo-app/kivo/internal/service"
)

const dateFormat = "2006-01-02"

// Handler bundles the HTTP endpoints.
type Handler struct {
	transactions *service.Transactions
	accounts     *service.Accounts
	log          zerolog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(transactions *service.Transactions, accounts *service.Accounts, log zerolog.Logger) *Handler {
	return &Handler{transactions: transactions, accounts: accounts, log: log}
}

// Router builds the full route table with middleware.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, CORS, Logger(h.log), Recovery(h.log))

	r.HandleFunc("/transactions", h.register).Methods(http.MethodPost)
	r.HandleFunc("/transactions/balance", h.balance).Methods(http.MethodGet)
	r.HandleFunc("/transactions/statement", h.statement).Methods(http.MethodGet)
	r.HandleFunc("/transactions/analytics/daily", h.dailyAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/transactions/analytics/category", h.categoryAnalytics).Methods(http.MethodGet)

	r.HandleFunc("/accounts", h.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts", h.listAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}", h.getAccount).Methods(http.MethodGet)

	return r
}

type registerRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Kind           domain.Kind     `json:"kind"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	Category       domain.Category `json:"category,omitempty"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id,omitempty"`
	Currency       string          `json:"currency,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.transactions.Register(r.Context(), service.RegisterInput{
		Amount:         req.Amount,
		Kind:           req.Kind,
		OwnerID:        req.OwnerID,
		Category:       req.Category,
		CounterpartyID: req.CounterpartyID,
		Currency:       req.Currency,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}
	bal := h.transactions.Balance(r.Context(), accountID)
	WriteJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": bal})
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	st, err := h.transactions.Statement(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	inflow, outflow := st.Totals()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":   st.AccountID,
		"account_name": st.AccountName,
		"balance":      st.Balance,
		"inflow":       inflow,
		"outflow":      outflow,
		"history":      st.History,
	})
}

func (h *Handler) dailyAnalytics(w http.ResponseWriter, r *http.Request) {
	accountID, from, to, ok := h.analyticsParams(w, r)
	if !ok {
		return
	}

	totals, err := h.transactions.DailyAnalytics(r.Context(), accountID, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, totals)
}

func (h *Handler) categoryAnalytics(w http.ResponseWriter, r *http.Request) {
	accountID, from, to, ok := h.analyticsParams(w, r)
	if !ok {
		return
	}

	totals, err := h.transactions.CategoryAnalytics(r.Context(), accountID, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, totals)
}

type createAccountRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Create(r.Context(), req.Name, req.Email, req.PasswordHash)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id must be a valid uuid")
		return
	}

	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, accounts)
}

func (h *Handler) accountIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("account_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "account_id must be a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) analyticsParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, time.Time, time.Time, bool) {
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return uuid.Nil, time.Time{}, time.Time{}, false
	}

	from, err := time.Parse(dateFormat, r.URL.Query().Get("start"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "start must be a date (YYYY-MM-DD)")
		return uuid.Nil, time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateFormat, r.URL.Query().Get("end"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "end must be a date (YYYY-MM-DD)")
		return uuid.Nil, time.Time{}, time.Time{}, false
	}
	return accountID, from, to, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var validation domain.ValidationError
	switch {
	case errors.As(err, &validation):
		WriteError(w, http.StatusBadRequest, validation.Reason)
	case service.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "account not found")
	default:
		h.log.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
