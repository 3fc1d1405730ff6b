// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/service"
	"clicker-ledger/internal/util"
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 1 << 20

// LedgerHandler handles HTTP requests for the ledger operations.
type LedgerHandler struct {
	service service.LedgerService
	logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		logger:  logger,
	}
}

// StatsResponse is the payload of POST /api/stats.
type StatsResponse struct {
	UserID         string    `json:"user_id"`
	FirstName      string    `json:"first_name"`
	Username       string    `json:"username"`
	TotalClicks    int64     `json:"total_clicks"`
	CurrentBalance int64     `json:"current_balance"`
	CreatedAt      time.Time `json:"created_at"`
}

// Helper function to send JSON responses.
func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *LedgerHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var inputErr *util.InputError
	switch {
	case errors.As(err, &inputErr):
		statusCode = http.StatusBadRequest
		message = inputErr.Msg
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "User not found"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusBadRequest
		message = "Insufficient balance"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// decode reads a JSON body into dst, reporting any failure as invalid input.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var inputErr *util.InputError
		if errors.As(err, &inputErr) {
			return inputErr
		}
		return util.InvalidInput("Invalid JSON")
	}
	return nil
}

// GetOrCreateUser handles the get-or-create user request.
// POST /api/user
func (h *LedgerHandler) GetOrCreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := decode(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.FetchOrCreate(r.Context(), string(req.UserID), domain.Profile{
		FirstName: req.FirstName,
		Username:  req.Username,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, account)
}

// Click handles the record click request.
// POST /api/click
func (h *LedgerHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req UserIDRequest
	if err := decode(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	res, err := h.service.RecordClick(r.Context(), string(req.UserID))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"clicks":  res.Clicks,
		"balance": res.Balance,
	})
}

// Withdraw handles the withdraw request.
// POST /api/withdraw
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := decode(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.UserID == "" {
		h.respondWithError(w, util.InvalidInput("user_id is required"))
		return
	}
	amount, err := req.WholeAmount()
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	res, err := h.service.Withdraw(r.Context(), string(req.UserID), amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       fmt.Sprintf("Withdrawal of %d coins completed", res.Amount),
		"balance":       res.Balance,
		"withdrawal_id": res.WithdrawalID,
	})
}

// Stats handles the get stats request.
// POST /api/stats
func (h *LedgerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var req UserIDRequest
	if err := decode(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.GetStats(r.Context(), string(req.UserID))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, StatsResponse{
		UserID:         account.UserID,
		FirstName:      account.FirstName,
		Username:       account.Username,
		TotalClicks:    account.Clicks,
		CurrentBalance: account.Balance,
		CreatedAt:      account.CreatedAt,
	})
}

// Leaderboard handles the leaderboard request.
// GET /api/leaderboard?limit=N
func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": accounts,
	})
}

// Withdrawals handles the withdrawal history request.
// GET /api/withdrawals?user_id=ID&limit=N
func (h *LedgerHandler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Withdrawals(r.Context(), r.URL.Query().Get("user_id"), queryInt(r, "limit"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"withdrawals": list,
	})
}

// Health reports liveness.
// GET /health
func (h *LedgerHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryInt parses an optional integer query parameter; anything unparsable is 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
