package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"equishare/internal/models"
	"equishare/internal/service"
)

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

type expenseSplitRequest struct {
	UserID      int64 `json:"userId"`
	AmountCents int64 `json:"amountCents"`
}

type createExpenseRequest struct {
	Description string                `json:"description"`
	AmountCents int64                 `json:"amountCents"`
	Splits      []expenseSplitRequest `json:"splits"`
}

// CreateExpense handles POST /api/groups/{id}/expenses
func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID", "", nil)
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	splits := make([]models.ExpenseSplit, 0, len(req.Splits))
	for _, split := range req.Splits {
		splits = append(splits, models.ExpenseSplit{
			UserID:      split.UserID,
			AmountCents: split.AmountCents,
		})
	}

	expense, err := h.expenseService.CreateExpense(groupID, user.ID, req.Description, req.AmountCents, splits)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// ListGroupExpenses handles GET /api/groups/{id}/expenses
func (h *ExpenseHandler) ListGroupExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID", "", nil)
		return
	}

	expenses, err := h.expenseService.GetGroupExpenses(groupID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	responses := make([]expenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, toExpenseResponse(&expenses[i]))
	}

	respondWithJSON(w, http.StatusOK, responses)
}

// GetGroupBalances handles GET /api/groups/{id}/balances
func (h *ExpenseHandler) GetGroupBalances(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID", "", nil)
		return
	}

	balances, err := h.expenseService.GetGroupBalances(groupID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	responses := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, balanceResponse{
			UserID:       b.UserID,
			Name:         b.Name,
			PaidCents:    b.PaidCents,
			OwedCents:    b.OwedCents,
			BalanceCents: b.BalanceCents,
		})
	}

	respondWithJSON(w, http.StatusOK, responses)
}
