package handlers

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 500
)

// TransactionsStore is what TransactionsHandler reads.
type TransactionsStore interface {
	store.UserStore
	store.TransactionStore
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store TransactionsStore
	now   func() time.Time
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st TransactionsStore) *TransactionsHandler {
	return &TransactionsHandler{store: st, now: time.Now}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	familyID, err := familyScope(ctx, h.store, user, query.Get("family_id"))
	if err != nil {
		writeScopeError(w, r, err)
		return
	}

	now := h.now()
	startDate, err := dateParam(r, "start_date", civil.DateOf(now.AddDate(-1, 0, 0)))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
		return
	}
	endDate, err := dateParam(r, "end_date", civil.DateOf(now))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
		return
	}
	limit, err := intParam(r, "limit", defaultTransactionLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if limit == 0 || limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	filter := store.TransactionFilter{
		FamilyID:            familyID,
		StartDate:           &startDate,
		EndDate:             &endDate,
		DescriptionContains: query.Get("q"),
		Limit:               limit,
	}
	if t := query.Get("type"); t != "" {
		filter.Type = domain.TransactionType(t)
		if !filter.Type.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid type")
			return
		}
	}
	if c := query.Get("category_id"); c != "" {
		filter.CategoryIDs = []string{c}
	}

	transactions, err := h.store.SearchTransactions(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// BudgetsStore is what BudgetsHandler reads.
type BudgetsStore interface {
	store.UserStore
	store.BudgetStore
}

// BudgetsHandler handles budget endpoints.
type BudgetsHandler struct {
	store BudgetsStore
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(st BudgetsStore) *BudgetsHandler {
	return &BudgetsHandler{store: st}
}

// ListBudgets handles GET /api/budgets
func (h *BudgetsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	familyID, err := familyScope(ctx, h.store, user, r.URL.Query().Get("family_id"))
	if err != nil {
		writeScopeError(w, r, err)
		return
	}

	budgets, err := h.store.ListBudgets(ctx, familyID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list budgets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list budgets")
		return
	}
	if budgets == nil {
		budgets = []*domain.Budget{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"count":   len(budgets),
	})
}

// GoalsStore is what GoalsHandler reads.
type GoalsStore interface {
	store.UserStore
	store.GoalStore
}

// GoalsHandler handles goal endpoints.
type GoalsHandler struct {
	store GoalsStore
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(st GoalsStore) *GoalsHandler {
	return &GoalsHandler{store: st}
}

// ListGoals handles GET /api/goals
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	familyID, err := familyScope(ctx, h.store, user, r.URL.Query().Get("family_id"))
	if err != nil {
		writeScopeError(w, r, err)
		return
	}

	goals, err := h.store.ListGoals(ctx, familyID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list goals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}
	if goals == nil {
		goals = []*domain.Goal{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": goals,
		"count": len(goals),
	})
}
