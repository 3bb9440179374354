package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "sofia/internal/errors"
	"sofia/internal/models"
	"sofia/internal/services"
	"sofia/internal/userlock"
)

const maxRecentLimit = 50

// LedgerHandler exposes the ledger operations directly to trusted callers.
// Every call runs under the user's lock so it never interleaves with a
// conversation turn.
type LedgerHandler struct {
	ledger services.LedgerServicer
	store  services.UserDataServicer
	locks  *userlock.Locker
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger services.LedgerServicer, store services.UserDataServicer, locks *userlock.Locker) *LedgerHandler {
	if locks == nil {
		locks = userlock.New()
	}
	return &LedgerHandler{ledger: ledger, store: store, locks: locks}
}

// TransactionResponse wraps a recorded transaction.
type TransactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Message     string              `json:"message"`
}

// RecentTransactionsResponse lists recent transactions, newest first.
type RecentTransactionsResponse struct {
	Transactions []models.Candidate `json:"transactions"`
}

// TrainingExampleRequest is a correction supplied by an operator.
type TrainingExampleRequest struct {
	Input    string         `json:"input" binding:"required,max=1000"`
	Expected map[string]any `json:"expected"`
	Notes    string         `json:"notes" binding:"max=500"`
}

// withUser resolves the user id path parameter and runs fn under the lock
// of its storage namespace.
func (h *LedgerHandler) withUser(c *gin.Context, fn func(ctx context.Context, userID string) error) {
	userID, err := pathUserID(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	ns, err := h.store.EnsureUserNamespace(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.locks.WithLock(ctx, ns, func() error { return fn(ctx, userID) }); err != nil {
		respondWithError(c, err)
	}
}

// RegisterIncome records income
// @Summary     Register income
// @Description Record an income entry and recompute the user's summary
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string              true "User ID"
// @Param       request body services.IncomeInput true "Income details"
// @Success     201 {object} TransactionResponse "Income recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Storage unavailable"
// @Router      /users/{user_id}/income [post]
func (h *LedgerHandler) RegisterIncome(c *gin.Context) {
	var req services.IncomeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.withUser(c, func(ctx context.Context, userID string) error {
		txn, err := h.ledger.RegisterIncome(ctx, userID, req)
		if err != nil {
			return err
		}
		c.JSON(http.StatusCreated, TransactionResponse{
			Transaction: txn,
			Message:     "Ingreso de " + txn.Currency.Format(txn.Amount) + " registrado",
		})
		return nil
	})
}

// RegisterExpense records an expense
// @Summary     Register expense
// @Description Record an expense entry and recompute the user's summary
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string               true "User ID"
// @Param       request body services.ExpenseInput true "Expense details"
// @Success     201 {object} TransactionResponse "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Storage unavailable"
// @Router      /users/{user_id}/expenses [post]
func (h *LedgerHandler) RegisterExpense(c *gin.Context) {
	var req services.ExpenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.withUser(c, func(ctx context.Context, userID string) error {
		txn, err := h.ledger.RegisterExpense(ctx, userID, req)
		if err != nil {
			return err
		}
		c.JSON(http.StatusCreated, TransactionResponse{
			Transaction: txn,
			Message:     "Gasto de " + txn.Currency.Format(txn.Amount) + " registrado",
		})
		return nil
	})
}

// EditTransaction changes fields of an existing transaction
// @Summary     Edit transaction
// @Description Apply a change set to an income or expense entry. The previous values are kept in its edit history.
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string           true "User ID"
// @Param       type    path string           true "income or expense"
// @Param       id      path string           true "Transaction ID"
// @Param       request body models.ChangeSet true "Fields to change"
// @Success     200 {object} services.EditResult "Transaction edited"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /users/{user_id}/transactions/{type}/{id} [patch]
func (h *LedgerHandler) EditTransaction(c *gin.Context) {
	txType := models.TransactionType(c.Param("type"))
	if !txType.Valid() {
		respondWithError(c, apperrors.ErrInvalidTransactionType)
		return
	}
	var changes models.ChangeSet
	if err := c.ShouldBindJSON(&changes); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.withUser(c, func(ctx context.Context, userID string) error {
		result, err := h.ledger.EditTransaction(ctx, userID, c.Param("id"), txType, changes)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, result)
		return nil
	})
}

// RecentTransactions lists recent transactions
// @Summary     Recent transactions
// @Description List the most recent income and expense entries, newest first
// @Tags        ledger
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path  string true  "User ID"
// @Param       limit   query int    false "Maximum entries (default 10, max 50)"
// @Success     200 {object} RecentTransactionsResponse "Recent transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /users/{user_id}/transactions/recent [get]
func (h *LedgerHandler) RecentTransactions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 50"))
			return
		}
		limit = n
	}
	h.withUser(c, func(ctx context.Context, userID string) error {
		recent, err := h.ledger.FindRecentTransactions(ctx, userID, limit)
		if err != nil {
			return err
		}
		if recent == nil {
			recent = []models.Candidate{}
		}
		c.JSON(http.StatusOK, RecentTransactionsResponse{Transactions: recent})
		return nil
	})
}

// Summary returns the user's financial overview
// @Summary     Financial summary
// @Description Totals, balance and the latest transactions
// @Tags        ledger
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string true "User ID"
// @Success     200 {object} services.FinancialOverview "Summary"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Storage unavailable"
// @Router      /users/{user_id}/summary [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	h.withUser(c, func(ctx context.Context, userID string) error {
		overview, err := h.ledger.Summary(ctx, userID)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, overview)
		return nil
	})
}

// Analysis generates and stores a financial analysis
// @Summary     Generate analysis
// @Description Ask the AI collaborator for an analysis of the user's finances and store it in analytics
// @Tags        ledger
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string true "User ID"
// @Success     200 {object} models.Insight "Analysis"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Storage unavailable"
// @Router      /users/{user_id}/analysis [post]
func (h *LedgerHandler) Analysis(c *gin.Context) {
	h.withUser(c, func(ctx context.Context, userID string) error {
		insight, err := h.ledger.GenerateAnalysis(ctx, userID)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, insight)
		return nil
	})
}

// UpdateProfile merges profile fields
// @Summary     Update profile
// @Description Set the user's name and merge preferences and personalization field by field
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string                 true "User ID"
// @Param       request body services.ProfileUpdate true "Profile fields"
// @Success     200 {object} models.UserProfile "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /users/{user_id}/profile [patch]
func (h *LedgerHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.withUser(c, func(ctx context.Context, userID string) error {
		profile, err := h.store.UpdateProfile(ctx, userID, req)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, profile)
		return nil
	})
}

// AddTrainingExample stores a correction for later tuning
// @Summary     Add training example
// @Description Store an input with its expected interpretation in the user's analytics
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string                 true "User ID"
// @Param       request body TrainingExampleRequest true "Example"
// @Success     201 {object} MessageResponse "Stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /users/{user_id}/training-examples [post]
func (h *LedgerHandler) AddTrainingExample(c *gin.Context) {
	var req TrainingExampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.withUser(c, func(ctx context.Context, userID string) error {
		err := h.store.AddTrainingExample(ctx, userID, models.TrainingExample{
			Input:    req.Input,
			Expected: req.Expected,
			Notes:    req.Notes,
		})
		if err != nil {
			return err
		}
		c.JSON(http.StatusCreated, MessageResponse{Message: "Training example stored"})
		return nil
	})
}
