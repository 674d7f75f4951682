package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/dto"
	"github.com/ManishBastola/bank-app/internal/middleware"
)

// ledgerOperation is either Debit or Credit on the ledger facade.
type ledgerOperation func(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error)

// ledgerHandler exposes the ledger's balance operations over HTTP. This is
// the surface a remotely deployed movement coordinator calls; browsers go
// through the movement endpoints instead.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers the service-to-service ledger routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger/accounts/:id")
	{
		ledger.POST("/debit", h.debit)
		ledger.POST("/credit", h.credit)
		ledger.GET("/balance", h.balance)
	}
}

func (h *ledgerHandler) debit(c *gin.Context) {
	h.apply(c, h.ledgerService.Debit)
}

func (h *ledgerHandler) credit(c *gin.Context) {
	h.apply(c, h.ledgerService.Credit)
}

// apply runs one idempotent ledger operation. Business outcomes (declined,
// already applied, unknown account) travel inside the receipt with a 200;
// non-2xx statuses are reserved for faults the caller should retry.
func (h *ledgerHandler) apply(c *gin.Context, op ledgerOperation) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	if _, ok := middleware.RequireIdentity(c); !ok {
		return
	}

	var req dto.LedgerOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	receipt, err := op(c.Request.Context(), accountID, req.Amount, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Ledger operation failed", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger unavailable"})
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (h *ledgerHandler) balance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	if _, ok := middleware.RequireIdentity(c); !ok {
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger unavailable"})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}
