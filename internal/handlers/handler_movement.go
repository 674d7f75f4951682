package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/dto"
	"github.com/ManishBastola/bank-app/internal/middleware"
)

// movementHandler handles the customer-facing money movement endpoints.
type movementHandler struct {
	movementService portssvc.MovementSvcFacade
	accountService  portssvc.AccountSvcFacade
}

func newMovementHandler(ms portssvc.MovementSvcFacade, as portssvc.AccountSvcFacade) *movementHandler {
	return &movementHandler{
		movementService: ms,
		accountService:  as,
	}
}

// RegisterMovementRoutes registers routes related to money movements.
func RegisterMovementRoutes(rg *gin.RouterGroup, movementService portssvc.MovementSvcFacade, accountService portssvc.AccountSvcFacade) {
	h := newMovementHandler(movementService, accountService)

	rg.POST("/transactions", h.createTransaction)
	rg.POST("/transfers", h.createTransfer)
	rg.POST("/bill-payments", h.createBillPayment)

	rg.GET("/movements", h.listMyMovements)
	rg.GET("/accounts/:id/movements", h.listAccountMovements)
	rg.GET("/users/:id/movements", h.listUserMovements)
}

// createTransaction starts a deposit or withdrawal.
func (h *movementHandler) createTransaction(c *gin.Context) {
	var req dto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	kind := domain.Withdrawal
	if req.Type == "DEPOSIT" {
		kind = domain.Deposit
	}

	h.submit(c, domain.Movement{
		AccountID:      req.AccountID,
		Kind:           kind,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
	})
}

// createTransfer starts a transfer out of the sender's account.
func (h *movementHandler) createTransfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.submit(c, domain.Movement{
		AccountID: req.AccountID,
		Kind:      domain.Transfer,
		Amount:    req.Amount,
		Counterpart: domain.Counterpart{
			RecipientName:      req.RecipientName,
			RecipientAccountNo: req.RecipientAccountNo,
		},
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
	})
}

// createBillPayment starts a bill payment.
func (h *movementHandler) createBillPayment(c *gin.Context) {
	var req dto.BillPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.submit(c, domain.Movement{
		AccountID: req.AccountID,
		Kind:      domain.BillPayment,
		Counterpart: domain.Counterpart{
			BillCategory: domain.BillCategory(req.Category),
		},
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
	})
}

// submit runs the shared path for every movement kind: verify the caller
// owns the source account, then drive the movement to a terminal state.
func (h *movementHandler) submit(c *gin.Context, movement domain.Movement) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	claim, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}
	movement.UserID = claim.UserID

	account, err := h.accountService.GetAccountByID(c.Request.Context(), movement.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to resolve account", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve account"})
		return
	}
	if account.UserID != claim.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	result, err := h.movementService.Submit(c.Request.Context(), movement)
	if err != nil {
		h.writeSubmitError(c, result, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMovementResponse(result))
}

// writeSubmitError maps a saga outcome to an HTTP status. The movement, when
// present, is included so clients can see the recorded terminal state.
func (h *movementHandler) writeSubmitError(c *gin.Context, movement *domain.Movement, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	status := http.StatusInternalServerError
	msg := "Failed to process movement"

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		status, msg = http.StatusUnprocessableEntity, "Insufficient funds"
	case errors.Is(err, apperrors.ErrNotFound):
		status, msg = http.StatusNotFound, "Account not found"
	case errors.Is(err, apperrors.ErrMovementInProgress):
		status, msg = http.StatusConflict, "A movement with this idempotency key is still in progress"
	case errors.Is(err, apperrors.ErrCompensated):
		status, msg = http.StatusBadGateway, "Movement could not be recorded and was reversed"
	case errors.Is(err, apperrors.ErrLedgerUnavailable):
		status, msg = http.StatusServiceUnavailable, "Ledger unavailable"
	default:
		logger.Error("Movement submission failed", slog.String("error", err.Error()))
	}

	body := gin.H{"error": msg}
	if movement != nil {
		body["movement"] = dto.ToMovementResponse(movement)
	}
	c.JSON(status, body)
}

// listMyMovements lists the logged-in user's movement history.
func (h *movementHandler) listMyMovements(c *gin.Context) {
	claim, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}
	h.listForUser(c, claim.UserID)
}

// listUserMovements lists another user's history. Customers may only read
// their own; employees and admins may read anyone's.
func (h *movementHandler) listUserMovements(c *gin.Context) {
	claim, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	if userID != claim.UserID && !claim.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	h.listForUser(c, userID)
}

func (h *movementHandler) listForUser(c *gin.Context, userID int64) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	movements, err := h.movementService.ListByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list movements", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list movements"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListMovementsResponse(movements))
}

// listAccountMovements lists the history of one account.
func (h *movementHandler) listAccountMovements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	claim, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to resolve account", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve account"})
		return
	}
	if account.UserID != claim.UserID && !claim.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	movements, err := h.movementService.ListByAccount(c.Request.Context(), accountID, params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list movements", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list movements"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListMovementsResponse(movements))
}
