package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/dto"
	"github.com/ManishBastola/bank-app/internal/handlers"
	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/pkg/authtoken"
)

// --- Mock MovementService ---
type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) Submit(ctx context.Context, movement domain.Movement) (*domain.Movement, error) {
	args := m.Called(ctx, movement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockMovementService) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Movement, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *MockMovementService) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Movement, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

var _ portssvc.MovementSvcFacade = (*MockMovementService)(nil)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) OpenAccount(ctx context.Context, userID int64, openingBalance decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, userID, openingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Test Suite ---
type MovementHandlerTestSuite struct {
	suite.Suite
	router              *gin.Engine
	mockMovementService *MockMovementService
	mockAccountService  *MockAccountService
	codec               *authtoken.Codec
}

func (suite *MovementHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.codec = authtoken.NewCodec("bank-test", []byte("test-secret-key-that-is-long-enough"))

	suite.router = gin.New()
	suite.router.Use(middleware.IdentityFilter(suite.codec))

	suite.mockMovementService = new(MockMovementService)
	suite.mockAccountService = new(MockAccountService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterMovementRoutes(v1, suite.mockMovementService, suite.mockAccountService)
}

func (suite *MovementHandlerTestSuite) token(userID int64, role string) string {
	t, err := suite.codec.Issue("tester", userID, role, time.Hour)
	suite.Require().NoError(err)
	return t
}

func (suite *MovementHandlerTestSuite) postJSON(path, token string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *MovementHandlerTestSuite) ownAccount(userID int64) *domain.Account {
	return &domain.Account{AccountID: "acc-1", UserID: userID, Balance: decimal.RequireFromString("100")}
}

// --- Test Cases ---

func (suite *MovementHandlerTestSuite) TestCreateTransaction_Success() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, "acc-1").Return(suite.ownAccount(7), nil).Once()
	suite.mockMovementService.On("Submit", mock.Anything, mock.MatchedBy(func(m domain.Movement) bool {
		return m.Kind == domain.Withdrawal && m.UserID == 7 && m.AccountID == "acc-1"
	})).Return(&domain.Movement{
		MovementID: "mov-1",
		UserID:     7,
		AccountID:  "acc-1",
		Kind:       domain.Withdrawal,
		Amount:     decimal.RequireFromString("40"),
		Status:     domain.MovementSucceeded,
	}, nil).Once()

	w := suite.postJSON("/api/v1/transactions", suite.token(7, domain.RoleCustomer), dto.TransactionRequest{
		AccountID: "acc-1",
		Type:      "WITHDRAWAL",
		Amount:    decimal.RequireFromString("40"),
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.MovementResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("mov-1", resp.MovementID)
	suite.Equal(domain.MovementSucceeded, resp.Status)
	suite.mockMovementService.AssertExpectations(suite.T())
}

func (suite *MovementHandlerTestSuite) TestCreateTransaction_RequiresAuth() {
	w := suite.postJSON("/api/v1/transactions", "", dto.TransactionRequest{
		AccountID: "acc-1",
		Type:      "DEPOSIT",
		Amount:    decimal.RequireFromString("40"),
	})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockMovementService.AssertNotCalled(suite.T(), "Submit", mock.Anything, mock.Anything)
}

func (suite *MovementHandlerTestSuite) TestCreateTransaction_ForbiddenOnForeignAccount() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, "acc-1").Return(suite.ownAccount(99), nil).Once()

	w := suite.postJSON("/api/v1/transactions", suite.token(7, domain.RoleCustomer), dto.TransactionRequest{
		AccountID: "acc-1",
		Type:      "WITHDRAWAL",
		Amount:    decimal.RequireFromString("40"),
	})

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockMovementService.AssertNotCalled(suite.T(), "Submit", mock.Anything, mock.Anything)
}

func (suite *MovementHandlerTestSuite) TestCreateTransaction_InsufficientFunds() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, "acc-1").Return(suite.ownAccount(7), nil).Once()
	suite.mockMovementService.On("Submit", mock.Anything, mock.AnythingOfType("domain.Movement")).
		Return(&domain.Movement{
			MovementID:    "mov-2",
			Status:        domain.MovementFailed,
			FailureReason: "INSUFFICIENT_FUNDS",
		}, apperrors.ErrInsufficientFunds).Once()

	w := suite.postJSON("/api/v1/transactions", suite.token(7, domain.RoleCustomer), dto.TransactionRequest{
		AccountID: "acc-1",
		Type:      "WITHDRAWAL",
		Amount:    decimal.RequireFromString("500"),
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(w.Body.String(), "mov-2")
}

func (suite *MovementHandlerTestSuite) TestCreateTransaction_CompensatedMapsToBadGateway() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, "acc-1").Return(suite.ownAccount(7), nil).Once()
	suite.mockMovementService.On("Submit", mock.Anything, mock.AnythingOfType("domain.Movement")).
		Return(&domain.Movement{MovementID: "mov-3", Status: domain.MovementCompensated}, apperrors.ErrCompensated).Once()

	w := suite.postJSON("/api/v1/transactions", suite.token(7, domain.RoleCustomer), dto.TransactionRequest{
		AccountID: "acc-1",
		Type:      "WITHDRAWAL",
		Amount:    decimal.RequireFromString("40"),
	})

	suite.Equal(http.StatusBadGateway, w.Code)
}

func (suite *MovementHandlerTestSuite) TestCreateTransfer_RequiresRecipient() {
	w := suite.postJSON("/api/v1/transfers", suite.token(7, domain.RoleCustomer), map[string]any{
		"accountID": "acc-1",
		"amount":    "40",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *MovementHandlerTestSuite) TestCreateTransaction_RejectsOverlongIdempotencyKey() {
	// Stored keys top out at 64 characters so the derived compensation key
	// still fits its column.
	w := suite.postJSON("/api/v1/transactions", suite.token(7, domain.RoleCustomer), map[string]any{
		"accountID":      "acc-1",
		"type":           "WITHDRAWAL",
		"amount":         "40",
		"idempotencyKey": strings.Repeat("k", 65),
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockMovementService.AssertNotCalled(suite.T(), "Submit", mock.Anything, mock.Anything)
}

func (suite *MovementHandlerTestSuite) TestCreateBillPayment_RejectsUnknownCategory() {
	w := suite.postJSON("/api/v1/bill-payments", suite.token(7, domain.RoleCustomer), map[string]any{
		"accountID": "acc-1",
		"amount":    "40",
		"category":  "GAMBLING",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *MovementHandlerTestSuite) TestCreateBillPayment_Success() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, "acc-1").Return(suite.ownAccount(7), nil).Once()
	suite.mockMovementService.On("Submit", mock.Anything, mock.MatchedBy(func(m domain.Movement) bool {
		return m.Kind == domain.BillPayment && m.Counterpart.BillCategory == domain.BillElectricity
	})).Return(&domain.Movement{MovementID: "mov-4", Status: domain.MovementSucceeded}, nil).Once()

	w := suite.postJSON("/api/v1/bill-payments", suite.token(7, domain.RoleCustomer), dto.BillPaymentRequest{
		AccountID: "acc-1",
		Amount:    decimal.RequireFromString("60"),
		Category:  "ELECTRICITY",
	})

	suite.Equal(http.StatusCreated, w.Code)
}

func (suite *MovementHandlerTestSuite) TestListUserMovements_CustomerBlockedFromOthers() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/99/movements", nil)
	req.Header.Set("Authorization", "Bearer "+suite.token(7, domain.RoleCustomer))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *MovementHandlerTestSuite) TestListUserMovements_EmployeeAllowed() {
	suite.mockMovementService.On("ListByUser", mock.Anything, int64(99), 20, 0).
		Return([]domain.Movement{{MovementID: "mov-5"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/99/movements", nil)
	req.Header.Set("Authorization", "Bearer "+suite.token(7, domain.RoleEmployee))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "mov-5")
}

func (suite *MovementHandlerTestSuite) TestListAccountMovements_OwnerAllowed() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, "acc-1").Return(suite.ownAccount(7), nil).Once()
	suite.mockMovementService.On("ListByAccount", mock.Anything, "acc-1", 20, 0).
		Return([]domain.Movement{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1/movements", nil)
	req.Header.Set("Authorization", "Bearer "+suite.token(7, domain.RoleCustomer))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
}

func TestMovementHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MovementHandlerTestSuite))
}
