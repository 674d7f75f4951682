package ledgerhttp_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ManishBastola/bank-app/internal/adapters/ledgerhttp"
	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/core/services"
	"github.com/ManishBastola/bank-app/internal/handlers"
	"github.com/ManishBastola/bank-app/internal/platform/config"
	"github.com/ManishBastola/bank-app/internal/repositories/memory"
	"github.com/ManishBastola/bank-app/pkg/authtoken"
)

// The client is tested against the real ledger HTTP surface, not a canned
// handler: the same routes a split deployment serves. This pins the wire
// contract from both ends.
type LedgerClientTestSuite struct {
	suite.Suite
	server *httptest.Server
	repo   *memory.LedgerRepository
	client *ledgerhttp.Client
}

func (suite *LedgerClientTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.repo = memory.NewLedgerRepository()
	ledgerService := services.NewLedgerService(suite.repo)
	accountService := services.NewAccountService(suite.repo)
	userService := services.NewUserService(memory.NewUserRepository())

	codec := authtoken.NewCodec("bank-test", []byte("test-secret-key-that-is-long-enough"))

	r := gin.New()
	handlers.RegisterRoutes(r, &config.Config{JWTExpiryDuration: time.Hour}, codec, &portssvc.ServiceContainer{
		User:    userService,
		Account: accountService,
		Ledger:  ledgerService,
	})
	suite.server = httptest.NewServer(r)

	token, err := codec.Issue("movement-coordinator", 0, domain.RoleEmployee, time.Hour)
	require.NoError(suite.T(), err)
	suite.client = ledgerhttp.NewClient(suite.server.URL, 2*time.Second, token)
}

func (suite *LedgerClientTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *LedgerClientTestSuite) seedAccount(accountID, balance string) {
	err := suite.repo.SaveAccount(context.Background(), domain.Account{
		AccountID: accountID,
		UserID:    1,
		Balance:   decimal.RequireFromString(balance),
	})
	suite.Require().NoError(err)
}

func (suite *LedgerClientTestSuite) TestDebit_RoundTrip() {
	ctx := context.Background()
	suite.seedAccount("acc-1", "100")

	receipt, err := suite.client.Debit(ctx, "acc-1", decimal.RequireFromString("40"), "k1")

	suite.Require().NoError(err)
	suite.Equal(domain.ReceiptApplied, receipt.Outcome)
	suite.True(receipt.Balance.Equal(decimal.RequireFromString("60")))

	// Replay over the wire returns the prior balance.
	again, err := suite.client.Debit(ctx, "acc-1", decimal.RequireFromString("40"), "k1")
	suite.Require().NoError(err)
	suite.Equal(domain.ReceiptAlreadyApplied, again.Outcome)
	suite.True(again.Balance.Equal(receipt.Balance))
}

func (suite *LedgerClientTestSuite) TestDebit_InsufficientFundsIsAReceipt() {
	suite.seedAccount("acc-1", "30")

	receipt, err := suite.client.Debit(context.Background(), "acc-1", decimal.RequireFromString("40"), "k1")

	suite.Require().NoError(err)
	suite.Equal(domain.ReceiptInsufficientFunds, receipt.Outcome)
}

func (suite *LedgerClientTestSuite) TestCredit_RoundTrip() {
	ctx := context.Background()
	suite.seedAccount("acc-1", "0")

	receipt, err := suite.client.Credit(ctx, "acc-1", decimal.RequireFromString("25"), "k1")

	suite.Require().NoError(err)
	suite.Equal(domain.ReceiptApplied, receipt.Outcome)

	balance, err := suite.client.GetBalance(ctx, "acc-1")
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.RequireFromString("25")))
}

func (suite *LedgerClientTestSuite) TestGetBalance_NotFound() {
	_, err := suite.client.GetBalance(context.Background(), "nope")
	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerClientTestSuite) TestUnauthenticatedClientRejected() {
	suite.seedAccount("acc-1", "100")
	anon := ledgerhttp.NewClient(suite.server.URL, 2*time.Second, "")

	_, err := anon.Debit(context.Background(), "acc-1", decimal.RequireFromString("40"), "k1")
	suite.Require().Error(err)
}

func TestLedgerClientTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerClientTestSuite))
}
