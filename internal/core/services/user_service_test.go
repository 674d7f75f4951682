package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	"github.com/ManishBastola/bank-app/internal/core/services"
	"github.com/ManishBastola/bank-app/internal/repositories/memory"
)

type UserServiceTestSuite struct {
	suite.Suite
	service *services.UserService
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.service = services.NewUserService(memory.NewUserRepository())
}

func (suite *UserServiceTestSuite) TestRegister_DefaultsToCustomer() {
	ctx := context.Background()

	user, err := suite.service.Register(ctx, "alice", "s3cret-password", "Alice Smith", "")

	suite.Require().NoError(err)
	suite.Equal(domain.RoleCustomer, user.Role)
	suite.NotZero(user.UserID)
	suite.NotEqual("s3cret-password", user.PasswordHash)
}

func (suite *UserServiceTestSuite) TestRegister_RejectsUnknownRole() {
	_, err := suite.service.Register(context.Background(), "alice", "s3cret-password", "Alice Smith", "SUPERUSER")
	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *UserServiceTestSuite) TestRegister_DuplicateUsername() {
	ctx := context.Background()

	_, err := suite.service.Register(ctx, "alice", "s3cret-password", "Alice Smith", "")
	suite.Require().NoError(err)

	_, err = suite.service.Register(ctx, "alice", "other-password", "Other Alice", "")
	suite.Require().ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *UserServiceTestSuite) TestAuthenticate() {
	ctx := context.Background()

	registered, err := suite.service.Register(ctx, "alice", "s3cret-password", "Alice Smith", domain.RoleEmployee)
	suite.Require().NoError(err)

	user, err := suite.service.Authenticate(ctx, "alice", "s3cret-password")
	suite.Require().NoError(err)
	suite.Equal(registered.UserID, user.UserID)
	suite.Equal(domain.RoleEmployee, user.Role)

	// Wrong password and unknown user look identical to the caller.
	_, err = suite.service.Authenticate(ctx, "alice", "wrong-password")
	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.Authenticate(ctx, "nobody", "s3cret-password")
	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
