package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/testutil"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	cfg := newTestConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	suite.db = testutil.NewDB(suite.T())
	suite.service = NewAuthService(suite.db, cfg)
}

func (suite *AuthServiceTestSuite) TestRegisterAndLogin() {
	registered, err := suite.service.Register(&RegisterRequest{
		Username: "listener",
		Email:    "Listener@Example.com",
		Password: "TestPass123!",
	})
	suite.Require().NoError(err)
	suite.Equal("listener@example.com", registered.User.Email)
	suite.Equal("Bearer", registered.TokenType)
	suite.Equal(3600, registered.ExpiresIn)

	claims, err := utils.ValidateJWT(registered.AccessToken)
	suite.Require().NoError(err)
	suite.Equal(registered.User.ID.String(), claims.UserID)

	loggedIn, err := suite.service.Login(&LoginRequest{Email: "listener@example.com", Password: "TestPass123!"})
	suite.Require().NoError(err)
	suite.NotNil(loggedIn.User.LastLoginAt)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsDuplicatesAndWeakPasswords() {
	testutil.CreateUser(suite.T(), suite.db, "taken")

	_, err := suite.service.Register(&RegisterRequest{Username: "taken", Email: "new@example.com", Password: "TestPass123!"})
	suite.ErrorIs(err, ErrUserExists)

	_, err = suite.service.Register(&RegisterRequest{Username: "fresh", Email: "fresh@example.com", Password: "weak"})
	suite.ErrorIs(err, ErrValidation)
	suite.NotEmpty(utils.GetValidationErrors(err))
}

func (suite *AuthServiceTestSuite) TestLoginFailures() {
	user := testutil.CreateUser(suite.T(), suite.db, "member")

	_, err := suite.service.Login(&LoginRequest{Email: user.Email, Password: "WrongPass123!"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.service.Login(&LoginRequest{Email: "nobody@example.com", Password: "TestPass123!"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	suite.Require().NoError(suite.db.Model(user).Update("status", models.UserStatusSuspended).Error)
	_, err = suite.service.Login(&LoginRequest{Email: user.Email, Password: "TestPass123!"})
	suite.ErrorIs(err, ErrAccountInactive)
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	user := testutil.CreateUser(suite.T(), suite.db, "member")
	refresh, err := utils.GenerateRefreshToken(user.ID, 1)
	suite.Require().NoError(err)

	resp, err := suite.service.RefreshToken(refresh)
	suite.Require().NoError(err)
	suite.Equal(user.ID, resp.User.ID)

	_, err = suite.service.RefreshToken("not-a-token")
	suite.ErrorIs(err, ErrValidation)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
