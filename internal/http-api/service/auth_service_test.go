package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/mail"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindRegistered(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) DeleteByUsername(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

// MockRefreshTokenRepository mocks the RefreshTokenRepository interface
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpired() error {
	args := m.Called()
	return args.Error(0)
}

// recordingMailer captures sent mail on a channel so tests can wait for the
// async dispatch.
type recordingMailer struct {
	sent chan sentMail
}

type sentMail struct {
	to   string
	body string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan sentMail, 1)}
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent <- sentMail{to: to, body: body}
	return nil
}

var _ mail.Mailer = (*recordingMailer)(nil)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func newTestAuthService(userRepo *MockUserRepository, tokenRepo *MockRefreshTokenRepository, mailer mail.Mailer) AuthService {
	return NewAuthService(userRepo, tokenRepo, mailer, NewNoopIssuanceLimiter(), testLogger(), testConfig())
}

func TestRequestConfirmationCode_NewEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	mailer := newRecordingMailer()
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, mailer)

	mockUserRepo.On("FindRegistered", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	err := authService.RequestConfirmationCode(context.Background(), "new@example.com")

	assert.NoError(t, err)
	mockUserRepo.AssertExpectations(t)

	created := mockUserRepo.Calls[1].Arguments.Get(0).(*models.User)
	assert.Equal(t, "new@example.com", created.Username)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.NotNil(t, created.ConfirmationCode)

	select {
	case msg := <-mailer.sent:
		assert.Equal(t, "new@example.com", msg.to)
		assert.Contains(t, msg.body, "confirmation code")
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation code was never dispatched")
	}
}

func TestRequestConfirmationCode_ExistingEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	existing := &models.User{Username: "taken@example.com", Email: "taken@example.com"}
	mockUserRepo.On("FindRegistered", "taken@example.com").Return(existing, nil)

	err := authService.RequestConfirmationCode(context.Background(), "taken@example.com")

	assert.ErrorIs(t, err, ErrEmailInUse)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRequestConfirmationCode_LimiterBlocks(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := NewAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer(), blockedLimiter{}, testLogger(), testConfig())

	mockUserRepo.On("FindRegistered", "busy@example.com").Return(nil, gorm.ErrRecordNotFound)

	err := authService.RequestConfirmationCode(context.Background(), "busy@example.com")

	assert.ErrorIs(t, err, ErrTooManyRequests)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

type blockedLimiter struct{}

func (blockedLimiter) Allow(ctx context.Context, key string) error {
	return ErrTooManyRequests
}

func TestExchangeCode_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	code := "d94bb3ac-2b1a-4f0e-9f52-0b2f3ad91b11"
	hash, _ := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	hashStr := string(hash)
	user := &models.User{
		ID:               "user-id",
		Username:         "reader@example.com",
		Email:            "reader@example.com",
		Role:             models.RoleUser,
		ConfirmationCode: &hashStr,
	}

	mockUserRepo.On("FindByEmail", "reader@example.com").Return(user, nil)
	mockUserRepo.On("Update", user).Return(nil)
	mockTokenRepo.On("Create", mock.AnythingOfType("*models.RefreshToken")).Return(nil)

	access, refresh, err := authService.ExchangeCode(context.Background(), "reader@example.com", code)

	assert.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	// single-use: hash cleared before tokens were handed out
	assert.Nil(t, user.ConfirmationCode)
	mockUserRepo.AssertExpectations(t)
	mockTokenRepo.AssertExpectations(t)

	// the access token identifies the user
	claims, err := authService.ValidateToken(access)
	assert.NoError(t, err)
	assert.Equal(t, "user-id", claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestExchangeCode_WrongCode(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	hash, _ := bcrypt.GenerateFromPassword([]byte("right-code"), bcrypt.DefaultCost)
	hashStr := string(hash)
	user := &models.User{Email: "reader@example.com", ConfirmationCode: &hashStr}

	mockUserRepo.On("FindByEmail", "reader@example.com").Return(user, nil)

	_, _, err := authService.ExchangeCode(context.Background(), "reader@example.com", "wrong-code")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	mockUserRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestExchangeCode_UnknownEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	mockUserRepo.On("FindByEmail", "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := authService.ExchangeCode(context.Background(), "ghost@example.com", "any-code")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestExchangeCode_AlreadyConsumed(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	// code was cleared by a previous successful exchange
	user := &models.User{Email: "reader@example.com", ConfirmationCode: nil}
	mockUserRepo.On("FindByEmail", "reader@example.com").Return(user, nil)

	_, _, err := authService.ExchangeCode(context.Background(), "reader@example.com", "stale-code")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshAccessToken(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	user := &models.User{ID: "user-id", Username: "reader@example.com", Role: models.RoleUser}
	stored := &models.RefreshToken{
		ID:        "token-id",
		UserID:    "user-id",
		Token:     "refresh-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	mockTokenRepo.On("FindByToken", "refresh-token").Return(stored, nil)
	mockUserRepo.On("FindByID", "user-id").Return(user, nil)

	access, err := authService.RefreshAccessToken("refresh-token")

	assert.NoError(t, err)
	claims, err := authService.ValidateToken(access)
	assert.NoError(t, err)
	assert.Equal(t, "user-id", claims.UserID)
}

func TestRefreshAccessToken_Expired(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	stored := &models.RefreshToken{
		ID:        "token-id",
		UserID:    "user-id",
		Token:     "refresh-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	mockTokenRepo.On("FindByToken", "refresh-token").Return(stored, nil)
	mockTokenRepo.On("Delete", "token-id").Return(nil)

	_, err := authService.RefreshAccessToken("refresh-token")

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockRefreshTokenRepository)
	authService := newTestAuthService(mockUserRepo, mockTokenRepo, newRecordingMailer())

	_, err := authService.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
