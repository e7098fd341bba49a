package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/http-api/service"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) RequestConfirmationCode(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) ExchangeCode(ctx context.Context, email, code string) (string, string, error) {
	args := m.Called(ctx, email, code)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) RefreshAccessToken(refreshToken string) (string, error) {
	args := m.Called(refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupAuthRouter(authService service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	NewAuthHandler(authService).RegisterRoutes(api)
	return r
}

func jsonBody(t *testing.T, body any) *bytes.Reader {
	t.Helper()

	payload, err := json.Marshal(body)
	assert.NoError(t, err)
	return bytes.NewReader(payload)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRequestCode_Created(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("RequestConfirmationCode", mock.Anything, "new@example.com").Return(nil)

	w := postJSON(t, router, "/api/v1/auth/email", gin.H{"email": "new@example.com"})

	assert.Equal(t, http.StatusCreated, w.Code)
	mockAuth.AssertExpectations(t)
}

func TestRequestCode_ExistingEmailConflicts(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("RequestConfirmationCode", mock.Anything, "taken@example.com").Return(service.ErrEmailInUse)

	w := postJSON(t, router, "/api/v1/auth/email", gin.H{"email": "taken@example.com"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestCode_InvalidEmail(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	w := postJSON(t, router, "/api/v1/auth/email", gin.H{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockAuth.AssertNotCalled(t, "RequestConfirmationCode", mock.Anything, mock.Anything)
}

func TestRequestCode_Throttled(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("RequestConfirmationCode", mock.Anything, "busy@example.com").Return(service.ErrTooManyRequests)

	w := postJSON(t, router, "/api/v1/auth/email", gin.H{"email": "busy@example.com"})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestExchangeToken_Success(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("ExchangeCode", mock.Anything, "reader@example.com", "the-code").
		Return("access-jwt", "refresh-opaque", nil)

	w := postJSON(t, router, "/api/v1/auth/token", gin.H{
		"email":             "reader@example.com",
		"confirmation_code": "the-code",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "access-jwt", resp["access"])
	assert.Equal(t, "refresh-opaque", resp["refresh"])
}

func TestExchangeToken_WrongCode(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("ExchangeCode", mock.Anything, "reader@example.com", "wrong").
		Return("", "", service.ErrInvalidCredentials)

	w := postJSON(t, router, "/api/v1/auth/token", gin.H{
		"email":             "reader@example.com",
		"confirmation_code": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("RefreshAccessToken", "refresh-opaque").Return("new-access", nil)

	w := postJSON(t, router, "/api/v1/auth/token/refresh", gin.H{"refresh_token": "refresh-opaque"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new-access", resp["access"])
}

func TestRefresh_Expired(t *testing.T) {
	mockAuth := new(MockAuthService)
	router := setupAuthRouter(mockAuth)

	mockAuth.On("RefreshAccessToken", "stale").Return("", service.ErrExpiredToken)

	w := postJSON(t, router, "/api/v1/auth/token/refresh", gin.H{"refresh_token": "stale"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
