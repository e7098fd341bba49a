package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/service"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes. All of them are public;
// the caller is expected to wrap the group in the rate-limit middleware.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/email", h.RequestCode)
		auth.POST("/token", h.ExchangeToken)
		auth.POST("/token/refresh", h.Refresh)
	}
}

// RequestCode issues a confirmation code to a new email address
// POST /api/v1/auth/email
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.authService.RequestConfirmationCode(c.Request.Context(), req.Email); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "confirmation code has been sent to your email"})
}

// ExchangeToken trades email + confirmation code for a token pair
// POST /api/v1/auth/token
func (h *AuthHandler) ExchangeToken(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	access, refresh, err := h.authService.ExchangeCode(c.Request.Context(), req.Email, req.ConfirmationCode)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Access: access, Refresh: refresh})
}

// Refresh mints a new access token from a refresh token
// POST /api/v1/auth/token/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	access, err := h.authService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{Access: access})
}
