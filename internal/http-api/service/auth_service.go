package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/mail"
)

// bcrypt hash of a throwaway value, compared against when the email is
// unknown so both paths cost the same
const dummyCodeHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e"

// Claims carried by access tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// RequestConfirmationCode registers the address (username = email) and
	// mails it a fresh single-use code. Existing registrations get a
	// conflict, not a duplicate record and not a second code.
	RequestConfirmationCode(ctx context.Context, email string) error
	// ExchangeCode trades email + code for an access/refresh token pair and
	// invalidates the code.
	ExchangeCode(ctx context.Context, email, code string) (access string, refresh string, err error)
	RefreshAccessToken(refreshToken string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	mailer           mail.Mailer
	limiter          IssuanceLimiter
	logger           *slog.Logger
	jwtSecret        string
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	mailer mail.Mailer,
	limiter IssuanceLimiter,
	logger *slog.Logger,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		mailer:           mailer,
		limiter:          limiter,
		logger:           logger,
		jwtSecret:        cfg.JWTSecret,
		accessTokenTTL:   cfg.AccessTokenTTL,
		refreshTokenTTL:  cfg.RefreshTokenTTL,
	}
}

func (s *authService) RequestConfirmationCode(ctx context.Context, email string) error {
	if _, err := s.userRepo.FindRegistered(email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.limiter.Allow(ctx, email); err != nil {
		return err
	}

	// uuid4 comes from crypto/rand, so the code is unguessable
	code := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)

	user := &models.User{
		Username:         email,
		Email:            email,
		Role:             models.RoleUser,
		ConfirmationCode: &hashStr,
	}
	if err := s.userRepo.Create(user); err != nil {
		// a concurrent registration for the same address loses the race on
		// the unique email index
		if repository.IsUniqueViolation(err) {
			return ErrEmailInUse
		}
		return err
	}

	s.dispatchConfirmationCode(email, code)
	return nil
}

// dispatchConfirmationCode mails the code without blocking the request.
// Delivery failure is logged, never surfaced: registration has already
// succeeded and the caller's response must not depend on the mail relay.
func (s *authService) dispatchConfirmationCode(email, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		body := fmt.Sprintf("Your confirmation code: %s", code)
		if err := s.mailer.Send(ctx, email, "Your confirmation code", body); err != nil {
			s.logger.Warn("failed to deliver confirmation code", "email", email, "error", err)
		}
	}()
}

func (s *authService) ExchangeCode(ctx context.Context, email, code string) (string, string, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		// burn the same bcrypt cost as the match path so unknown addresses
		// are not distinguishable by timing
		bcrypt.CompareHashAndPassword([]byte(dummyCodeHash), []byte(code))
		return "", "", ErrInvalidCredentials
	}

	if user.ConfirmationCode == nil {
		bcrypt.CompareHashAndPassword([]byte(dummyCodeHash), []byte(code))
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.ConfirmationCode), []byte(code)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	// the code is single-use: clear it before handing out tokens
	user.ConfirmationCode = nil
	if err := s.userRepo.Update(user); err != nil {
		return "", "", err
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) generateRefreshToken(user *models.User) (string, error) {
	refreshToken := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}

	if err := s.refreshTokenRepo.Create(refreshToken); err != nil {
		return "", err
	}

	return refreshToken.Token, nil
}

func (s *authService) RefreshAccessToken(refreshTokenString string) (string, error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(refreshTokenString)
	if err != nil {
		return "", ErrInvalidToken
	}

	if refreshToken.Revoked {
		return "", ErrInvalidToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		s.refreshTokenRepo.Delete(refreshToken.ID)
		return "", ErrExpiredToken
	}

	user, err := s.userRepo.FindByID(refreshToken.UserID)
	if err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
