package dto

// Data Transfer Objects for the confirmation-code authentication flow

// EmailRequest: payload for requesting a confirmation code
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// TokenRequest: payload for exchanging a confirmation code for tokens
type TokenRequest struct {
	Email            string `json:"email" binding:"required,email"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse: the issued token pair
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshTokenRequest: payload for minting a new access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse: response payload after refreshing the access token
type RefreshResponse struct {
	Access string `json:"access"`
}
