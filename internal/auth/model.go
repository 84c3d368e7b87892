// File: internal/auth/model.go
package auth

import "clinic_backend/internal/shared"

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest defines the structure for refresh token requests.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse bundles the signed-in account with its token pair.
type LoginResponse struct {
	User  shared.UserResponse  `json:"user"`
	Token shared.TokenResponse `json:"token"`
}
