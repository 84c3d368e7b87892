// File: internal/auth/token_service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/config"
	"clinic_backend/internal/shared"
)

const tokenIssuer = "clinic_backend"

// JWTService issues and validates HS256 tokens. Every token carries a
// jti so it can be revoked through the blocklist, and a token-type claim
// so refresh tokens cannot be replayed as access tokens.
type JWTService struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewJWTService creates a new JWT token service.
func NewJWTService(cfg *config.Config, logger *zap.Logger) shared.TokenService {
	return &JWTService{cfg: cfg, logger: logger}
}

func (s *JWTService) generateToken(userData shared.UserDataForToken, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &shared.Claims{
		UserID:    userData.GetID(),
		Email:     userData.GetEmail(),
		Role:      userData.GetRole(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userData.GetID().String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err), zap.String("tokenType", tokenType))
		return "", time.Time{}, fmt.Errorf("could not sign %s token: %w", tokenType, err)
	}
	return tokenString, expirationTime, nil
}

// GenerateAccessToken issues a short-lived access token.
func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.generateToken(userData, shared.TokenTypeAccess, s.cfg.AccessTokenTTL)
}

// GenerateRefreshToken issues a long-lived refresh token.
func (s *JWTService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.generateToken(userData, shared.TokenTypeRefresh, s.cfg.RefreshTokenTTL)
}

// ValidateToken checks the signature and expiry and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims, ok := token.Claims.(*shared.Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token claims")
}

// ParseRefreshToken validates a refresh token and rejects tokens of any
// other type, so an access token cannot be used to mint new pairs.
func (s *JWTService) ParseRefreshToken(refreshTokenString string) (*shared.Claims, error) {
	claims, err := s.ValidateToken(refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != shared.TokenTypeRefresh {
		return nil, errors.New("token is not a refresh token")
	}
	return claims, nil
}
