// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/shared"
	"clinic_backend/internal/user"
)

// UserProvider is the slice of the user service the auth flow needs.
type UserProvider interface {
	GetForLogin(ctx context.Context, email string) (*user.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service defines the authentication operations.
type Service interface {
	// Login verifies credentials and issues a token pair.
	Login(ctx context.Context, req LoginRequest) (*shared.User, *shared.TokenResponse, error)
	// Refresh rotates a refresh token: the old one is revoked and a new
	// pair is issued.
	Refresh(ctx context.Context, refreshToken string) (*shared.TokenResponse, error)
	// Logout revokes the presented access token.
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	// GetCurrentUser returns the account behind the presented token.
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*shared.User, error)
}

type service struct {
	users        UserProvider
	tokenService shared.TokenService
	blocklist    shared.TokenBlocklist
	logger       *zap.Logger
}

// NewService creates a new authentication service.
func NewService(users UserProvider, tokenService shared.TokenService, blocklist shared.TokenBlocklist, logger *zap.Logger) Service {
	return &service{
		users:        users,
		tokenService: tokenService,
		blocklist:    blocklist,
		logger:       logger,
	}
}

// errInvalidCredentials is returned for both unknown emails and wrong
// passwords so responses do not reveal which of the two failed.
var errInvalidCredentials = common.ErrUnauthorized.WithDetails("Invalid email or password.")

func (s *service) Login(ctx context.Context, req LoginRequest) (*shared.User, *shared.TokenResponse, error) {
	dbUser, err := s.users.GetForLogin(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("Login attempt for unknown email", zap.String("email", req.Email))
			return nil, nil, errInvalidCredentials
		}
		s.logger.Error("Failed to look up user during login", zap.Error(err), zap.String("email", req.Email))
		return nil, nil, common.ErrInternalServer.WithDetails("Login failed.")
	}

	if !common.CheckPasswordHash(req.Password, dbUser.PasswordHash) {
		s.logger.Info("Login attempt with wrong password", zap.String("userID", dbUser.ID.String()))
		return nil, nil, errInvalidCredentials
	}

	if !dbUser.IsActive {
		s.logger.Info("Login attempt for deactivated account", zap.String("userID", dbUser.ID.String()))
		return nil, nil, common.ErrUnauthorized.WithDetails("This account has been deactivated.")
	}

	// A failed login-timestamp update should not block the login itself.
	if err := s.users.RecordLogin(ctx, dbUser.ID); err != nil {
		s.logger.Warn("Failed to record login time", zap.Error(err), zap.String("userID", dbUser.ID.String()))
	}

	tokens, err := s.issueTokenPair(dbUser)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User logged in", zap.String("userID", dbUser.ID.String()), zap.String("role", dbUser.GetRole()))
	return user.DBToShared(dbUser), tokens, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*shared.TokenResponse, error) {
	claims, err := s.tokenService.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Info("Refresh attempt with invalid token", zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token.")
	}

	blocked, err := s.blocklist.IsBlocklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token blocklist", zap.Error(err), zap.String("jti", claims.ID))
		return nil, common.ErrInternalServer.WithDetails("Could not refresh the session.")
	}
	if blocked {
		s.logger.Warn("Refresh attempt with revoked token", zap.String("jti", claims.ID), zap.String("userID", claims.UserID.String()))
		return nil, common.ErrUnauthorized.WithDetails("Refresh token has been revoked.")
	}

	dbUser, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token.")
		}
		s.logger.Error("Failed to load user during refresh", zap.Error(err), zap.String("userID", claims.UserID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not refresh the session.")
	}
	if !dbUser.IsActive {
		return nil, common.ErrUnauthorized.WithDetails("This account has been deactivated.")
	}

	// Rotate: the old refresh token must not be usable again.
	if claims.ExpiresAt != nil {
		if err := s.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err), zap.String("jti", claims.ID))
			return nil, common.ErrInternalServer.WithDetails("Could not refresh the session.")
		}
	}

	tokens, err := s.issueTokenPair(dbUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session refreshed", zap.String("userID", dbUser.ID.String()))
	return tokens, nil
}

func (s *service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := s.blocklist.AddToBlocklist(ctx, jti, expiresAt); err != nil {
		s.logger.Error("Failed to blocklist token on logout", zap.Error(err), zap.String("jti", jti))
		return common.ErrInternalServer.WithDetails("Logout failed.")
	}
	s.logger.Info("User logged out", zap.String("jti", jti))
	return nil
}

func (s *service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*shared.User, error) {
	dbUser, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found.")
		}
		s.logger.Error("Failed to load current user", zap.Error(err), zap.String("userID", userID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not load the current user.")
	}
	return user.DBToShared(dbUser), nil
}

func (s *service) issueTokenPair(dbUser *user.User) (*shared.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokenService.GenerateAccessToken(dbUser)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not issue tokens.")
	}
	refreshToken, _, err := s.tokenService.GenerateRefreshToken(dbUser)
	if err != nil {
		s.logger.Error("Failed to generate refresh token", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not issue tokens.")
	}
	return &shared.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiresAt,
		TokenType:    "Bearer",
	}, nil
}
