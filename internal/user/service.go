// File: internal/user/service.go
package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/rbac"
)

// Service defines the interface for staff account business logic.
type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, query ListUsersQuery) ([]User, int64, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Login support used by the auth package.
	GetForLogin(ctx context.Context, email string) (*User, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	rbacRepo rbac.Repository
	logger   *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, rbacRepo rbac.Repository, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		rbacRepo: rbacRepo,
		logger:   logger,
	}
}

func (s *service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	role, err := s.rbacRepo.FindRoleByID(ctx, req.RoleID)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode == common.ErrNotFound.StatusCode {
			return nil, common.ErrBadRequest.WithDetails("The specified role does not exist.")
		}
		return nil, err
	}

	hashedPassword, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create the account.")
	}

	dbUser := &User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, dbUser); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, err
	}
	dbUser.Role = *role

	s.logger.Info("User created successfully",
		zap.String("id", dbUser.ID.String()), zap.String("email", dbUser.Email), zap.String("role", role.Name))
	return dbUser, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context, query ListUsersQuery) ([]User, int64, error) {
	users, total, err := s.repo.FindAll(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve users.")
	}
	return users, total, nil
}

func (s *service) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		dbUser.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hashedPassword, err := common.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("Failed to hash password", zap.Error(err), zap.String("id", id.String()))
			return nil, common.ErrInternalServer.WithDetails("Could not update the account.")
		}
		dbUser.PasswordHash = hashedPassword
	}
	if req.FirstName != nil {
		dbUser.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		dbUser.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.RoleID != nil {
		role, err := s.rbacRepo.FindRoleByID(ctx, *req.RoleID)
		if err != nil {
			if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode == common.ErrNotFound.StatusCode {
				return nil, common.ErrBadRequest.WithDetails("The specified role does not exist.")
			}
			return nil, err
		}
		dbUser.RoleID = role.ID
		dbUser.Role = *role
	}
	if req.IsActive != nil {
		dbUser.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("User updated successfully", zap.String("id", dbUser.ID.String()))
	return dbUser, nil
}

func (s *service) DeactivateUser(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dbUser.IsActive {
		return dbUser, nil
	}
	dbUser.IsActive = false
	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to deactivate user", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("User deactivated", zap.String("id", dbUser.ID.String()))
	return dbUser, nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete user", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("User deleted successfully", zap.String("id", id.String()))
	return nil
}

// GetForLogin returns the account with its password hash and role for
// credential verification. The auth package owns the actual comparison.
func (s *service) GetForLogin(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// RecordLogin stores the login timestamp. Failures are not fatal to the
// login itself.
func (s *service) RecordLogin(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateLastLogin(ctx, id, time.Now())
}
