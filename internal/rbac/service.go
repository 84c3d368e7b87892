// File: internal/rbac/service.go
package rbac

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/config"
)

const permissionCacheKeyPrefix = "rbac:permissions:"

// Service defines the interface for role and permission business logic.
type Service interface {
	// Roles
	CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error)
	GetRoleByID(ctx context.Context, id uuid.UUID) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error

	// Permissions
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	DeletePermission(ctx context.Context, id uuid.UUID) error

	// Assignments
	AssignPermissionToRole(ctx context.Context, roleID, permissionID uuid.UUID) error
	RevokePermissionFromRole(ctx context.Context, roleID, permissionID uuid.UUID) error
	GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error)

	// HasPermission answers whether the named role carries the named
	// permission. The admin role always passes.
	HasPermission(ctx context.Context, roleName, permissionName string) (bool, error)
}

type service struct {
	repo        Repository
	redisClient *redis.Client // nil when REDIS_ADDR is not configured
	memCache    *gocache.Cache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewService creates a new RBAC service. redisClient may be nil, in which
// case permission lookups are cached in-process only.
func NewService(repo Repository, redisClient *redis.Client, cfg *config.Config, logger *zap.Logger) Service {
	ttl := cfg.PermissionCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		repo:        repo,
		redisClient: redisClient,
		memCache:    gocache.New(ttl, 2*ttl),
		cacheTTL:    ttl,
		logger:      logger,
	}
}

// --- Roles ---

func (s *service) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	role := &Role{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		s.logger.Error("Failed to create role", zap.Error(err), zap.String("name", req.Name))
		return nil, err
	}
	s.logger.Info("Role created successfully", zap.String("id", role.ID.String()), zap.String("name", role.Name))
	return role, nil
}

func (s *service) GetRoleByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.repo.FindRoleByID(ctx, id)
}

func (s *service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.FindAllRoles(ctx)
	if err != nil {
		s.logger.Error("Failed to list roles", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve roles.")
	}
	return roles, nil
}

func (s *service) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*Role, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousName := role.Name
	role.Name = strings.TrimSpace(req.Name)
	role.Description = req.Description

	if err := s.repo.UpdateRole(ctx, role); err != nil {
		s.logger.Error("Failed to update role", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.invalidateRoleCache(ctx, previousName)
	if role.Name != previousName {
		s.invalidateRoleCache(ctx, role.Name)
	}
	s.logger.Info("Role updated successfully", zap.String("id", role.ID.String()))
	return role, nil
}

func (s *service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return err
	}
	// Repository DeleteRole refuses when users are still assigned.
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		s.logger.Error("Failed to delete role", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.invalidateRoleCache(ctx, role.Name)
	s.logger.Info("Role deleted successfully", zap.String("id", id.String()), zap.String("name", role.Name))
	return nil
}

// --- Permissions ---

func (s *service) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*Permission, error) {
	permission := &Permission{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.repo.CreatePermission(ctx, permission); err != nil {
		s.logger.Error("Failed to create permission", zap.Error(err), zap.String("name", req.Name))
		return nil, err
	}
	s.logger.Info("Permission created successfully",
		zap.String("id", permission.ID.String()), zap.String("name", permission.Name))
	return permission, nil
}

func (s *service) ListPermissions(ctx context.Context) ([]Permission, error) {
	permissions, err := s.repo.FindAllPermissions(ctx)
	if err != nil {
		s.logger.Error("Failed to list permissions", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve permissions.")
	}
	return permissions, nil
}

func (s *service) DeletePermission(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		s.logger.Error("Failed to delete permission", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	// Assignments changed for an unknown set of roles.
	s.flushPermissionCache(ctx)
	s.logger.Info("Permission deleted successfully", zap.String("id", id.String()))
	return nil
}

// --- Assignments ---

func (s *service) AssignPermissionToRole(ctx context.Context, roleID, permissionID uuid.UUID) error {
	role, err := s.repo.FindRoleByID(ctx, roleID)
	if err != nil {
		return err
	}
	if _, err := s.repo.FindPermissionByID(ctx, permissionID); err != nil {
		return err
	}

	if err := s.repo.AssignPermission(ctx, roleID, permissionID); err != nil {
		s.logger.Error("Failed to assign permission to role", zap.Error(err),
			zap.String("roleID", roleID.String()), zap.String("permissionID", permissionID.String()))
		return err
	}
	s.invalidateRoleCache(ctx, role.Name)
	s.logger.Info("Permission assigned to role",
		zap.String("roleID", roleID.String()), zap.String("permissionID", permissionID.String()))
	return nil
}

func (s *service) RevokePermissionFromRole(ctx context.Context, roleID, permissionID uuid.UUID) error {
	role, err := s.repo.FindRoleByID(ctx, roleID)
	if err != nil {
		return err
	}

	if err := s.repo.RevokePermission(ctx, roleID, permissionID); err != nil {
		s.logger.Error("Failed to revoke permission from role", zap.Error(err),
			zap.String("roleID", roleID.String()), zap.String("permissionID", permissionID.String()))
		return err
	}
	s.invalidateRoleCache(ctx, role.Name)
	s.logger.Info("Permission revoked from role",
		zap.String("roleID", roleID.String()), zap.String("permissionID", permissionID.String()))
	return nil
}

func (s *service) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	if _, err := s.repo.FindRoleByID(ctx, roleID); err != nil {
		return nil, err
	}
	permissions, err := s.repo.FindPermissionsForRole(ctx, roleID)
	if err != nil {
		s.logger.Error("Failed to list role permissions", zap.Error(err), zap.String("roleID", roleID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve role permissions.")
	}
	return permissions, nil
}

// --- Permission checks ---

func (s *service) HasPermission(ctx context.Context, roleName, permissionName string) (bool, error) {
	if roleName == RoleAdmin {
		return true, nil
	}
	if roleName == "" || permissionName == "" {
		return false, nil
	}

	names, found := s.cachedPermissionNames(ctx, roleName)
	if !found {
		var err error
		names, err = s.repo.FindPermissionNamesForRoleName(ctx, roleName)
		if err != nil {
			s.logger.Error("Failed to load permissions for role", zap.Error(err), zap.String("role", roleName))
			return false, common.ErrInternalServer.WithDetails("Could not verify permissions.")
		}
		s.storePermissionNames(ctx, roleName, names)
	}

	for _, name := range names {
		if name == permissionName {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) cachedPermissionNames(ctx context.Context, roleName string) ([]string, bool) {
	key := permissionCacheKeyPrefix + roleName
	if s.redisClient != nil {
		payload, err := s.redisClient.Get(ctx, key).Result()
		if err == nil {
			var names []string
			if jsonErr := json.Unmarshal([]byte(payload), &names); jsonErr == nil {
				return names, true
			}
		} else if err != redis.Nil {
			s.logger.Warn("Redis permission cache read failed", zap.Error(err), zap.String("role", roleName))
		}
		return nil, false
	}

	if cached, ok := s.memCache.Get(key); ok {
		if names, ok := cached.([]string); ok {
			return names, true
		}
	}
	return nil, false
}

func (s *service) storePermissionNames(ctx context.Context, roleName string, names []string) {
	key := permissionCacheKeyPrefix + roleName
	if s.redisClient != nil {
		payload, err := json.Marshal(names)
		if err == nil {
			if err := s.redisClient.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("Redis permission cache write failed", zap.Error(err), zap.String("role", roleName))
			}
		}
		return
	}
	s.memCache.Set(key, names, s.cacheTTL)
}

func (s *service) invalidateRoleCache(ctx context.Context, roleName string) {
	key := permissionCacheKeyPrefix + roleName
	if s.redisClient != nil {
		if err := s.redisClient.Del(ctx, key).Err(); err != nil {
			s.logger.Warn("Redis permission cache invalidation failed", zap.Error(err), zap.String("role", roleName))
		}
		return
	}
	s.memCache.Delete(key)
}

func (s *service) flushPermissionCache(ctx context.Context) {
	if s.redisClient != nil {
		keys, err := s.redisClient.Keys(ctx, permissionCacheKeyPrefix+"*").Result()
		if err != nil {
			s.logger.Warn("Redis permission cache flush failed", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
				s.logger.Warn("Redis permission cache flush failed", zap.Error(err))
			}
		}
		return
	}
	s.memCache.Flush()
}
