// File: cmd/server/seed.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/config"
	"clinic_backend/internal/history"
	"clinic_backend/internal/platform/crypto"
	"clinic_backend/internal/platform/database"
	"clinic_backend/internal/platform/logger"
	"clinic_backend/internal/rbac"
	"clinic_backend/internal/status"
	"clinic_backend/internal/user"
)

// Baseline reference data. Seeding is idempotent: every record is looked
// up first and only created when missing, so the command is safe to run
// on every deploy.
var (
	seedRoles = []struct {
		Name        string
		Description string
	}{
		{rbac.RoleAdmin, "Full access to every resource and admin-only endpoints."},
		{"recepcionista", "Front desk staff: manages patients and appointments."},
		{"terapeuta", "Clinical staff: attends appointments and keeps patient histories."},
	}

	seedPermissionResources = []string{"patients", "therapists", "appointments", "histories"}
	seedPermissionActions   = []string{"read", "create", "update", "delete"}

	// The admin role bypasses permission checks, so it gets no rows here.
	seedRolePermissions = map[string][]string{
		"recepcionista": {
			"patients.read", "patients.create", "patients.update", "patients.delete",
			"appointments.read", "appointments.create", "appointments.update", "appointments.delete",
			"therapists.read",
		},
		"terapeuta": {
			"patients.read",
			"therapists.read",
			"appointments.read", "appointments.update",
			"histories.read", "histories.create", "histories.update", "histories.delete",
		},
	}

	seedStatuses = []struct {
		Name        string
		Description string
	}{
		{status.NamePending, "Scheduled and waiting to be attended."},
		{status.NameCompleted, "The appointment took place."},
		{status.NameCancelled, "The appointment was called off."},
	}

	seedDIUTypes = []string{"T de Cobre", "Hormonal", "Ninguno"}
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create baseline roles, permissions, statuses, DIU types and the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func runSeed() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer database.CloseGORMDB(db)

	ctx := context.Background()
	rbacRepo := rbac.NewGORMRepository(db)
	statusRepo := status.NewGORMRepository(db)
	historyRepo := history.NewGORMRepository(db)
	userRepo := user.NewGORMRepository(db)
	userService := user.NewService(userRepo, rbacRepo, appLogger)

	roleIDs, err := seedRolesAndPermissions(ctx, rbacRepo, appLogger)
	if err != nil {
		appLogger.Error("Failed to seed roles and permissions", zap.Error(err))
		return err
	}
	if err := seedAppointmentStatuses(ctx, statusRepo, appLogger); err != nil {
		appLogger.Error("Failed to seed appointment statuses", zap.Error(err))
		return err
	}
	if err := seedHistoryDIUTypes(ctx, historyRepo, appLogger); err != nil {
		appLogger.Error("Failed to seed DIU types", zap.Error(err))
		return err
	}
	if err := seedAdminAccount(ctx, cfg, userRepo, userService, roleIDs[rbac.RoleAdmin], appLogger); err != nil {
		appLogger.Error("Failed to seed admin account", zap.Error(err))
		return err
	}

	appLogger.Info("Seeding completed successfully")
	return nil
}

func seedRolesAndPermissions(ctx context.Context, repo rbac.Repository, logger *zap.Logger) (map[string]uuid.UUID, error) {
	roleIDs := make(map[string]uuid.UUID, len(seedRoles))
	for _, r := range seedRoles {
		role, err := repo.FindRoleByName(ctx, r.Name)
		if err == nil {
			roleIDs[role.Name] = role.ID
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		desc := r.Description
		role = &rbac.Role{Name: r.Name, Description: &desc}
		if err := repo.CreateRole(ctx, role); err != nil {
			return nil, err
		}
		roleIDs[role.Name] = role.ID
		logger.Info("Seeded role", zap.String("name", role.Name))
	}

	permIDs := make(map[string]uuid.UUID, len(seedPermissionResources)*len(seedPermissionActions))
	for _, resource := range seedPermissionResources {
		for _, action := range seedPermissionActions {
			name := resource + "." + action
			perm, err := repo.FindPermissionByName(ctx, name)
			if err == nil {
				permIDs[name] = perm.ID
				continue
			}
			if !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			perm = &rbac.Permission{Name: name}
			if err := repo.CreatePermission(ctx, perm); err != nil {
				return nil, err
			}
			permIDs[name] = perm.ID
			logger.Info("Seeded permission", zap.String("name", name))
		}
	}

	for roleName, permNames := range seedRolePermissions {
		roleID, ok := roleIDs[roleName]
		if !ok {
			return nil, fmt.Errorf("role %q was not seeded", roleName)
		}
		for _, permName := range permNames {
			permID, ok := permIDs[permName]
			if !ok {
				return nil, fmt.Errorf("permission %q was not seeded", permName)
			}
			if err := repo.AssignPermission(ctx, roleID, permID); err != nil && !errors.Is(err, common.ErrConflict) {
				return nil, err
			}
		}
	}

	return roleIDs, nil
}

func seedAppointmentStatuses(ctx context.Context, repo status.Repository, logger *zap.Logger) error {
	for _, st := range seedStatuses {
		_, err := repo.FindByName(ctx, st.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		desc := st.Description
		row := &status.AppointmentStatus{Name: st.Name, Slug: slug.Make(st.Name), Description: &desc}
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		logger.Info("Seeded appointment status", zap.String("name", st.Name))
	}
	return nil
}

func seedHistoryDIUTypes(ctx context.Context, repo history.Repository, logger *zap.Logger) error {
	for _, name := range seedDIUTypes {
		_, err := repo.FindDIUTypeBySlug(ctx, slug.Make(name))
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if err := repo.CreateDIUType(ctx, &history.DIUType{Name: name, Slug: slug.Make(name)}); err != nil {
			return err
		}
		logger.Info("Seeded DIU type", zap.String("name", name))
	}
	return nil
}

func seedAdminAccount(ctx context.Context, cfg *config.Config, repo user.Repository, svc user.Service, adminRoleID uuid.UUID, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		logger.Warn("ADMIN_EMAIL is empty, skipping admin account seeding")
		return nil
	}

	_, err := repo.FindByEmail(ctx, email)
	if err == nil {
		logger.Info("Admin account already exists, skipping", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	password := cfg.AdminPassword
	generated := false
	if password == "" {
		password, err = crypto.GenerateSecureRandomString(16)
		if err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
		generated = true
	}

	created, err := svc.CreateUser(ctx, user.CreateUserRequest{
		Email:     email,
		Password:  password,
		FirstName: "Clinic",
		LastName:  "Admin",
		RoleID:    adminRoleID,
	})
	if err != nil {
		return err
	}

	if generated {
		// The generated password is printed exactly once; it is stored
		// only as a bcrypt hash.
		logger.Warn("Admin account created with a generated password. Store it now, it will not be shown again.",
			zap.String("email", created.Email),
			zap.String("password", password),
		)
	} else {
		logger.Info("Admin account created", zap.String("email", created.Email))
	}
	return nil
}
