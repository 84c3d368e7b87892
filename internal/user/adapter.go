// File: internal/user/adapter.go
package user

import (
	"clinic_backend/internal/shared"
)

// DBToShared converts a GORM user.User model to a shared.User snapshot.
// The password hash never crosses this boundary.
func DBToShared(dbUser *User) *shared.User {
	if dbUser == nil {
		return nil
	}
	return &shared.User{
		ID:          dbUser.ID,
		Email:       dbUser.Email,
		FirstName:   dbUser.FirstName,
		LastName:    dbUser.LastName,
		Role:        dbUser.Role.Name,
		IsActive:    dbUser.IsActive,
		CreatedAt:   dbUser.CreatedAt,
		UpdatedAt:   dbUser.UpdatedAt,
		LastLoginAt: dbUser.LastLoginAt,
	}
}
