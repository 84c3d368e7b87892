// File: internal/shared/user_response.go
package shared

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(svUser *User) UserResponse {
	return UserResponse{
		ID:          svUser.ID,
		Email:       svUser.Email,
		FirstName:   svUser.FirstName,
		LastName:    svUser.LastName,
		Role:        svUser.Role,
		IsActive:    svUser.IsActive,
		CreatedAt:   svUser.CreatedAt,
		UpdatedAt:   svUser.UpdatedAt,
		LastLoginAt: svUser.LastLoginAt,
	}
}
