// File: internal/therapist/model.go
package therapist

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clinic_backend/internal/common"
)

// Therapist represents a clinic professional who attends appointments.
type Therapist struct {
	common.SoftDeleteModel
	FirstName      string         `gorm:"type:varchar(100);not null"`
	LastName       string         `gorm:"type:varchar(100);not null"`
	DocumentNumber string         `gorm:"type:varchar(30);not null;uniqueIndex:idx_therapists_document_number,unique"`
	Email          *string        `gorm:"type:varchar(255)"`
	Phone          *string        `gorm:"type:varchar(30)"`
	LicenseNumber  *string        `gorm:"type:varchar(50)"`
	Specialties    pq.StringArray `gorm:"type:text[]"`
	IsActive       bool           `gorm:"not null;default:true"`
}

// TableName specifies the table name for the Therapist model.
func (Therapist) TableName() string {
	return "therapists"
}

// FullName returns the therapist's display name.
func (t *Therapist) FullName() string {
	return t.FirstName + " " + t.LastName
}

// --- DTOs ---

// TherapistResponse defines the structure for therapist data in API responses.
type TherapistResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DocumentNumber string    `json:"document_number"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	LicenseNumber  *string   `json:"license_number,omitempty"`
	Specialties    []string  `json:"specialties"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToTherapistResponse converts a Therapist model to a TherapistResponse DTO.
func ToTherapistResponse(t *Therapist) TherapistResponse {
	specialties := []string(t.Specialties)
	if specialties == nil {
		specialties = []string{}
	}
	return TherapistResponse{
		ID:             t.ID,
		FirstName:      t.FirstName,
		LastName:       t.LastName,
		DocumentNumber: t.DocumentNumber,
		Email:          t.Email,
		Phone:          t.Phone,
		LicenseNumber:  t.LicenseNumber,
		Specialties:    specialties,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// CreateTherapistRequest for registering a new therapist.
type CreateTherapistRequest struct {
	FirstName      string   `json:"first_name" binding:"required,max=100"`
	LastName       string   `json:"last_name" binding:"required,max=100"`
	DocumentNumber string   `json:"document_number" binding:"required,max=30"`
	Email          *string  `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string  `json:"phone,omitempty" binding:"omitempty,max=30"`
	LicenseNumber  *string  `json:"license_number,omitempty" binding:"omitempty,max=50"`
	Specialties    []string `json:"specialties,omitempty" binding:"omitempty,dive,max=100"`
}

// UpdateTherapistRequest for partially updating a therapist. Nil fields
// are left untouched.
type UpdateTherapistRequest struct {
	FirstName      *string   `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName       *string   `json:"last_name,omitempty" binding:"omitempty,max=100"`
	DocumentNumber *string   `json:"document_number,omitempty" binding:"omitempty,max=30"`
	Email          *string   `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string   `json:"phone,omitempty" binding:"omitempty,max=30"`
	LicenseNumber  *string   `json:"license_number,omitempty" binding:"omitempty,max=50"`
	Specialties    *[]string `json:"specialties,omitempty" binding:"omitempty,dive,max=100"`
	IsActive       *bool     `json:"is_active,omitempty"`
}

// ListTherapistsQuery holds the supported list filters.
type ListTherapistsQuery struct {
	common.PaginationQuery
	Search    string `form:"search"`
	Specialty string `form:"specialty"`
	IsActive  *bool  `form:"is_active"`
}
