// File: internal/patient/model.go
package patient

import (
	"time"

	"github.com/google/uuid"

	"clinic_backend/internal/common"
)

// Patient represents a person receiving care at the clinic.
type Patient struct {
	common.SoftDeleteModel
	FirstName      string     `gorm:"type:varchar(100);not null"`
	LastName       string     `gorm:"type:varchar(100);not null"`
	DocumentNumber string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_patients_document_number,unique"`
	Email          *string    `gorm:"type:varchar(255)"`
	Phone          *string    `gorm:"type:varchar(30)"`
	BirthDate      *time.Time `gorm:"type:date"`
	Address        *string    `gorm:"type:varchar(255)"`
	Notes          *string    `gorm:"type:text"`
}

// TableName specifies the table name for the Patient model.
func (Patient) TableName() string {
	return "patients"
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// --- DTOs ---

// PatientResponse defines the structure for patient data in API responses.
type PatientResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DocumentNumber string    `json:"document_number"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	BirthDate      *string   `json:"birth_date,omitempty"`
	Address        *string   `json:"address,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToPatientResponse converts a Patient model to a PatientResponse DTO.
func ToPatientResponse(p *Patient) PatientResponse {
	resp := PatientResponse{
		ID:             p.ID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DocumentNumber: p.DocumentNumber,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.BirthDate != nil {
		birthDate := p.BirthDate.Format("2006-01-02")
		resp.BirthDate = &birthDate
	}
	return resp
}

// CreatePatientRequest for registering a new patient.
type CreatePatientRequest struct {
	FirstName      string  `json:"first_name" binding:"required,max=100"`
	LastName       string  `json:"last_name" binding:"required,max=100"`
	DocumentNumber string  `json:"document_number" binding:"required,max=30"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	BirthDate      *string `json:"birth_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Address        *string `json:"address,omitempty" binding:"omitempty,max=255"`
	Notes          *string `json:"notes,omitempty"`
}

// UpdatePatientRequest for partially updating a patient. Nil fields are
// left untouched.
type UpdatePatientRequest struct {
	FirstName      *string `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName       *string `json:"last_name,omitempty" binding:"omitempty,max=100"`
	DocumentNumber *string `json:"document_number,omitempty" binding:"omitempty,max=30"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	BirthDate      *string `json:"birth_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Address        *string `json:"address,omitempty" binding:"omitempty,max=255"`
	Notes          *string `json:"notes,omitempty"`
}

// ListPatientsQuery holds the supported list filters.
type ListPatientsQuery struct {
	common.PaginationQuery
	Search string `form:"search"`
}
