// File: internal/status/model.go
package status

import (
	"time"

	"github.com/google/uuid"

	"clinic_backend/internal/common"
)

// Well-known status names. The seed command creates them; the appointment
// service falls back to date comparisons when a deployment removed them.
const (
	NamePending   = "Pendiente"
	NameCompleted = "Completado"
	NameCancelled = "Cancelado"
)

// AppointmentStatus represents a row of the appointment status lookup table.
type AppointmentStatus struct {
	common.SoftDeleteModel
	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_appointment_statuses_name,unique"`
	Slug        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_appointment_statuses_slug,unique"`
	Description *string `gorm:"type:text"`
}

// TableName specifies the table name for the AppointmentStatus model.
func (AppointmentStatus) TableName() string {
	return "appointment_statuses"
}

// --- DTOs ---

// StatusResponse defines the structure for status data sent in API responses.
type StatusResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ToStatusResponse converts an AppointmentStatus model to a StatusResponse DTO.
func ToStatusResponse(st *AppointmentStatus) StatusResponse {
	resp := StatusResponse{
		ID:          st.ID,
		Name:        st.Name,
		Slug:        st.Slug,
		Description: st.Description,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
	if st.DeletedAt.Valid {
		deletedAt := st.DeletedAt.Time
		resp.DeletedAt = &deletedAt
	}
	return resp
}

// CreateStatusRequest for admins creating statuses.
type CreateStatusRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Slug        string  `json:"slug" binding:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
}

// UpdateStatusRequest for admins updating statuses.
type UpdateStatusRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Slug        string  `json:"slug" binding:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
}

// ListStatusesQuery holds the supported list filters.
type ListStatusesQuery struct {
	Search  string `form:"search"`
	OrderBy string `form:"order_by" binding:"omitempty,oneof=name created_at updated_at -name -created_at -updated_at"`
}
