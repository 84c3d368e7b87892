// File: internal/history/model.go
package history

import (
	"time"

	"github.com/google/uuid"

	"clinic_backend/internal/common"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/therapist"
)

// DateLayout is the wire format for visit dates.
const DateLayout = "2006-01-02"

// History is one clinical history entry for a patient. The owning
// patient cannot be changed once the entry exists.
type History struct {
	common.SoftDeleteModel
	PatientID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	TherapistID *uuid.UUID `gorm:"type:uuid;index"`
	VisitDate   time.Time  `gorm:"type:date;not null;index"`
	DIUTypeID   *uuid.UUID `gorm:"column:diu_type_id;type:uuid;index"`
	// LegacyDIUType carries the free-text value entries held before the
	// diu_types lookup existed. MigrateLegacyHistoryDIUTypes moves these
	// into DIUTypeID and clears the column.
	LegacyDIUType string  `gorm:"column:legacy_diu_type;type:varchar(100);not null;default:''"`
	PrivateNotes  *string `gorm:"type:text"`

	Patient   patient.Patient      `gorm:"foreignKey:PatientID"`
	Therapist *therapist.Therapist `gorm:"foreignKey:TherapistID"`
	DIUType   *DIUType             `gorm:"foreignKey:DIUTypeID"`
}

// TableName specifies the table name for the History model.
func (History) TableName() string {
	return "histories"
}

// DIUType is a row of the DIU type lookup table.
type DIUType struct {
	common.SoftDeleteModel
	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_diu_types_name,unique"`
	Slug        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_diu_types_slug,unique"`
	Description *string `gorm:"type:text"`
}

// TableName specifies the table name for the DIUType model.
func (DIUType) TableName() string {
	return "diu_types"
}

// --- DTOs ---

// HistoryResponse defines the structure for history data in API responses.
// Associations are present only when the entry was loaded with them.
type HistoryResponse struct {
	ID            uuid.UUID                    `json:"id"`
	PatientID     uuid.UUID                    `json:"patient_id"`
	Patient       *patient.PatientResponse     `json:"patient,omitempty"`
	TherapistID   *uuid.UUID                   `json:"therapist_id,omitempty"`
	Therapist     *therapist.TherapistResponse `json:"therapist,omitempty"`
	VisitDate     string                       `json:"visit_date"`
	DIUTypeID     *uuid.UUID                   `json:"diu_type_id,omitempty"`
	DIUType       *DIUTypeResponse             `json:"diu_type,omitempty"`
	LegacyDIUType string                       `json:"legacy_diu_type,omitempty"`
	PrivateNotes  *string                      `json:"private_notes,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// ToHistoryResponse converts a History to its response DTO.
func ToHistoryResponse(h *History) HistoryResponse {
	resp := HistoryResponse{
		ID:            h.ID,
		PatientID:     h.PatientID,
		TherapistID:   h.TherapistID,
		VisitDate:     h.VisitDate.Format(DateLayout),
		DIUTypeID:     h.DIUTypeID,
		LegacyDIUType: h.LegacyDIUType,
		PrivateNotes:  h.PrivateNotes,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}

	if h.Patient.ID != uuid.Nil {
		patientResp := patient.ToPatientResponse(&h.Patient)
		resp.Patient = &patientResp
	}
	if h.Therapist != nil {
		therapistResp := therapist.ToTherapistResponse(h.Therapist)
		resp.Therapist = &therapistResp
	}
	if h.DIUType != nil {
		diuResp := ToDIUTypeResponse(h.DIUType)
		resp.DIUType = &diuResp
	}
	return resp
}

// DIUTypeResponse defines the structure for DIU type data in API responses.
type DIUTypeResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ToDIUTypeResponse converts a DIUType model to a DIUTypeResponse DTO.
func ToDIUTypeResponse(dt *DIUType) DIUTypeResponse {
	resp := DIUTypeResponse{
		ID:          dt.ID,
		Name:        dt.Name,
		Slug:        dt.Slug,
		Description: dt.Description,
		CreatedAt:   dt.CreatedAt,
		UpdatedAt:   dt.UpdatedAt,
	}
	if dt.DeletedAt.Valid {
		deletedAt := dt.DeletedAt.Time
		resp.DeletedAt = &deletedAt
	}
	return resp
}

// CreateHistoryRequest defines the payload for creating a history entry.
type CreateHistoryRequest struct {
	PatientID    uuid.UUID  `json:"patient_id" binding:"required"`
	TherapistID  *uuid.UUID `json:"therapist_id,omitempty"`
	VisitDate    string     `json:"visit_date" binding:"required,datetime=2006-01-02"`
	DIUTypeID    *uuid.UUID `json:"diu_type_id,omitempty"`
	PrivateNotes *string    `json:"private_notes,omitempty" binding:"omitempty,max=10000"`
}

// UpdateHistoryRequest defines the payload for partially updating a
// history entry. Absent fields are left untouched.
type UpdateHistoryRequest struct {
	TherapistID  *uuid.UUID `json:"therapist_id,omitempty"`
	VisitDate    *string    `json:"visit_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	DIUTypeID    *uuid.UUID `json:"diu_type_id,omitempty"`
	PrivateNotes *string    `json:"private_notes,omitempty" binding:"omitempty,max=10000"`
}

// ListHistoriesQuery holds the filters for the history list. Date
// filters arrive as YYYY-MM-DD strings and are parsed in the service.
type ListHistoriesQuery struct {
	common.PaginationQuery
	PatientID   string `form:"patient_id"`
	TherapistID string `form:"therapist_id"`
	DIUTypeID   string `form:"diu_type_id"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
}

// CreateDIUTypeRequest for admins creating DIU types.
type CreateDIUTypeRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Slug        string  `json:"slug" binding:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
}

// UpdateDIUTypeRequest for admins updating DIU types.
type UpdateDIUTypeRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Slug        string  `json:"slug" binding:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
}

// ListDIUTypesQuery holds the supported DIU type list filters.
type ListDIUTypesQuery struct {
	Search  string `form:"search"`
	OrderBy string `form:"order_by" binding:"omitempty,oneof=name created_at updated_at -name -created_at -updated_at"`
}
