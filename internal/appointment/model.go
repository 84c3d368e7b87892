// File: internal/appointment/model.go
package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinic_backend/internal/common"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/status"
	"clinic_backend/internal/therapist"
)

// DateLayout is the wire format for appointment dates.
const DateLayout = "2006-01-02"

// HourLayout is the wire and storage format for the time of day. Zero
// padded HH:MM sorts correctly as text, which the repositories rely on.
const HourLayout = "15:04"

// Appointment is a scheduled visit. The date and the time of day are
// stored separately, matching how the clinic books: a day plus a slot.
type Appointment struct {
	common.SoftDeleteModel
	PatientID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	TherapistID         *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentDate     time.Time  `gorm:"type:date;not null;index"`
	Hour                string     `gorm:"type:varchar(5);not null"`
	DurationMinutes     int        `gorm:"not null;default:60"`
	AppointmentStatusID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Reason              *string    `gorm:"type:text"`
	Notes               *string    `gorm:"type:text"`
	Amount              *float64   `gorm:"type:numeric(10,2)"`

	Patient   patient.Patient          `gorm:"foreignKey:PatientID"`
	Therapist *therapist.Therapist     `gorm:"foreignKey:TherapistID"`
	Status    status.AppointmentStatus `gorm:"foreignKey:AppointmentStatusID"`
	Ticket    *Ticket                  `gorm:"foreignKey:AppointmentID"`
}

// TableName specifies the table name for the Appointment model.
func (Appointment) TableName() string {
	return "appointments"
}

// StartsAt combines the date and hour into a wall-clock time in loc.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	hour, err := time.Parse(HourLayout, a.Hour)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored hour %q: %w", a.Hour, err)
	}
	d := a.AppointmentDate
	return time.Date(d.Year(), d.Month(), d.Day(), hour.Hour(), hour.Minute(), 0, 0, loc), nil
}

// Ticket is the queue slip issued together with every appointment.
// Numbers follow TKT-YYYYMMDD-NNNN where NNNN restarts each day.
type Ticket struct {
	common.SoftDeleteModel
	AppointmentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	TicketNumber  string    `gorm:"type:varchar(20);uniqueIndex;not null"`
}

// TableName specifies the table name for the Ticket model.
func (Ticket) TableName() string {
	return "tickets"
}

// TicketNumberFor renders the ticket number for a day and sequence.
func TicketNumberFor(day time.Time, sequence int) string {
	return fmt.Sprintf("TKT-%s-%04d", day.Format("20060102"), sequence)
}

// --- DTOs for API ---

// AppointmentResponse defines the structure for appointment data in API responses.
type AppointmentResponse struct {
	ID              uuid.UUID                    `json:"id"`
	PatientID       uuid.UUID                    `json:"patient_id"`
	Patient         *patient.PatientResponse     `json:"patient,omitempty"`
	TherapistID     *uuid.UUID                   `json:"therapist_id,omitempty"`
	Therapist       *therapist.TherapistResponse `json:"therapist,omitempty"`
	AppointmentDate string                       `json:"appointment_date"`
	Hour            string                       `json:"hour"`
	DurationMinutes int                          `json:"duration_minutes"`
	StatusID        uuid.UUID                    `json:"status_id"`
	Status          *status.StatusResponse       `json:"status,omitempty"`
	Reason          *string                      `json:"reason,omitempty"`
	Notes           *string                      `json:"notes,omitempty"`
	Amount          *float64                     `json:"amount,omitempty"`
	TicketNumber    *string                      `json:"ticket_number,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// ToAppointmentResponse converts an Appointment to its response DTO.
// Associations are included only when preloaded.
func ToAppointmentResponse(a *Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		TherapistID:     a.TherapistID,
		AppointmentDate: a.AppointmentDate.Format(DateLayout),
		Hour:            a.Hour,
		DurationMinutes: a.DurationMinutes,
		StatusID:        a.AppointmentStatusID,
		Reason:          a.Reason,
		Notes:           a.Notes,
		Amount:          a.Amount,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}

	if a.Patient.ID != uuid.Nil {
		patientResp := patient.ToPatientResponse(&a.Patient)
		resp.Patient = &patientResp
	}
	if a.Therapist != nil {
		therapistResp := therapist.ToTherapistResponse(a.Therapist)
		resp.Therapist = &therapistResp
	}
	if a.Status.ID != uuid.Nil {
		statusResp := status.ToStatusResponse(&a.Status)
		resp.Status = &statusResp
	}
	if a.Ticket != nil {
		resp.TicketNumber = &a.Ticket.TicketNumber
	}
	return resp
}

// TicketResponse defines the structure for ticket data in API responses.
type TicketResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	TicketNumber  string    `json:"ticket_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToTicketResponse converts a Ticket to its response DTO.
func ToTicketResponse(t *Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		AppointmentID: t.AppointmentID,
		TicketNumber:  t.TicketNumber,
		CreatedAt:     t.CreatedAt,
	}
}

// CreateAppointmentRequest defines the payload for booking an appointment.
type CreateAppointmentRequest struct {
	PatientID       uuid.UUID  `json:"patient_id" binding:"required"`
	TherapistID     *uuid.UUID `json:"therapist_id,omitempty"`
	AppointmentDate string     `json:"appointment_date" binding:"required,datetime=2006-01-02"`
	Hour            string     `json:"hour" binding:"required,datetime=15:04"`
	DurationMinutes *int       `json:"duration_minutes,omitempty" binding:"omitempty,gt=0,lte=480"`
	StatusID        *uuid.UUID `json:"status_id,omitempty"`
	Reason          *string    `json:"reason,omitempty" binding:"omitempty,max=2000"`
	Notes           *string    `json:"notes,omitempty" binding:"omitempty,max=2000"`
	Amount          *float64   `json:"amount,omitempty" binding:"omitempty,gte=0"`
}

// UpdateAppointmentRequest defines the payload for partially updating an
// appointment. Only non-nil fields are applied.
type UpdateAppointmentRequest struct {
	PatientID       *uuid.UUID `json:"patient_id,omitempty"`
	TherapistID     *uuid.UUID `json:"therapist_id,omitempty"`
	AppointmentDate *string    `json:"appointment_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Hour            *string    `json:"hour,omitempty" binding:"omitempty,datetime=15:04"`
	DurationMinutes *int       `json:"duration_minutes,omitempty" binding:"omitempty,gt=0,lte=480"`
	StatusID        *uuid.UUID `json:"status_id,omitempty"`
	Reason          *string    `json:"reason,omitempty" binding:"omitempty,max=2000"`
	Notes           *string    `json:"notes,omitempty" binding:"omitempty,max=2000"`
	Amount          *float64   `json:"amount,omitempty" binding:"omitempty,gte=0"`
}

// UpdateAppointmentStatusRequest changes only the status of an appointment.
type UpdateAppointmentStatusRequest struct {
	StatusID uuid.UUID `json:"status_id" binding:"required"`
}

// ListAppointmentsQuery holds the filters for the main appointment list.
// Date filters arrive as YYYY-MM-DD strings and are parsed in the service.
type ListAppointmentsQuery struct {
	common.PaginationQuery
	Date        string `form:"date"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
	StatusID    string `form:"status_id"`
	PatientID   string `form:"patient_id"`
	TherapistID string `form:"therapist_id"`
}

// StatusBucketQuery holds the filters shared by the completed and
// pending listings.
type StatusBucketQuery struct {
	common.PaginationQuery
	Date        string `form:"date"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
	StatusID    string `form:"status_id"`
	PatientID   string `form:"patient_id"`
	TherapistID string `form:"therapist_id"`
}

// AvailabilityQuery holds the parameters for an availability check.
type AvailabilityQuery struct {
	Date            string `form:"date" binding:"required,datetime=2006-01-02"`
	Hour            string `form:"hour" binding:"required,datetime=15:04"`
	DurationMinutes int    `form:"duration_minutes" binding:"omitempty,gt=0,lte=480"`
	TherapistID     string `form:"therapist_id"`
}

// AvailabilityResponse reports whether a slot is free.
type AvailabilityResponse struct {
	IsAvailable             bool `json:"is_available"`
	ConflictingAppointments int  `json:"conflicting_appointments"`
}

// SearchQuery drives the Elasticsearch-backed free-text search.
type SearchQuery struct {
	common.PaginationQuery
	Term string `form:"q" binding:"required"`
}

// SearchHit is one appointment returned from the search index.
type SearchHit struct {
	ID              uuid.UUID `json:"id"`
	PatientName     string    `json:"patient_name,omitempty"`
	TherapistName   string    `json:"therapist_name,omitempty"`
	StatusName      string    `json:"status_name,omitempty"`
	AppointmentDate string    `json:"appointment_date,omitempty"`
	Hour            string    `json:"hour,omitempty"`
	TicketNumber    string    `json:"ticket_number,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Score           float64   `json:"score"`
}
