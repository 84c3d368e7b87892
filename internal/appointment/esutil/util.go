// File: internal/appointment/esutil/util.go
package esutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clinic_backend/internal/appointment"
)

// AppointmentToElasticsearchDoc converts an appointment to its Elasticsearch
// document representation. It expects the associations (Patient, Therapist,
// Status, Ticket) to be preloaded on the appointment object; absent ones
// simply leave their fields out of the document.
func AppointmentToElasticsearchDoc(a *appointment.Appointment) (string, error) {
	if a == nil {
		return "", errors.New("appointment cannot be nil")
	}

	doc := map[string]interface{}{
		"patient_id":       a.PatientID.String(),
		"status_id":        a.AppointmentStatusID.String(),
		"appointment_date": a.AppointmentDate.Format(appointment.DateLayout),
		"hour":             a.Hour,
		"duration_minutes": a.DurationMinutes,
		"created_at":       a.CreatedAt,
		"updated_at":       a.UpdatedAt,
	}

	if a.TherapistID != nil {
		doc["therapist_id"] = a.TherapistID.String()
	} else {
		doc["therapist_id"] = nil
	}
	if a.Reason != nil {
		doc["reason"] = *a.Reason
	}
	if a.Notes != nil {
		doc["notes"] = *a.Notes
	}

	if a.Patient.ID != uuid.Nil {
		doc["patient_name"] = a.Patient.FullName()
	}
	if a.Therapist != nil {
		doc["therapist_name"] = a.Therapist.FullName()
	}
	if a.Status.ID != uuid.Nil {
		doc["status_name"] = a.Status.Name
	}
	if a.Ticket != nil {
		doc["ticket_number"] = a.Ticket.TicketNumber
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshalling appointment to JSON for ES: %w", err)
	}
	return string(docBytes), nil
}
