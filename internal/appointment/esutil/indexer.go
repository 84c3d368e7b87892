// File: internal/appointment/esutil/indexer.go
package esutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/appointment"
	"clinic_backend/internal/common"
	"clinic_backend/internal/platform/elasticsearch"
)

// Indexer keeps the appointments search index in step with the database.
// Index and Remove are best-effort: failures are logged and never fail
// the originating request.
type Indexer struct {
	client *elasticsearch.ESClientWrapper
	logger *zap.Logger
}

// NewIndexer creates the Elasticsearch-backed search indexer. A nil
// client is allowed: writes become no-ops and Search reports the
// feature unavailable.
func NewIndexer(client *elasticsearch.ESClientWrapper, logger *zap.Logger) appointment.SearchIndexer {
	return &Indexer{client: client, logger: logger.Named("appointment_indexer")}
}

func (i *Indexer) enabled() bool {
	return i.client != nil
}

// Index stores or replaces the document for an appointment.
func (i *Indexer) Index(ctx context.Context, appt *appointment.Appointment) {
	if !i.enabled() || appt == nil {
		return
	}

	docJSON, err := AppointmentToElasticsearchDoc(appt)
	if err != nil {
		i.logger.Error("Failed to render appointment document",
			zap.Error(err), zap.String("appointmentID", appt.ID.String()))
		return
	}

	req := esapi.IndexRequest{
		Index:      elasticsearch.AppointmentsIndexName,
		DocumentID: appt.ID.String(),
		Body:       strings.NewReader(docJSON),
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		i.logger.Error("Failed to index appointment",
			zap.Error(err), zap.String("appointmentID", appt.ID.String()))
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		i.logger.Error("Indexing appointment returned an error response",
			zap.String("status", res.Status()), zap.String("appointmentID", appt.ID.String()))
	}
}

// Remove deletes the document for an appointment. A missing document is
// not an error: the appointment may never have been indexed.
func (i *Indexer) Remove(ctx context.Context, id uuid.UUID) {
	if !i.enabled() {
		return
	}

	req := esapi.DeleteRequest{
		Index:      elasticsearch.AppointmentsIndexName,
		DocumentID: id.String(),
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		i.logger.Error("Failed to remove appointment from index",
			zap.Error(err), zap.String("appointmentID", id.String()))
		return
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		i.logger.Error("Removing appointment from index returned an error response",
			zap.String("status", res.Status()), zap.String("appointmentID", id.String()))
	}
}

// Search runs a free-text query across the indexed appointment fields.
func (i *Indexer) Search(ctx context.Context, query appointment.SearchQuery) ([]appointment.SearchHit, int64, error) {
	if !i.enabled() {
		return nil, 0, common.ErrServiceUnavailable.WithDetails(
			"Appointment search requires Elasticsearch, which is not configured.")
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query.Term,
				"fields":    []string{"patient_name^2", "therapist_name", "ticket_number", "status_name", "reason", "notes"},
				"fuzziness": "AUTO",
			},
		},
		"from": query.Offset(),
		"size": query.Limit(),
	}
	body, err := json.Marshal(esQuery)
	if err != nil {
		return nil, 0, fmt.Errorf("error marshalling search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index:          []string{elasticsearch.AppointmentsIndexName},
		Body:           bytes.NewReader(body),
		TrackTotalHits: true,
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		i.logger.Error("Appointment search request failed", zap.Error(err))
		return nil, 0, common.ErrServiceUnavailable.WithDetails("Appointment search is temporarily unavailable.")
	}
	defer res.Body.Close()

	if res.IsError() {
		i.logger.Error("Appointment search returned an error response", zap.String("status", res.Status()))
		return nil, 0, common.ErrInternalServer.WithDetails("Appointment search failed.")
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("error decoding search response: %w", err)
	}

	hits := make([]appointment.SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			i.logger.Warn("Skipping search hit with non-UUID document id", zap.String("documentID", h.ID))
			continue
		}
		hits = append(hits, appointment.SearchHit{
			ID:              id,
			PatientName:     h.Source.PatientName,
			TherapistName:   h.Source.TherapistName,
			StatusName:      h.Source.StatusName,
			AppointmentDate: h.Source.AppointmentDate,
			Hour:            h.Source.Hour,
			TicketNumber:    h.Source.TicketNumber,
			Reason:          h.Source.Reason,
			Score:           h.Score,
		})
	}
	return hits, parsed.Hits.Total.Value, nil
}

// searchResponse mirrors the slice of the Elasticsearch reply we consume.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				PatientName     string `json:"patient_name"`
				TherapistName   string `json:"therapist_name"`
				StatusName      string `json:"status_name"`
				AppointmentDate string `json:"appointment_date"`
				Hour            string `json:"hour"`
				TicketNumber    string `json:"ticket_number"`
				Reason          string `json:"reason"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
