// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const AppointmentsIndexName = "appointments"

// defineAppointmentsMapping returns the JSON string for the appointments index mapping.
func defineAppointmentsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"patient_id":       map[string]interface{}{"type": "keyword"},
				"therapist_id":     map[string]interface{}{"type": "keyword"},
				"status_id":        map[string]interface{}{"type": "keyword"},
				"status_name":      map[string]interface{}{"type": "keyword"},
				"appointment_date": map[string]interface{}{"type": "date"},
				"hour":             map[string]interface{}{"type": "keyword"},
				"duration_minutes": map[string]interface{}{"type": "integer"},
				"ticket_number":    map[string]interface{}{"type": "keyword"},
				"reason":           map[string]interface{}{"type": "text"},
				"notes":            map[string]interface{}{"type": "text"},
				"created_at":       map[string]interface{}{"type": "date"},
				"updated_at":       map[string]interface{}{"type": "date"},
				"patient_name": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
					},
				},
				"therapist_name": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
					},
				},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling appointments mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateAppointmentsIndexIfNotExists creates the appointments index with the
// defined mapping if it does not already exist. A nil client is a no-op.
func CreateAppointmentsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	if client == nil {
		return nil
	}

	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{AppointmentsIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if appointments index exists", zap.Error(err))
		return fmt.Errorf("error checking if appointments index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Appointments index already exists", zap.String("index_name", AppointmentsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Error checking if appointments index exists, unexpected status",
			zap.String("status", res.Status()),
			zap.String("index_name", AppointmentsIndexName),
		)
		return fmt.Errorf("error checking if appointments index exists: status %s", res.Status())
	}

	mappingJSON, err := defineAppointmentsMapping()
	if err != nil {
		log.Error("Failed to define appointments mapping", zap.Error(err))
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: AppointmentsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating appointments index", zap.Error(err), zap.String("index_name", AppointmentsIndexName))
		return fmt.Errorf("error creating appointments index %s: %w", AppointmentsIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err != nil {
			log.Error("Failed to parse appointments index creation error response body",
				zap.Error(err), zap.String("status", createRes.Status()))
		} else {
			log.Error("Failed to create appointments index",
				zap.String("status", createRes.Status()),
				zap.Any("error_details", errorBody),
				zap.String("index_name", AppointmentsIndexName),
			)
		}
		return fmt.Errorf("failed to create appointments index %s: status %s", AppointmentsIndexName, createRes.Status())
	}

	log.Info("Appointments index created successfully", zap.String("index_name", AppointmentsIndexName))
	return nil
}
