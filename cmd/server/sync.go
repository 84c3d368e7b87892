// File: cmd/server/sync.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clinic_backend/internal/appointment"
	"clinic_backend/internal/appointment/esutil"
	"clinic_backend/internal/config"
	"clinic_backend/internal/platform/database"
	platformElasticsearch "clinic_backend/internal/platform/elasticsearch"
	"clinic_backend/internal/platform/logger"
)

func newSyncAppointmentsCmd() *cobra.Command {
	var batchSize int
	var esRefresh string

	cmd := &cobra.Command{
		Use:   "sync-appointments",
		Short: "Bulk (re)index all appointments into Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppointmentSync(batchSize, esRefresh)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "number of appointments fetched per batch")
	cmd.Flags().StringVar(&esRefresh, "es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")
	return cmd
}

func runAppointmentSync(batchSize int, esRefresh string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer database.CloseGORMDB(db)

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize Elasticsearch client", zap.Error(err))
		return err
	}
	if esClient == nil {
		return fmt.Errorf("ELASTICSEARCH_URL is not set, there is nothing to sync to")
	}
	if err := platformElasticsearch.CreateAppointmentsIndexIfNotExists(esClient, appLogger); err != nil {
		appLogger.Error("Failed to create/verify Elasticsearch index before sync", zap.Error(err))
		return err
	}

	repo := appointment.NewGORMRepository(db)
	return syncAppointments(context.Background(), repo, esClient, appLogger, batchSize, esRefresh)
}

// syncAppointments pages through all appointments and bulk-indexes each
// batch. Conversion and item-level indexing failures are logged and
// counted but do not stop the run; a non-zero failure count makes the
// command exit non-zero so operators notice.
func syncAppointments(
	ctx context.Context,
	repo appointment.Repository,
	esClient *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	batchSize int,
	esRefresh string,
) error {
	logger.Info("Starting appointment synchronization to Elasticsearch",
		zap.Int("batch_size", batchSize),
		zap.String("refresh_policy", esRefresh),
	)

	offset := 0
	totalSynced := 0
	totalFailed := 0

	for batch := 1; ; batch++ {
		appointments, err := repo.FindAllForSync(ctx, offset, batchSize)
		if err != nil {
			logger.Error("Failed to fetch batch of appointments", zap.Error(err), zap.Int("batch", batch))
			return fmt.Errorf("failed to fetch batch %d: %w", batch, err)
		}
		if len(appointments) == 0 {
			break
		}

		synced, failed := indexAppointmentBatch(ctx, esClient, logger, appointments, esRefresh, batch)
		totalSynced += synced
		totalFailed += failed
		logger.Info("Batch processed",
			zap.Int("batch", batch),
			zap.Int("synced_in_batch", synced),
			zap.Int("failed_in_batch", failed),
		)

		offset += len(appointments)
	}

	logger.Info("Appointment synchronization finished",
		zap.Int("total_synced", totalSynced),
		zap.Int("total_failed", totalFailed),
	)
	if totalFailed > 0 {
		return fmt.Errorf("%d appointments failed to index", totalFailed)
	}
	return nil
}

func indexAppointmentBatch(
	ctx context.Context,
	esClient *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	appointments []appointment.Appointment,
	esRefresh string,
	batch int,
) (synced, failed int) {
	var body strings.Builder
	ids := make([]string, 0, len(appointments))

	for i := range appointments {
		a := &appointments[i]
		docJSON, err := esutil.AppointmentToElasticsearchDoc(a)
		if err != nil {
			logger.Error("Failed to convert appointment to Elasticsearch document",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}
		fmt.Fprintf(&body, "{ \"index\" : { \"_index\" : %q, \"_id\" : %q } }\n", platformElasticsearch.AppointmentsIndexName, a.ID.String())
		body.WriteString(docJSON)
		body.WriteString("\n")
		ids = append(ids, a.ID.String())
	}
	if body.Len() == 0 {
		return synced, failed
	}

	req := esapi.BulkRequest{
		Body:    strings.NewReader(body.String()),
		Refresh: esRefresh,
	}
	res, err := req.Do(ctx, esClient.Client)
	if err != nil {
		logger.Error("Failed to send bulk request to Elasticsearch", zap.Error(err), zap.Int("batch", batch))
		return synced, failed + len(ids)
	}
	defer res.Body.Close()

	// A bulk call can succeed overall while individual items fail, so the
	// item list is always inspected.
	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		logger.Error("Failed to parse Elasticsearch bulk response", zap.Error(err), zap.Int("batch", batch))
		return synced, failed + len(ids)
	}
	if res.IsError() && len(bulkResponse.Items) == 0 {
		logger.Error("Elasticsearch bulk request returned an error",
			zap.String("status", res.Status()),
			zap.Int("batch", batch),
		)
		return synced, failed + len(ids)
	}

	for _, item := range bulkResponse.Items {
		if item.Index.Error != nil {
			logger.Error("Failed to index appointment document",
				zap.String("appointment_id", item.Index.ID),
				zap.Int("status", item.Index.Status),
				zap.Any("error", item.Index.Error),
			)
			failed++
		} else {
			synced++
		}
	}
	return synced, failed
}
