// File: internal/jobs/appointment_sweep.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"clinic_backend/internal/appointment"
	"clinic_backend/internal/config"
)

// AppointmentSweepJob closes out appointments that stayed pending past
// their date. It runs on the schedule from APPOINTMENT_SWEEP_JOB_SCHEDULE.
type AppointmentSweepJob struct {
	appointmentService appointment.Service
	logger             *zap.Logger
	cfg                *config.Config
	cronScheduler      *cron.Cron
}

// NewAppointmentSweepJob creates a new AppointmentSweepJob.
func NewAppointmentSweepJob(
	appointmentService appointment.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *AppointmentSweepJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &AppointmentSweepJob{
		appointmentService: appointmentService,
		logger:             logger.Named("AppointmentSweepJob"),
		cfg:                cfg,
		cronScheduler:      scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *AppointmentSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.AppointmentSweepJobSchedule // e.g. "@daily", "0 2 * * *"
	if jobSpec == "" {
		j.logger.Warn("Appointment sweep schedule not defined (APPOINTMENT_SWEEP_JOB_SCHEDULE). Job will not run.")
		return nil // Not a fatal error, just won't run
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule appointment sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Appointment sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *AppointmentSweepJob) runJob() {
	j.logger.Info("Starting appointment sweep run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sweptCount, err := j.appointmentService.SweepOverduePending(ctx)
	if err != nil {
		j.logger.Error("Appointment sweep run failed", zap.Error(err))
	} else {
		j.logger.Info("Appointment sweep run completed", zap.Int64("appointments_completed", sweptCount))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *AppointmentSweepJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping appointment sweep scheduler...")
		stopCtx := j.cronScheduler.Stop() // Done once in-flight runs finish
		select {
		case <-stopCtx.Done():
			j.logger.Info("Appointment sweep scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Appointment sweep scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
