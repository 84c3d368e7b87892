// File: internal/jobs/appointment_sweep_test.go
package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_backend/internal/appointment"
	"clinic_backend/internal/config"
)

// sweepServiceStub implements only the method the job touches; the
// embedded interface covers the rest.
type sweepServiceStub struct {
	appointment.Service
	calls       int
	hasDeadline bool
	count       int64
	err         error
}

func (s *sweepServiceStub) SweepOverduePending(ctx context.Context) (int64, error) {
	s.calls++
	_, s.hasDeadline = ctx.Deadline()
	return s.count, s.err
}

func TestAppointmentSweepJob_RunInvokesServiceWithDeadline(t *testing.T) {
	stub := &sweepServiceStub{count: 4}
	job := NewAppointmentSweepJob(stub, zap.NewNop(), &config.Config{})

	job.runJob()

	assert.Equal(t, 1, stub.calls)
	assert.True(t, stub.hasDeadline, "sweep runs should carry a timeout")
}

func TestAppointmentSweepJob_RunSurvivesServiceError(t *testing.T) {
	stub := &sweepServiceStub{err: assert.AnError}
	job := NewAppointmentSweepJob(stub, zap.NewNop(), &config.Config{})

	// A failed run is logged, not fatal; the next tick should still fire.
	job.runJob()
	job.runJob()

	assert.Equal(t, 2, stub.calls)
}

func TestAppointmentSweepJob_DisabledWithoutSchedule(t *testing.T) {
	job := NewAppointmentSweepJob(&sweepServiceStub{}, zap.NewNop(), &config.Config{})

	require.NoError(t, job.SetupAndStart())
	assert.Empty(t, job.cronScheduler.Entries())
	job.Stop()
}

func TestAppointmentSweepJob_RejectsMalformedSchedule(t *testing.T) {
	cfg := &config.Config{AppointmentSweepJobSchedule: "every other tuesday"}
	job := NewAppointmentSweepJob(&sweepServiceStub{}, zap.NewNop(), cfg)

	require.Error(t, job.SetupAndStart())
}

func TestAppointmentSweepJob_SchedulesWithValidSpec(t *testing.T) {
	cfg := &config.Config{AppointmentSweepJobSchedule: "0 2 * * *"}
	job := NewAppointmentSweepJob(&sweepServiceStub{}, zap.NewNop(), cfg)

	require.NoError(t, job.SetupAndStart())
	assert.Len(t, job.cronScheduler.Entries(), 1)
	job.Stop()
}
