// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"clinic_backend/internal/app"
	"clinic_backend/internal/appointment"
	"clinic_backend/internal/appointment/esutil"
	"clinic_backend/internal/auth"
	"clinic_backend/internal/config"
	"clinic_backend/internal/history"
	"clinic_backend/internal/jobs"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/rbac"
	"clinic_backend/internal/status"
	"clinic_backend/internal/therapist"
	"clinic_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform layer
		provideLogger,
		provideDatabase,
		provideRedis,
		provideElasticsearch,

		// Auth primitives
		auth.NewJWTService,
		auth.NewTokenBlocklist,

		// Accounts and RBAC
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(auth.UserProvider), new(user.Service)),
		user.NewHandler,
		rbac.NewGORMRepository,
		rbac.NewService,
		rbac.NewHandler,
		auth.NewService,
		auth.NewHandler,

		// Clinic domain
		patient.NewGORMRepository,
		patient.NewService,
		patient.NewHandler,
		therapist.NewGORMRepository,
		therapist.NewService,
		therapist.NewHandler,
		status.NewGORMRepository,
		status.NewService,
		status.NewHandler,
		appointment.NewGORMRepository,
		esutil.NewIndexer,
		appointment.NewService,
		appointment.NewHandler,
		history.NewGORMRepository,
		history.NewService,
		history.NewHandler,

		// Jobs
		jobs.NewAppointmentSweepJob,

		// Application layer
		app.NewServer,
	)
	return nil, nil, nil
}
