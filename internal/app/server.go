// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"clinic_backend/internal/appointment"
	"clinic_backend/internal/auth"
	"clinic_backend/internal/config"
	"clinic_backend/internal/history"
	"clinic_backend/internal/jobs"
	"clinic_backend/internal/middleware"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/rbac"
	"clinic_backend/internal/shared"
	"clinic_backend/internal/status"
	"clinic_backend/internal/therapist"
	"clinic_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	authHandler        *auth.Handler
	userHandler        *user.Handler
	rbacHandler        *rbac.Handler
	patientHandler     *patient.Handler
	therapistHandler   *therapist.Handler
	statusHandler      *status.Handler
	appointmentHandler *appointment.Handler
	historyHandler     *history.Handler

	// Jobs
	appointmentSweepJob *jobs.AppointmentSweepJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	tokenService shared.TokenService,
	tokenBlocklist shared.TokenBlocklist,
	rbacService rbac.Service,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	rbacHandler *rbac.Handler,
	patientHandler *patient.Handler,
	therapistHandler *therapist.Handler,
	statusHandler *status.Handler,
	appointmentHandler *appointment.Handler,
	historyHandler *history.Handler,
	appointmentSweepJob *jobs.AppointmentSweepJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Metrics())

	// Create middleware instances
	authMW := middleware.AuthMiddleware(tokenService, tokenBlocklist, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RequireRoles(logger.Named("RoleGuard"), rbac.RoleAdmin)
	permMW := middleware.RequirePermission(rbacService, logger.Named("PermissionGuard"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Clinic API is healthy!"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
	}

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1, authMW)
	userHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	rbacHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	statusHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	patientHandler.RegisterRoutes(v1, authMW, permMW)
	therapistHandler.RegisterRoutes(v1, authMW, permMW)
	appointmentHandler.RegisterRoutes(v1, authMW, permMW)
	historyHandler.RegisterRoutes(v1, authMW, permMW, adminRoleMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
		IdleTimeout:  2 * cfg.ServerTimeout,
	}

	return &Server{
		httpServer:          httpServer,
		router:              router,
		cfg:                 cfg,
		logger:              logger,
		authHandler:         authHandler,
		userHandler:         userHandler,
		rbacHandler:         rbacHandler,
		patientHandler:      patientHandler,
		therapistHandler:    therapistHandler,
		statusHandler:       statusHandler,
		appointmentHandler:  appointmentHandler,
		historyHandler:      historyHandler,
		appointmentSweepJob: appointmentSweepJob,
	}, nil
}

// Router exposes the underlying gin engine, primarily for tests that
// drive the full HTTP stack without binding a listener.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.appointmentSweepJob != nil {
		if err := s.appointmentSweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start appointment sweep job", zap.Error(err))
		}
	} else {
		s.logger.Info("Appointment sweep job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.appointmentSweepJob != nil {
		s.appointmentSweepJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
