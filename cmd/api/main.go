package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/hoosuem8800/portal-api/internal/config"
	"github.com/hoosuem8800/portal-api/internal/email"
	"github.com/hoosuem8800/portal-api/internal/handler"
	appointmentHandler "github.com/hoosuem8800/portal-api/internal/handler/appointment"
	authHandler "github.com/hoosuem8800/portal-api/internal/handler/auth"
	consultationHandler "github.com/hoosuem8800/portal-api/internal/handler/consultation"
	notificationHandler "github.com/hoosuem8800/portal-api/internal/handler/notification"
	scanHandler "github.com/hoosuem8800/portal-api/internal/handler/scan"
	userHandler "github.com/hoosuem8800/portal-api/internal/handler/user"
	"github.com/hoosuem8800/portal-api/internal/middleware"
	"github.com/hoosuem8800/portal-api/internal/mlclient"
	"github.com/hoosuem8800/portal-api/internal/repository/postgres"
	"github.com/hoosuem8800/portal-api/internal/router"
	appointmentService "github.com/hoosuem8800/portal-api/internal/service/appointment"
	authService "github.com/hoosuem8800/portal-api/internal/service/auth"
	consultationService "github.com/hoosuem8800/portal-api/internal/service/consultation"
	eventService "github.com/hoosuem8800/portal-api/internal/service/event"
	notificationService "github.com/hoosuem8800/portal-api/internal/service/notification"
	scanService "github.com/hoosuem8800/portal-api/internal/service/scan"
	userService "github.com/hoosuem8800/portal-api/internal/service/user"
	"github.com/hoosuem8800/portal-api/pkg/auth"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/metrics"
	"github.com/hoosuem8800/portal-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("portal", "api")

	userRepo := postgres.NewUserRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	consultationRepo := postgres.NewConsultationRepository(db)
	scanRepo := postgres.NewScanRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	events := eventService.NewService(outboxRepo, log)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	hasher := security.NewBcryptHasher(0)
	mailer := email.NewSender(cfg.Email)
	ml := mlclient.NewClient(cfg.ML, log)

	authSvc := authService.NewService(userRepo, jwtSvc, hasher, cfg.JWT.Expiry(), log)
	userSvc := userService.NewService(userRepo, log)
	appointmentSvc := appointmentService.NewService(appointmentRepo, events, log, m)
	consultationSvc := consultationService.NewService(consultationRepo, userRepo, events, log)
	scanSvc := scanService.NewService(
		scanRepo,
		consultationRepo,
		notificationRepo,
		userRepo,
		ml,
		appointmentSvc,
		events,
		log,
		m,
	)
	notificationSvc := notificationService.NewService(notificationRepo, userRepo, mailer, log)

	r := router.New(
		router.Config{
			RateLimit: rate.Limit(cfg.Rate.RequestsPerSecond),
			RateBurst: cfg.Rate.Burst,
			CORS:      middleware.DefaultCORSConfig(),
			Timeout:   middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
		},
		log,
		m,
		middleware.NewAuthMiddleware(jwtSvc),
		handler.NewHealthHandler(db),
		authHandler.NewHandler(authSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		consultationHandler.NewHandler(consultationSvc),
		scanHandler.NewHandler(scanSvc, cfg.Uploads.Dir),
		notificationHandler.NewHandler(notificationSvc),
		userHandler.NewHandler(userSvc),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
	log.Info("server stopped")
}
