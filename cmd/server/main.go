package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"google.golang.org/api/option"

	"github.com/limbsorthopaedic/clinic-backend/internal/access"
	"github.com/limbsorthopaedic/clinic-backend/internal/aggregate"
	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/config"
	"github.com/limbsorthopaedic/clinic-backend/internal/database"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/handlers"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/jobs"
	"github.com/limbsorthopaedic/clinic-backend/internal/logging"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
	"github.com/limbsorthopaedic/clinic-backend/internal/notify"
	"github.com/limbsorthopaedic/clinic-backend/internal/routes"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
	"github.com/limbsorthopaedic/clinic-backend/internal/session"
	"github.com/limbsorthopaedic/clinic-backend/internal/storage"
)

func main() {
	cfg := config.Load()
	level := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level)

	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			slog.Error("invalid configuration", "problem", p)
		}
		os.Exit(1)
	}

	ctx := context.Background()
	loc := cfg.Location()

	// Catalog
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFromFile(cfg.CatalogPath)
		if err != nil {
			slog.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
		cat = loaded
	}
	slog.Info("catalog loaded", "services", len(cat.Services()), "time_slots", len(cat.TimeSlots()))

	// Firebase
	var fbApp *firebase.App
	if cfg.AuthProvider == config.AuthProviderFirebase || cfg.DocstoreBackend == config.BackendFirestore || cfg.FCMStaffTopic != "" {
		var opts []option.ClientOption
		if cfg.FirebaseCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
		}
		var err error
		fbApp, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
		if err != nil {
			slog.Error("firebase init failed", "error", err)
			os.Exit(1)
		}
	}

	// Document store
	var store docstore.Store
	var firestoreStore *docstore.FirestoreStore
	switch cfg.DocstoreBackend {
	case config.BackendFirestore:
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			slog.Error("firestore client init failed", "error", err)
			os.Exit(1)
		}
		firestoreStore = docstore.NewFirestoreStore(client)
		store = firestoreStore
	default:
		slog.Warn("using in-memory document store, data is lost on restart")
		store = docstore.NewMemoryStore()
	}

	// Identity
	var provider identity.Provider
	var localProvider *identity.LocalProvider
	switch cfg.AuthProvider {
	case config.AuthProviderLocal:
		localProvider = identity.NewLocalProvider(store, cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
		provider = localProvider
	default:
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			slog.Error("firebase auth client init failed", "error", err)
			os.Exit(1)
		}
		provider = identity.NewFirebaseProvider(authClient)
	}

	// Database (legacy surface + ERROR+ log sink)
	var pgLogHandler *logging.PGHandler
	if cfg.UsesPostgres() {
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		pgLogHandler = logging.NewPGHandler(database.DB)
		logging.Setup(level, pgLogHandler)
	}

	var legacyStore storage.Storage
	if cfg.LegacyAPIEnabled {
		if cfg.UsesPostgres() {
			legacyStore = storage.NewGormStorage(database.DB)
		} else {
			legacyStore = storage.NewMemStorage()
		}
	}

	// Notifications
	var channels notify.Multi
	if cfg.SendGridAPIKey != "" {
		channels = append(channels, notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromEmail))
	}
	if cfg.FCMStaffTopic != "" {
		msgClient, err := fbApp.Messaging(ctx)
		if err != nil {
			slog.Error("firebase messaging client init failed", "error", err)
			os.Exit(1)
		}
		channels = append(channels, notify.NewFCM(msgClient, cfg.FCMStaffTopic))
	}
	var notifier notify.Notifier = channels
	if len(channels) == 0 {
		notifier = notify.Log{}
	}

	// Services
	agg := aggregate.New(store, cat,
		aggregate.WithLocation(loc),
		aggregate.WithConcurrency(cfg.FanoutConcurrency),
	)
	accountService := services.NewAccountService(store, provider)
	appointmentService := services.NewAppointmentService(store, cat, notifier)
	stageService := services.NewStageService(store)
	profileService := services.NewProfileService(store)
	doctorService := services.NewDoctorService(store, provider)

	// Handlers
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(accountService, localProvider),
		Health:      handlers.NewHealthHandler(store, cfg.UsesPostgres()),
		Session:     handlers.NewSessionHandler(),
		Appointment: handlers.NewAppointmentHandler(appointmentService),
		Stage:       handlers.NewStageHandler(stageService),
		Profile:     handlers.NewProfileHandler(profileService),
		Dashboard:   handlers.NewDashboardHandler(agg),
		Doctor:      handlers.NewDoctorHandler(doctorService, agg),
		Catalog:     handlers.NewCatalogHandler(cat),
	}
	if legacyStore != nil {
		h.Legacy = handlers.NewLegacyHandler(legacyStore)
	}

	// Background jobs
	scheduler := jobs.NewScheduler(loc)
	if err := scheduler.ScheduleReminders(cfg.ReminderSchedule, jobs.NewReminders(appointmentService, cat, notifier, loc)); err != nil {
		slog.Error("failed to schedule reminders", "spec", cfg.ReminderSchedule, "error", err)
		os.Exit(1)
	}
	if cfg.UsesPostgres() {
		if err := scheduler.ScheduleLogRetention(database.DB, cfg.LogRetention); err != nil {
			slog.Error("failed to schedule log retention", "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		Immutable:    true,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	authenticate := middleware.Authenticate(provider, session.NewResolver(store))
	routes.Setup(app, cfg, access.DefaultPolicy(), authenticate, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "auth", cfg.AuthProvider, "docstore", cfg.DocstoreBackend)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	scheduler.Stop()

	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if firestoreStore != nil {
		if err := firestoreStore.Close(); err != nil {
			slog.Error("firestore close error", "error", err)
		}
	}
	if cfg.UsesPostgres() {
		if err := database.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
