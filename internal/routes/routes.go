package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/limbsorthopaedic/clinic-backend/internal/access"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/config"
	"github.com/limbsorthopaedic/clinic-backend/internal/handlers"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
)

// Handlers groups everything Setup mounts. Legacy is nil when the legacy
// surface is disabled.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Health      *handlers.HealthHandler
	Session     *handlers.SessionHandler
	Appointment *handlers.AppointmentHandler
	Stage       *handlers.StageHandler
	Profile     *handlers.ProfileHandler
	Dashboard   *handlers.DashboardHandler
	Doctor      *handlers.DoctorHandler
	Catalog     *handlers.CatalogHandler
	Legacy      *handlers.LegacyHandler
}

func Setup(app *fiber.App, cfg *config.Config, policy *access.Policy, authenticate fiber.Handler, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	api.Use(authenticate)

	signedIn := middleware.RequireRole(policy, "")
	doctor := middleware.RequireRole(policy, clinic.RoleDoctor)
	owner := middleware.RequireRole(policy, clinic.RoleOwner)

	v1 := api.Group("/v1")

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := v1.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	if cfg.AuthProvider == config.AuthProviderLocal {
		auth.Post("/login", h.Auth.Login)
		auth.Post("/refresh", h.Auth.Refresh)
		auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)
	}

	v1.Get("/session", h.Session.Current)
	v1.Get("/catalog", h.Catalog.Get)

	// Booking is open to guests.
	v1.Post("/appointments", h.Appointment.Book)

	me := v1.Group("/me", signedIn)
	me.Get("/appointments", h.Appointment.Mine)
	me.Get("/profile", h.Profile.Get)
	me.Put("/profile", h.Profile.Save)
	me.Get("/treatment-stages", h.Stage.Mine)

	v1.Get("/appointments", doctor, h.Appointment.List)
	v1.Patch("/appointments/:id/status", doctor, h.Appointment.UpdateStatus)

	dash := v1.Group("/dashboard", doctor)
	dash.Get("/", h.Dashboard.Overview)
	dash.Get("/patients", h.Dashboard.Patients)
	dash.Get("/patients/export", h.Dashboard.ExportPatients)
	dash.Get("/patients/:uid", h.Dashboard.Patient)

	v1.Get("/patients/:uid/treatment-stages", doctor, h.Stage.ForPatient)
	v1.Post("/patients/:uid/treatment-stages", doctor, h.Stage.Create)
	v1.Patch("/treatment-stages/:id", doctor, h.Stage.Update)
	v1.Delete("/treatment-stages/:id", doctor, h.Stage.Delete)

	doctors := v1.Group("/doctors", owner)
	doctors.Get("/", h.Doctor.List)
	doctors.Post("/", h.Doctor.Create)
	doctors.Put("/:uid", h.Doctor.Update)
	doctors.Delete("/:uid", h.Doctor.Deactivate)

	if h.Legacy != nil {
		setupLegacy(api, owner, h.Legacy)
	}
}

// setupLegacy mounts the integer-keyed surface. It carries personal data,
// so every route sits behind the owner gate. The gate is attached per route;
// a prefix-less group would also catch unmatched /api paths.
func setupLegacy(api fiber.Router, owner fiber.Handler, h *handlers.LegacyHandler) {
	api.Get("/users", owner, h.ListUsers)
	api.Post("/users", owner, h.CreateUser)
	api.Get("/users/:id", owner, h.GetUser)
	api.Get("/users/:userId/profile", owner, h.GetProfile)
	api.Put("/users/:userId/profile", owner, h.SaveProfile)
	api.Get("/users/:userId/appointments", owner, h.UserAppointments)
	api.Get("/users/:userId/treatment-stages", owner, h.UserStages)

	api.Get("/appointments", owner, h.ListAppointments)
	api.Post("/appointments", owner, h.CreateAppointment)
	api.Get("/appointments/:id", owner, h.GetAppointment)
	api.Patch("/appointments/:id/status", owner, h.UpdateAppointmentStatus)

	api.Get("/treatment-stages", owner, h.ListStages)
	api.Post("/treatment-stages", owner, h.CreateStage)
	api.Patch("/treatment-stages/:id", owner, h.UpdateStage)
}
