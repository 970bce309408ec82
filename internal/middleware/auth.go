package middleware

import (
	"log/slog"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/limbsorthopaedic/clinic-backend/internal/config"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/session"
)

const sessionKey = "session"

// Authenticate resolves the bearer token, if any, into a session stored on
// the request. Missing or invalid tokens yield the anonymous session; the
// role gates decide what that means for each route.
func Authenticate(provider identity.Provider, resolver *session.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := session.Anonymous()
		if raw := bearerToken(c); raw != "" {
			id, err := provider.VerifyToken(c.UserContext(), raw)
			if err != nil {
				slog.Debug("bearer token rejected", "path", c.Path(), "error", err)
			} else {
				s = resolver.Resolve(c.UserContext(), id)
			}
		}

		if s.Authenticated() {
			if hub := sentryfiber.GetHubFromContext(c); hub != nil {
				hub.Scope().SetUser(sentry.User{ID: s.UID(), Email: s.User.Email})
			}
		}

		c.Locals(sessionKey, s)
		return c.Next()
	}
}

// CurrentSession returns the session Authenticate stored, or anonymous.
func CurrentSession(c *fiber.Ctx) session.Session {
	if s, ok := c.Locals(sessionKey).(session.Session); ok {
		return s
	}
	return session.Anonymous()
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// JWTProtected verifies locally issued HS256 access tokens. Used only for
// endpoints that exist when AUTH_PROVIDER=local.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}
