package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/access"
	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
)

// RequireRole admits the request when policy allows the current session
// into an area gated by required. An empty required role only demands an
// authenticated session.
//
// Rejections carry no message. Browsers get a 302 to the decision's target;
// API clients get 401 (no session) or 403 (wrong role) with the target in
// the body.
func RequireRole(policy *access.Policy, required clinic.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := policy.Admit(CurrentSession(c), required)
		if d.Allowed {
			return c.Next()
		}

		if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
			return c.Redirect(d.Redirect, fiber.StatusFound)
		}

		status := fiber.StatusForbidden
		if d.Redirect == access.LoginPath {
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(dto.ErrorResponse{
			Error:    true,
			Redirect: d.Redirect,
		})
	}
}
