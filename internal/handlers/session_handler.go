package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/middleware"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler { return &SessionHandler{} }

// Current reports the resolved session. Anonymous callers get
// authenticated=false and a null user; an empty role means the role record
// is missing.
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	s := middleware.CurrentSession(c)
	if !s.Authenticated() {
		return c.JSON(dto.SessionResponse{})
	}
	u := userResponse(s.User.UID, s.User.Email, s.User.DisplayName, s.Role)
	return c.JSON(dto.SessionResponse{Authenticated: true, User: &u})
}
