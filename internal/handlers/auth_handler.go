package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
	local    *identity.LocalProvider
}

// NewAuthHandler takes the local provider when tokens are issued by this
// server; with an external provider it is nil and only registration is
// served.
func NewAuthHandler(accounts *services.AccountService, local *identity.LocalProvider) *AuthHandler {
	return &AuthHandler{accounts: accounts, local: local}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.accounts.Register(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err, "Failed to register")
	}

	if h.local == nil {
		return c.Status(fiber.StatusCreated).JSON(userResponse(user.UID, user.Email, user.DisplayName, user.Role))
	}

	pair, err := h.local.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err, "Failed to sign in")
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse(pair, user.Role))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	pair, err := h.local.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err, "Failed to sign in")
	}
	return c.JSON(authResponse(pair, ""))
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	pair, err := h.local.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return writeError(c, err, "Failed to refresh session")
	}
	return c.JSON(authResponse(pair, ""))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.local.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return writeError(c, err, "Failed to logout")
	}

	if token, ok := c.Locals("user").(*jwt.Token); ok {
		if sub, err := token.Claims.GetSubject(); err == nil {
			slog.Info("user logged out", "user_id", sub)
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func authResponse(pair *identity.TokenPair, role clinic.Role) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         userResponse(pair.Identity.UID, pair.Identity.Email, pair.Identity.DisplayName, role),
	}
}

func userResponse(uid, email, name string, role clinic.Role) dto.UserResponse {
	return dto.UserResponse{UID: uid, Email: email, DisplayName: name, Role: string(role)}
}
