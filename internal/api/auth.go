package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/models"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	token, err := s.deps.Auth.SignIn(req.Email, req.Password)
	if err != nil {
		slog.Warn("Authentication failed", "email", req.Email, "error", err)
		return s.fail(c, apperror.Unauthenticated("invalid credentials"))
	}

	return c.JSON(models.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
	})
}
