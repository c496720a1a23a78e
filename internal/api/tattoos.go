package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/models"
)

func (s *Server) handleListTattoos(c *fiber.Ctx) error {
	tattoos, err := s.deps.Library.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"tattoos": tattoos})
}

func (s *Server) handleSaveTattoo(c *fiber.Ctx) error {
	var req models.SaveTattooRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	tattoo, err := s.deps.Library.Save(c.UserContext(), currentUser(c).ID, req.Prompt, req.ImageURL)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tattoo)
}

func (s *Server) handleDeleteTattoo(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return s.fail(c, apperror.InvalidInput("Invalid tattoo ID"))
	}

	if err := s.deps.Library.Delete(c.UserContext(), currentUser(c).ID, int64(id)); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
