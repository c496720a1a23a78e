package api

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	profile, err := s.deps.Ledger.Profile(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(profile)
}

func (s *Server) handleShowcase(c *fiber.Ctx) error {
	showcase, err := s.deps.Showcase.Get(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(showcase)
}
