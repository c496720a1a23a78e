package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/inkgen/internal/models"
)

type generateResponse struct {
	RequestID        string   `json:"requestId"`
	Images           []string `json:"images"`
	Image            string   `json:"image"`
	Mode             string   `json:"mode"`
	Cost             int      `json:"cost"`
	RemainingCredits *int     `json:"remainingCredits,omitempty"`
}

type tryOnResponse struct {
	RequestID        string `json:"requestId"`
	Image            string `json:"image"`
	RemainingCredits *int   `json:"remainingCredits,omitempty"`
}

func newGenerateResponse(result models.GenerationResult) generateResponse {
	return generateResponse{
		RequestID:        result.RequestID,
		Images:           result.Images,
		Image:            result.Images[0],
		Mode:             result.Operation,
		Cost:             result.Cost,
		RemainingCredits: result.RemainingCredits,
	}
}

func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req models.GenerateRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	prompt := req.PromptText
	if strings.TrimSpace(prompt) == "" {
		prompt = req.Prompt
	}

	result, err := s.deps.Workflow.Generate(c.UserContext(), currentUser(c).ID, prompt, req.Mode)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(newGenerateResponse(result))
}

func (s *Server) handleTryOn(c *fiber.Ctx) error {
	var req models.TryOnRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	result, err := s.deps.Workflow.TryOn(c.UserContext(), currentUser(c).ID, req.BodyImage, req.TattooImage)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(tryOnResponse{
		RequestID:        result.RequestID,
		Image:            result.Images[0],
		RemainingCredits: result.RemainingCredits,
	})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	reply, err := s.deps.Chat.Reply(c.UserContext(), req.Message)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"reply": reply})
}
