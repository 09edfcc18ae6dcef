package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-ats/internal/services"
)

type StatusHandler struct {
	gemini services.GeminiService
}

func NewStatusHandler(gemini services.GeminiService) *StatusHandler {
	return &StatusHandler{gemini: gemini}
}

// HandleStatus handles GET /parser/status.
func (h *StatusHandler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.gemini.Status())
}
