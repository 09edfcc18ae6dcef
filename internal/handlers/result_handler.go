package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
)

type ResultHandler struct {
	analysisRepo repositories.AnalysisRepository
	log          *zap.Logger
}

func NewResultHandler(analysisRepo repositories.AnalysisRepository, log *zap.Logger) *ResultHandler {
	return &ResultHandler{
		analysisRepo: analysisRepo,
		log:          log,
	}
}

func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	analysisID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
		})
	}

	analysis, err := h.analysisRepo.FindByID(analysisID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Analysis not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analysis",
		})
	}

	response := models.ResultResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	}

	if analysis.Status == models.StatusCompleted {
		data := &models.AnalysisData{
			AtsScore:           analysis.AtsScore,
			AtsMatchPercentage: analysis.AtsMatchPercentage,
			ParsedDataSource:   analysis.ParsedDataSource,
			AtsSource:          analysis.AtsSource,
		}
		if analysis.ParsedData != nil {
			var profile models.CandidateProfile
			if err := json.Unmarshal([]byte(*analysis.ParsedData), &profile); err != nil {
				h.log.Warn("⚠️ Stored parsed data is not valid JSON", zap.String("analysis_id", analysis.ID.String()), zap.Error(err))
			} else {
				data.ParsedData = &profile
			}
		}
		if analysis.AtsRawJSON != nil {
			var assessment models.AtsAssessment
			if err := json.Unmarshal([]byte(*analysis.AtsRawJSON), &assessment); err != nil {
				h.log.Warn("⚠️ Stored ATS result is not valid JSON", zap.String("analysis_id", analysis.ID.String()), zap.Error(err))
			} else {
				data.AtsRawJSON = &assessment
			}
		}
		response.Result = data
	}

	if analysis.Status == models.StatusFailed && analysis.ErrorMessage != nil {
		response.ErrorMessage = analysis.ErrorMessage
	}

	return c.JSON(response)
}
