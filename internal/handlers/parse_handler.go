package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/services"
)

type ParseHandler struct {
	parser      services.ResumeParserService
	validate    *validator.Validate
	maxFileSize int64
	log         *zap.Logger
}

func NewParseHandler(parser services.ResumeParserService, maxFileSize int64, log *zap.Logger) *ParseHandler {
	return &ParseHandler{
		parser:      parser,
		validate:    validator.New(),
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// HandleParse handles POST /parse with either a multipart upload or a JSON
// base64 payload, and answers with the parse result synchronously.
func (h *ParseHandler) HandleParse(c *fiber.Ctx) error {
	input, err := h.readInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result := h.parser.ParseResume(c.UserContext(), input)
	if !result.OK {
		status := fiber.StatusUnprocessableEntity
		if result.Kind == services.FailureUnsupportedFormat {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(result)
	}

	return c.JSON(result)
}

// HandleAts handles POST /parse/ats. It accepts the same payloads as
// HandleParse and answers with the ATS assessment only.
func (h *ParseHandler) HandleAts(c *fiber.Ctx) error {
	input, err := h.readInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	outcome := h.parser.ExtractResumeAts(c.UserContext(), input)
	switch outcome.AtsStatus {
	case services.AtsStatusUnsupportedFileType:
		return c.Status(fiber.StatusBadRequest).JSON(outcome)
	case services.AtsStatusServiceError:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(outcome)
	}

	return c.JSON(outcome)
}

func (h *ParseHandler) readInput(c *fiber.Ctx) (services.ParseInput, error) {
	if isMultipart(c) {
		return h.inputFromMultipart(c)
	}
	return h.inputFromJSON(c)
}

func (h *ParseHandler) inputFromMultipart(c *fiber.Ctx) (services.ParseInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return services.ParseInput{}, errors.New("failed to parse multipart form")
	}

	file := resumeFileHeader(form)
	if file == nil {
		return services.ParseInput{}, errors.New("resume file is required")
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return services.ParseInput{}, fmt.Errorf("resume file too large. Max size: %d bytes", h.maxFileSize)
	}

	data, err := readFileHeader(file)
	if err != nil {
		h.log.Error("❌ Failed to read uploaded resume", zap.Error(err))
		return services.ParseInput{}, err
	}

	return services.ParseInput{
		Data:           data,
		Filename:       file.Filename,
		JobDescription: formJobDescription(form),
	}, nil
}

func (h *ParseHandler) inputFromJSON(c *fiber.Ctx) (services.ParseInput, error) {
	return decodeJSONResume(c, h.validate, h.maxFileSize)
}
