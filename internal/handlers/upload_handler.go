package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
	"alfredoptarigan/resume-ats/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	analysisRepo   repositories.AnalysisRepository
	storageService services.StorageService
	worker         services.Worker
	validate       *validator.Validate
	maxFileSize    int64
	log            *zap.Logger
}

// storedResume is an upload already written to storage.
type storedResume struct {
	filename       string
	filePath       string
	originalName   string
	size           int64
	jobDescription string
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	analysisRepo repositories.AnalysisRepository,
	storageService services.StorageService,
	worker services.Worker,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		analysisRepo:   analysisRepo,
		storageService: storageService,
		worker:         worker,
		validate:       validator.New(),
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleUpload handles POST /upload: the resume is stored and queued for
// asynchronous analysis. It takes a multipart upload or the same JSON base64
// payload as /parse.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	var (
		stored storedResume
		err    error
	)
	if isMultipart(c) {
		stored, err = h.storeMultipart(c)
	} else {
		stored, err = h.storeJSON(c)
	}
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}
		if errors.Is(err, services.ErrUnsupportedFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Only PDF and DOCX resumes are supported.",
			})
		}
		h.log.Error("❌ Failed to save resume", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume file: %v", err),
		})
	}

	now := time.Now()
	doc := models.Document{
		ID:               uuid.New(),
		Filename:         stored.filename,
		OriginalFileName: stored.originalName,
		Extension:        services.ResumeExtension(stored.originalName),
		FilePath:         stored.filePath,
		Size:             stored.size,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.docRepo.Create(&doc); err != nil {
		// Cleanup uploaded file if database insert fails
		if delErr := h.storageService.DeleteFile(stored.filename); delErr != nil {
			h.log.Warn("⚠️ Failed to clean up resume file", zap.String("filename", stored.filename), zap.Error(delErr))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save resume document record",
		})
	}

	analysis := &models.ResumeAnalysis{
		ID:             uuid.New(),
		DocumentID:     doc.ID,
		JobDescription: stored.jobDescription,
		Status:         models.StatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.analysisRepo.Create(analysis); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create analysis job",
		})
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.UploadResponse{
		ID:           analysis.ID.String(),
		DocumentID:   doc.ID.String(),
		Filename:     doc.Filename,
		OriginalName: doc.OriginalFileName,
		Status:       string(models.StatusQueued),
	})
}

func (h *UploadHandler) storeMultipart(c *fiber.Ctx) (storedResume, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return storedResume{}, fiber.NewError(fiber.StatusBadRequest, "failed to parse multipart form")
	}

	file := resumeFileHeader(form)
	if file == nil {
		return storedResume{}, fiber.NewError(fiber.StatusBadRequest, "No resume uploaded. Please upload 'resume' as a PDF or DOCX file.")
	}
	if file.Size > h.maxFileSize {
		return storedResume{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize))
	}

	filename, filePath, err := h.storageService.SaveFile(file)
	if err != nil {
		return storedResume{}, err
	}

	return storedResume{
		filename:       filename,
		filePath:       filePath,
		originalName:   file.Filename,
		size:           file.Size,
		jobDescription: formJobDescription(form),
	}, nil
}

func (h *UploadHandler) storeJSON(c *fiber.Ctx) (storedResume, error) {
	input, err := decodeJSONResume(c, h.validate, h.maxFileSize)
	if err != nil {
		return storedResume{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	filename, filePath, err := h.storageService.SaveBytes(input.Data, input.Filename)
	if err != nil {
		return storedResume{}, err
	}

	return storedResume{
		filename:       filename,
		filePath:       filePath,
		originalName:   input.Filename,
		size:           int64(len(input.Data)),
		jobDescription: input.JobDescription,
	}, nil
}
