package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/services"
)

// Field names accepted for the resume file and job description, in lookup order.
var (
	resumeFileFields     = []string{"resume", "pdf_doc", "resume_file", "resumeFile", "file"}
	jobDescriptionFields = []string{"job_description", "jobDescription", "jd"}
)

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func resumeFileHeader(form *multipart.Form) *multipart.FileHeader {
	for _, field := range resumeFileFields {
		if files, ok := form.File[field]; ok && len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func formJobDescription(form *multipart.Form) string {
	for _, field := range jobDescriptionFields {
		if values, ok := form.Value[field]; ok && len(values) > 0 {
			if v := strings.TrimSpace(values[0]); v != "" {
				return v
			}
		}
	}
	return ""
}

func readFileHeader(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}

// decodeJSONResume reads a base64 resume payload. Every error it returns is a
// client error.
func decodeJSONResume(c *fiber.Ctx, validate *validator.Validate, maxFileSize int64) (services.ParseInput, error) {
	var req models.ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return services.ParseInput{}, errors.New("Invalid request payload")
	}

	if err := validate.Struct(req); err != nil {
		return services.ParseInput{}, errors.New("resume_base64 and resume_filename are required")
	}

	data, err := services.DecodeResumePayload(req.ResumeBase64)
	if err != nil {
		return services.ParseInput{}, errors.New("resume_base64 is not valid base64")
	}
	if maxFileSize > 0 && int64(len(data)) > maxFileSize {
		return services.ParseInput{}, fmt.Errorf("resume file too large. Max size: %d bytes", maxFileSize)
	}

	jobDescription := strings.TrimSpace(req.JobDescription)
	if jobDescription == "" && req.Job != nil {
		jobDescription = services.BuildJobDescription(*req.Job)
	}

	return services.ParseInput{
		Data:           data,
		Filename:       req.ResumeFilename,
		JobDescription: jobDescription,
	}, nil
}
