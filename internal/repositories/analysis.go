package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-ats/internal/models"
)

var ErrNotFound = errors.New("record not found")

type AnalysisRepository interface {
	Create(analysis *models.ResumeAnalysis) error
	FindByID(id uuid.UUID) (*models.ResumeAnalysis, error)
	ClaimQueued(id uuid.UUID) (bool, error)
	UpdateResult(id uuid.UUID, result *AnalysisUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.ResumeAnalysis, error)
}

// AnalysisUpdateData is what a completed parse writes back. ParsedData and
// AtsRawJSON are stored as jsonb.
type AnalysisUpdateData struct {
	ParsedData         *models.CandidateProfile
	AtsScore           *float64
	AtsMatchPercentage *float64
	AtsRawJSON         *models.AtsAssessment
	ParsedDataSource   string
	AtsSource          string
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.ResumeAnalysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.ResumeAnalysis, error) {
	var analysis models.ResumeAnalysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// ClaimQueued moves a queued analysis to processing. It reports false when the
// row is missing or another worker already claimed it.
func (r *analysisRepository) ClaimQueued(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.ResumeAnalysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *analysisRepository) UpdateResult(id uuid.UUID, data *AnalysisUpdateData) error {
	updates := map[string]interface{}{
		"status":             models.StatusCompleted,
		"parsed_data_source": data.ParsedDataSource,
		"ats_source":         data.AtsSource,
		"updated_at":         time.Now(),
	}

	if data.ParsedData != nil {
		encoded, err := json.Marshal(data.ParsedData)
		if err != nil {
			return fmt.Errorf("failed to encode parsed data: %w", err)
		}
		updates["parsed_data"] = string(encoded)
	}
	if data.AtsRawJSON != nil {
		encoded, err := json.Marshal(data.AtsRawJSON)
		if err != nil {
			return fmt.Errorf("failed to encode ats result: %w", err)
		}
		updates["ats_raw_json"] = string(encoded)
	}
	if data.AtsScore != nil {
		updates["ats_score"] = *data.AtsScore
	}
	if data.AtsMatchPercentage != nil {
		updates["ats_match_percentage"] = *data.AtsMatchPercentage
	}

	return r.update(id, updates, "result")
}

func (r *analysisRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	}, "error")
}

func (r *analysisRepository) update(id uuid.UUID, updates map[string]interface{}, what string) error {
	result := r.db.Model(&models.ResumeAnalysis{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", what, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis not found: %w", ErrNotFound)
	}

	return nil
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.ResumeAnalysis, error) {
	var analyses []models.ResumeAnalysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}
