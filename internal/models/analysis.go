package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// ResumeAnalysis is one asynchronous parse of a stored resume, optionally
// scored against a job description.
type ResumeAnalysis struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	DocumentID         uuid.UUID      `gorm:"type:uuid;not null" json:"document_id"`
	JobDescription     string         `gorm:"type:text" json:"job_description"`
	Status             AnalysisStatus `gorm:"type:text;not null" json:"status"`
	ParsedData         *string        `gorm:"type:jsonb" json:"parsed_data,omitempty"`
	AtsScore           *float64       `gorm:"type:decimal(5,2)" json:"ats_score,omitempty"`
	AtsMatchPercentage *float64       `gorm:"type:decimal(5,2)" json:"ats_match_percentage,omitempty"`
	AtsRawJSON         *string        `gorm:"column:ats_raw_json;type:jsonb" json:"ats_raw_json,omitempty"`
	ParsedDataSource   string         `gorm:"type:text" json:"parsed_data_source,omitempty"`
	AtsSource          string         `gorm:"type:text" json:"ats_source,omitempty"`
	ErrorMessage       *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`

	Document Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (ResumeAnalysis) TableName() string {
	return "resume_analyses"
}
