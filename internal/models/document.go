package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded resume stored on local disk.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	Extension        string    `gorm:"type:text" json:"extension"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	Size             int64     `json:"size"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
