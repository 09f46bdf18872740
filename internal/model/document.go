package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	BaseModel
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	FileName     string         `gorm:"size:500;not null" json:"file_name"`
	FilePath     string         `gorm:"size:1000" json:"file_path,omitempty"`
	FileType     string         `gorm:"size:100" json:"file_type"`
	Status       DocumentStatus `gorm:"size:50;default:'processing'" json:"status"`
	Summary      string         `gorm:"type:text" json:"summary,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}
