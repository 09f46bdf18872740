package model

import (
	"github.com/google/uuid"
)

type Project struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
