package model

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one embedded text segment of a document. document_id and
// project_id are the filter keys for scoped similarity search and for
// cascading deletes.
type Chunk struct {
	BaseModel
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	ProjectID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	ChunkIndex int             `gorm:"default:0" json:"chunk_index"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	Metadata   JSONMap         `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (Chunk) TableName() string {
	return "chunks"
}
