package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// FindByDocumentID returns the document's chunks in their original order.
func (r *ChunkRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

// FindByDocumentIDs returns chunks for a set of documents, ordered per
// document, used by quiz generation.
func (r *ChunkRepository) FindByDocumentIDs(ctx context.Context, documentIDs []uuid.UUID) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id IN ?", documentIDs).
		Order("document_id, chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&model.Chunk{}).Error
}

func (r *ChunkRepository) DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&model.Chunk{}).Error
}

func (r *ChunkRepository) WithTx(tx *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: tx}
}
