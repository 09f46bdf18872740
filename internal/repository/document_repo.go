package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// UpdateStatus moves the document to a terminal state. The error message
// is only stored for failures.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, errorMsg string) error {
	updates := map[string]interface{}{"status": status}
	if errorMsg != "" {
		updates["error_message"] = errorMsg
	}
	if status == model.DocumentStatusCompleted {
		now := time.Now()
		updates["processed_at"] = &now
	}
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *DocumentRepository) UpdateSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Update("summary", summary).Error
}

func (r *DocumentRepository) WithTx(tx *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (r *DocumentRepository) DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&model.Document{}).Error
}
