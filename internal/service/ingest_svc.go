package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/chunker"
	"github.com/tgo/sage/internal/extract"
	"github.com/tgo/sage/internal/model"
	"github.com/tgo/sage/internal/vectorstore"
)

// ChunkIndex is the vector index surface the services need. Implemented
// by *vectorstore.Store.
type ChunkIndex interface {
	Add(ctx context.Context, chunks []model.Chunk) error
	Search(ctx context.Context, query string, k int, filter vectorstore.Filter) ([]vectorstore.Result, error)
	DeleteTx(tx *gorm.DB, filter vectorstore.Filter) error
}

type documentStatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, errorMsg string) error
}

// IngestService drives extraction, chunking and indexing for one uploaded
// document. It runs in the background after the upload request has already
// returned, so it never reports errors to a caller: every outcome lands in
// the document's status.
type IngestService struct {
	index    ChunkIndex
	docs     documentStatusStore
	splitter *chunker.Splitter
	logger   *slog.Logger
}

func NewIngestService(index ChunkIndex, docs documentStatusStore) *IngestService {
	return &IngestService{
		index:    index,
		docs:     docs,
		splitter: chunker.New(chunker.DefaultChunkSize, chunker.DefaultOverlap),
		logger:   slog.Default().With("component", "ingest"),
	}
}

// Ingest processes the uploaded file at filePath. The temp file is always
// removed afterwards; a cleanup failure is logged and never masks the
// ingestion outcome. A document that reaches a terminal state is never
// retried; refreshing it requires a new upload.
func (s *IngestService) Ingest(ctx context.Context, filePath string, documentID, projectID uuid.UUID, mimeType string) {
	defer func() {
		if err := os.Remove(filePath); err != nil {
			s.logger.Error("failed to remove temp file", "path", filePath, "error", err)
		}
	}()

	if err := s.process(ctx, filePath, documentID, projectID, mimeType); err != nil {
		s.logger.Error("ingestion failed", "document_id", documentID, "error", err)
		if uerr := s.docs.UpdateStatus(ctx, documentID, model.DocumentStatusFailed, err.Error()); uerr != nil {
			s.logger.Error("failed to mark document failed", "document_id", documentID, "error", uerr)
		}
		return
	}

	if err := s.docs.UpdateStatus(ctx, documentID, model.DocumentStatusCompleted, ""); err != nil {
		s.logger.Error("failed to mark document completed", "document_id", documentID, "error", err)
		return
	}
	s.logger.Info("document processed", "document_id", documentID)
}

func (s *IngestService) process(ctx context.Context, filePath string, documentID, projectID uuid.UUID, mimeType string) error {
	text, err := extract.Text(filePath, mimeType)
	if err != nil {
		return err
	}

	segments := s.splitter.Split(text)
	chunks := make([]model.Chunk, len(segments))
	for i, segment := range segments {
		chunks[i] = model.Chunk{
			DocumentID: documentID,
			ProjectID:  projectID,
			ChunkIndex: i,
			Content:    segment,
			Metadata: model.JSONMap{
				"documentId": documentID.String(),
				"projectId":  projectID.String(),
			},
		}
	}

	return s.index.Add(ctx, chunks)
}
