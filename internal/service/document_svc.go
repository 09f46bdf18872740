package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/model"
	"github.com/tgo/sage/internal/pkg/errs"
	"github.com/tgo/sage/internal/repository"
	"github.com/tgo/sage/internal/task"
	"github.com/tgo/sage/internal/vectorstore"
)

const summaryJoinSeparator = "\n---\n"

type DocumentService struct {
	db        *gorm.DB
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	guard     *OwnershipGuard
	generator TextGenerator
	index     ChunkIndex
	ingest    *IngestService
	runner    *task.Runner
	stepDelay time.Duration
	logger    *slog.Logger
}

func NewDocumentService(
	db *gorm.DB,
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	guard *OwnershipGuard,
	generator TextGenerator,
	index ChunkIndex,
	ingest *IngestService,
	runner *task.Runner,
	stepDelay time.Duration,
) *DocumentService {
	return &DocumentService{
		db:        db,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		guard:     guard,
		generator: generator,
		index:     index,
		ingest:    ingest,
		runner:    runner,
		stepDelay: stepDelay,
		logger:    slog.Default().With("component", "document_svc"),
	}
}

// Create records the uploaded document in `processing` state and hands the
// slow work to the background runner. The caller gets the row back
// immediately; clients poll its status.
func (s *DocumentService) Create(ctx context.Context, projectID, userID uuid.UUID, fileName, filePath, mimeType string) (*model.Document, error) {
	if _, err := s.guard.Require(ctx, projectID, userID); err != nil {
		return nil, err
	}

	doc := &model.Document{
		ProjectID: projectID,
		FileName:  fileName,
		FilePath:  filePath,
		FileType:  mimeType,
		Status:    model.DocumentStatusProcessing,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	err := s.runner.Submit("ingest:"+doc.ID.String(), func(taskCtx context.Context) {
		s.ingest.Ingest(taskCtx, filePath, doc.ID, projectID, mimeType)
	})
	if err != nil {
		// The row exists but nothing will process it; reflect that in
		// its status instead of failing the upload.
		s.logger.Error("failed to submit ingestion", "document_id", doc.ID, "error", err)
		if uerr := s.docRepo.UpdateStatus(ctx, doc.ID, model.DocumentStatusFailed, err.Error()); uerr != nil {
			s.logger.Error("failed to mark document failed", "document_id", doc.ID, "error", uerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			s.logger.Error("failed to remove temp file", "path", filePath, "error", rerr)
		}
		doc.Status = model.DocumentStatusFailed
		doc.ErrorMessage = err.Error()
	}

	return doc, nil
}

// Get returns the document after walking the ownership chain.
func (s *DocumentService) Get(ctx context.Context, documentID, userID uuid.UUID) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("document not found")
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, doc.ProjectID, userID); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetSummary produces a map-reduce summary of the document's chunks. A
// cached summary on the document row short-circuits before any model
// call.
func (s *DocumentService) GetSummary(ctx context.Context, documentID, userID uuid.UUID) (string, error) {
	doc, err := s.Get(ctx, documentID, userID)
	if err != nil {
		return "", err
	}

	if doc.Summary != "" {
		return doc.Summary, nil
	}

	chunks, err := s.chunkRepo.FindByDocumentID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", errs.NotFound("no content found for this document to summarize")
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	summary, err := s.mapReduce(ctx, contents)
	if err != nil {
		return "", err
	}

	// Persist for reuse; a cache write failure only costs the next
	// caller another round of model calls.
	if err := s.docRepo.UpdateSummary(ctx, documentID, summary); err != nil {
		s.logger.Error("failed to cache summary", "document_id", documentID, "error", err)
	}

	return summary, nil
}

// mapReduce summarizes each passage sequentially (map), then synthesizes
// one overview from the partial summaries (reduce). The map step runs one
// call at a time with a fixed delay to stay under provider rate limits; a
// failed passage becomes a placeholder and never aborts the whole run.
func (s *DocumentService) mapReduce(ctx context.Context, contents []string) (string, error) {
	partials := make([]string, 0, len(contents))
	for i, content := range contents {
		prompt := strings.ReplaceAll(chunkSummaryPrompt, "{document_text}", content)
		partial, err := s.generator.Invoke(ctx, prompt)
		if err != nil {
			s.logger.Error("failed to summarize passage", "index", i+1, "error", err)
			partial = fmt.Sprintf("[failed to summarize passage %d]", i+1)
		}
		partials = append(partials, partial)

		if i < len(contents)-1 && s.stepDelay > 0 {
			time.Sleep(s.stepDelay)
		}
	}

	prompt := strings.ReplaceAll(reduceSummaryPrompt, "{document_text}", strings.Join(partials, summaryJoinSeparator))
	summary, err := s.generator.Invoke(ctx, prompt)
	if err != nil {
		if errs.IsRateLimit(err) {
			return "", err
		}
		return "", fmt.Errorf("failed to synthesize summary: %w", err)
	}
	return summary, nil
}

// Delete removes the document and all of its chunks in one transaction,
// then removes the backing file. A file removal failure after commit is
// logged, never reported.
func (s *DocumentService) Delete(ctx context.Context, documentID, userID uuid.UUID) (*model.Document, error) {
	var deleted *model.Document

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.docRepo.WithTx(tx).FindByID(ctx, documentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("document not found")
		}
		if err != nil {
			return err
		}

		if _, err := s.guard.RequireTx(ctx, tx, doc.ProjectID, userID); err != nil {
			return err
		}

		if err := s.index.DeleteTx(tx, vectorstore.Filter{DocumentID: documentID}); err != nil {
			return err
		}
		if err := s.docRepo.WithTx(tx).Delete(ctx, documentID); err != nil {
			return err
		}

		deleted = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	if deleted.FilePath != "" {
		if err := os.Remove(deleted.FilePath); err != nil {
			s.logger.Error("failed to remove document file after delete", "path", deleted.FilePath, "error", err)
		}
	}

	return deleted, nil
}
