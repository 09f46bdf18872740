package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/model"
	"github.com/tgo/sage/internal/pkg/errs"
	"github.com/tgo/sage/internal/repository"
	"github.com/tgo/sage/internal/vectorstore"
)

// Query retrieves this many chunks as grounding context.
const answerTopK = 4

// QuizQuestion is one generated multiple-choice item.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type ProjectService struct {
	db          *gorm.DB
	projectRepo *repository.ProjectRepository
	docRepo     *repository.DocumentRepository
	chunkRepo   *repository.ChunkRepository
	guard       *OwnershipGuard
	generator   TextGenerator
	index       ChunkIndex
	logger      *slog.Logger
}

func NewProjectService(
	db *gorm.DB,
	projectRepo *repository.ProjectRepository,
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	guard *OwnershipGuard,
	generator TextGenerator,
	index ChunkIndex,
) *ProjectService {
	return &ProjectService{
		db:          db,
		projectRepo: projectRepo,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		guard:       guard,
		generator:   generator,
		index:       index,
		logger:      slog.Default().With("component", "project_svc"),
	}
}

func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, name, description string) (*model.Project, error) {
	project := &model.Project{UserID: userID, Name: name, Description: description}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	return s.projectRepo.FindByUserID(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, error) {
	return s.guard.Require(ctx, projectID, userID)
}

func (s *ProjectService) ListDocuments(ctx context.Context, projectID, userID uuid.UUID) ([]model.Document, error) {
	if _, err := s.guard.Require(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.docRepo.FindByProjectID(ctx, projectID)
}

// Query answers a question grounded only in the project's indexed
// content. With no relevant chunks the model still answers, stating that
// the information is missing.
func (s *ProjectService) Query(ctx context.Context, projectID uuid.UUID, question string, userID uuid.UUID) (string, error) {
	if _, err := s.guard.Require(ctx, projectID, userID); err != nil {
		return "", err
	}

	results, err := s.index.Search(ctx, question, answerTopK, vectorstore.Filter{ProjectID: projectID})
	if err != nil {
		return "", err
	}
	s.logger.Info("retrieved context for question", "project_id", projectID, "chunks", len(results))

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Chunk.Content
	}

	return s.generator.Invoke(ctx, buildAnswerPrompt(contents, question))
}

func buildAnswerPrompt(contents []string, question string) string {
	prompt := strings.ReplaceAll(answerPrompt, "{context}", strings.Join(contents, "\n\n"))
	return strings.ReplaceAll(prompt, "{input}", question)
}

// Delete removes the project with all of its documents and chunks in one
// transaction. Physical files are removed only after the commit; removal
// failures are logged, never reported.
func (s *ProjectService) Delete(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, error) {
	var (
		deleted   *model.Project
		filePaths []string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.guard.RequireTx(ctx, tx, projectID, userID)
		if err != nil {
			return err
		}

		docs, err := s.docRepo.WithTx(tx).FindByProjectID(ctx, projectID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if doc.FilePath != "" {
				filePaths = append(filePaths, doc.FilePath)
			}
		}

		if err := s.index.DeleteTx(tx, vectorstore.Filter{ProjectID: projectID}); err != nil {
			return err
		}
		if err := s.docRepo.WithTx(tx).DeleteByProjectID(ctx, projectID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", projectID).Delete(&model.Project{}).Error; err != nil {
			return err
		}

		deleted = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, path := range filePaths {
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to remove document file after project delete", "path", path, "error", err)
		}
	}

	return deleted, nil
}

// CreateQuiz generates multiple-choice questions from the chunks of the
// selected documents. The model must answer with one JSON array literal;
// anything else is a terminal error for the request.
func (s *ProjectService) CreateQuiz(ctx context.Context, documentIDs []uuid.UUID, numQuestions int, difficulty string, userID uuid.UUID) ([]QuizQuestion, error) {
	chunks, err := s.chunkRepo.FindByDocumentIDs(ctx, documentIDs)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, errs.NotFound("no content found for the selected documents")
	}

	// The user must own every project the selected documents span.
	seen := make(map[uuid.UUID]bool)
	for _, chunk := range chunks {
		if seen[chunk.ProjectID] {
			continue
		}
		seen[chunk.ProjectID] = true
		if _, err := s.guard.Require(ctx, chunk.ProjectID, userID); err != nil {
			return nil, err
		}
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	prompt := strings.ReplaceAll(quizPrompt, "{num_questions}", strconv.Itoa(numQuestions))
	prompt = strings.ReplaceAll(prompt, "{difficulty}", difficulty)
	prompt = strings.ReplaceAll(prompt, "{content}", strings.Join(contents, "\n\n"))

	raw, err := s.generator.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseQuizOutput(raw)
}

// parseQuizOutput locates the JSON array literal in the model's raw
// output and parses it.
func parseQuizOutput(raw string) ([]QuizQuestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, errs.MalformedOutput("the model did not return a valid JSON array")
	}

	var quiz []QuizQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &quiz); err != nil {
		return nil, errs.MalformedOutput("the model did not return a valid JSON array")
	}
	return quiz, nil
}
