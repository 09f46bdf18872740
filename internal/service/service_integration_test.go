package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tgo/sage/internal/database"
	"github.com/tgo/sage/internal/model"
	"github.com/tgo/sage/internal/pkg/errs"
	"github.com/tgo/sage/internal/repository"
	"github.com/tgo/sage/internal/vectorstore"
)

// relationalIndex deletes chunk rows through the surrounding transaction,
// standing in for the vector store where no embeddings are involved.
type relationalIndex struct{}

func (relationalIndex) Add(_ context.Context, _ []model.Chunk) error {
	return nil
}

func (relationalIndex) Search(_ context.Context, _ string, _ int, _ vectorstore.Filter) ([]vectorstore.Result, error) {
	return nil, nil
}

func (relationalIndex) DeleteTx(tx *gorm.DB, filter vectorstore.Filter) error {
	if filter.DocumentID != uuid.Nil {
		tx = tx.Where("document_id = ?", filter.DocumentID)
	}
	if filter.ProjectID != uuid.Nil {
		tx = tx.Where("project_id = ?", filter.ProjectID)
	}
	return tx.Delete(&model.Chunk{}).Error
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping service integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedProject(t *testing.T, db *gorm.DB, ownerEmail string) (*model.User, *model.Project) {
	t.Helper()

	user := &model.User{Email: ownerEmail, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	project := &model.Project{UserID: user.ID, Name: "notes"}
	require.NoError(t, db.Create(project).Error)

	t.Cleanup(func() {
		db.Where("project_id = ?", project.ID).Delete(&model.Chunk{})
		db.Where("project_id = ?", project.ID).Delete(&model.Document{})
		db.Where("id = ?", project.ID).Delete(&model.Project{})
		db.Where("id = ?", user.ID).Delete(&model.User{})
	})
	return user, project
}

func seedDocument(t *testing.T, db *gorm.DB, project *model.Project, filePath string, chunkCount int) *model.Document {
	t.Helper()

	doc := &model.Document{
		ProjectID: project.ID,
		FileName:  filepath.Base(filePath),
		FilePath:  filePath,
		FileType:  "text/plain",
		Status:    model.DocumentStatusCompleted,
	}
	require.NoError(t, db.Create(doc).Error)
	for i := 0; i < chunkCount; i++ {
		require.NoError(t, db.Create(&model.Chunk{
			DocumentID: doc.ID,
			ProjectID:  project.ID,
			ChunkIndex: i,
			Content:    "seed content",
		}).Error)
	}
	return doc
}

func TestOwnershipGuardDistinguishesMissingFromForeign(t *testing.T) {
	db := testDB(t)
	guard := NewOwnershipGuard(repository.NewProjectRepository(db))
	ctx := context.Background()

	owner, project := seedProject(t, db, uuid.New().String()+"@example.com")
	stranger, _ := seedProject(t, db, uuid.New().String()+"@example.com")

	got, err := guard.Require(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	_, err = guard.Require(ctx, project.ID, stranger.ID)
	assert.True(t, errs.IsForbidden(err), "foreign project must be forbidden, got %v", err)

	_, err = guard.Require(ctx, uuid.New(), owner.ID)
	assert.True(t, errs.IsNotFound(err), "missing project must be not found, got %v", err)

	owned, err := guard.Verify(ctx, project.ID, stranger.ID)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestDocumentDeleteCascadesAndRemovesFile(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner, project := seedProject(t, db, uuid.New().String()+"@example.com")

	filePath := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0o644))
	doc := seedDocument(t, db, project, filePath, 3)

	svc := &DocumentService{
		db:      db,
		docRepo: repository.NewDocumentRepository(db),
		guard:   NewOwnershipGuard(repository.NewProjectRepository(db)),
		index:   relationalIndex{},
		logger:  slog.Default(),
	}

	// A stranger cannot delete; the row and file survive.
	strangerID := uuid.New()
	_, err := svc.Delete(ctx, doc.ID, strangerID)
	require.Error(t, err)
	assert.FileExists(t, filePath)

	deleted, err := svc.Delete(ctx, doc.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, deleted.ID)

	var chunkCount int64
	require.NoError(t, db.Model(&model.Chunk{}).Where("document_id = ?", doc.ID).Count(&chunkCount).Error)
	assert.Zero(t, chunkCount, "document delete must leave no chunks")

	var docCount int64
	require.NoError(t, db.Model(&model.Document{}).Where("id = ?", doc.ID).Count(&docCount).Error)
	assert.Zero(t, docCount)

	assert.NoFileExists(t, filePath)
}

func TestProjectDeleteCascades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner, project := seedProject(t, db, uuid.New().String()+"@example.com")

	fileA := filepath.Join(t.TempDir(), "a.txt")
	fileB := filepath.Join(t.TempDir(), "b.txt")
	require.NoError(t, os.WriteFile(fileA, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte("b"), 0o644))
	seedDocument(t, db, project, fileA, 2)
	seedDocument(t, db, project, fileB, 2)

	svc := &ProjectService{
		db:          db,
		projectRepo: repository.NewProjectRepository(db),
		docRepo:     repository.NewDocumentRepository(db),
		guard:       NewOwnershipGuard(repository.NewProjectRepository(db)),
		index:       relationalIndex{},
		logger:      slog.Default(),
	}

	deleted, err := svc.Delete(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, deleted.ID)

	var remaining int64
	require.NoError(t, db.Model(&model.Chunk{}).Where("project_id = ?", project.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, db.Model(&model.Document{}).Where("project_id = ?", project.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, db.Model(&model.Project{}).Where("id = ?", project.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.NoFileExists(t, fileA)
	assert.NoFileExists(t, fileB)
}
