package vectorstore

import (
	"context"
	"hash/fnv"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tgo/sage/internal/database"
	"github.com/tgo/sage/internal/model"
)

// hashEmbedder maps each text to a deterministic near-one-hot vector so
// identical texts are distance zero apart and distinct texts roughly
// orthogonal.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) (pgvector.Vector, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	vec := make([]float32, 1536)
	vec[h.Sum32()%1536] = 1
	return pgvector.NewVector(vec), nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	vectors := make([]pgvector.Vector, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func testStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping vector store integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return &Store{db: db, embedder: hashEmbedder{}}
}

func newChunk(projectID, documentID uuid.UUID, idx int, content string) model.Chunk {
	return model.Chunk{
		ProjectID:  projectID,
		DocumentID: documentID,
		ChunkIndex: idx,
		Content:    content,
		Metadata:   model.JSONMap{"documentId": documentID.String(), "projectId": projectID.String()},
	}
}

func TestStoreAddSearchDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	projectA := uuid.New()
	projectB := uuid.New()
	docOne := uuid.New()
	docTwo := uuid.New()
	t.Cleanup(func() {
		store.db.Where("project_id IN ?", []uuid.UUID{projectA, projectB}).Delete(&model.Chunk{})
	})

	chunks := []model.Chunk{
		newChunk(projectA, docOne, 0, "gophers live in burrows"),
		newChunk(projectA, docOne, 1, "compilers translate source code"),
		newChunk(projectA, docTwo, 0, "postgres stores relational data"),
		newChunk(projectB, uuid.New(), 0, "gophers live in burrows"),
	}
	require.NoError(t, store.Add(ctx, chunks))

	// The exact stored text is distance zero; results stay inside the
	// filtered project even when another project holds the same content.
	results, err := store.Search(ctx, "gophers live in burrows", 4, Filter{ProjectID: projectA})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "gophers live in burrows", results[0].Chunk.Content)
	assert.InDelta(t, 0, results[0].Score, 1e-6)
	for _, r := range results {
		assert.Equal(t, projectA, r.Chunk.ProjectID)
	}

	results, err = store.Search(ctx, "postgres stores relational data", 4, Filter{DocumentID: docTwo})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, docTwo, results[0].Chunk.DocumentID)

	// Deleting one document leaves the sibling document's chunks alone.
	require.NoError(t, store.Delete(ctx, Filter{DocumentID: docOne}))

	var remaining int64
	require.NoError(t, store.db.Model(&model.Chunk{}).Where("project_id = ?", projectA).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestStoreAddEmptyBatch(t *testing.T) {
	store := &Store{}
	assert.NoError(t, store.Add(context.Background(), nil))
}

func TestDeleteTxRefusesEmptyFilter(t *testing.T) {
	store := &Store{}
	err := store.DeleteTx(nil, Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a filter")
}

func TestInitializeRequiresExtension(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping vector store integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)

	store, err := Initialize(context.Background(), db, hashEmbedder{})
	require.NoError(t, err)
	require.NotNil(t, store)

	again, err := Initialize(context.Background(), db, hashEmbedder{})
	require.NoError(t, err)
	assert.Same(t, store, again)

	got, err := Get()
	require.NoError(t, err)
	assert.Same(t, store, got)
}
