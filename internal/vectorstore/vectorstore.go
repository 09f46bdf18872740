// Package vectorstore persists embedded chunks in Postgres (pgvector) and
// serves filtered nearest-neighbor search. The process holds exactly one
// store, initialized lazily; every pipeline operation shares it.
package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/model"
)

// Embedder converts text to fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Filter restricts search and delete operations by chunk metadata. Zero
// fields are ignored.
type Filter struct {
	ProjectID  uuid.UUID
	DocumentID uuid.UUID
}

// Result is one search hit. Score is the cosine distance, smaller is
// closer.
type Result struct {
	Chunk model.Chunk
	Score float64
}

type Store struct {
	db       *gorm.DB
	embedder Embedder
}

var (
	initOnce sync.Once
	instance *Store
	initErr  error
)

// Initialize creates the process-wide store on the first call and returns
// the same instance (or the same error) to every subsequent caller.
// Initialization failure is fatal to vector-dependent operations; main
// exits on it.
func Initialize(ctx context.Context, db *gorm.DB, embedder Embedder) (*Store, error) {
	initOnce.Do(func() {
		var ok bool
		err := db.WithContext(ctx).
			Raw("SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").
			Scan(&ok).Error
		if err != nil {
			initErr = fmt.Errorf("vector store init: %w", err)
			return
		}
		if !ok {
			initErr = fmt.Errorf("vector store init: pgvector extension is not installed")
			return
		}
		instance = &Store{db: db, embedder: embedder}
	})
	if initErr != nil {
		return nil, initErr
	}
	return instance, nil
}

// Get returns the initialized store.
func Get() (*Store, error) {
	if instance == nil {
		if initErr != nil {
			return nil, initErr
		}
		return nil, fmt.Errorf("vector store is not initialized")
	}
	return instance, nil
}

// Add embeds and stores a batch of chunks atomically: either all rows of
// the call become retrievable or none do.
func (s *Store) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&chunks).Error
	})
}

// Search embeds the query with the same model and returns the k nearest
// chunks matching the filter, best match first.
func (s *Store) Search(ctx context.Context, query string, k int, filter Filter) ([]Result, error) {
	if k <= 0 {
		k = 4
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []struct {
		model.Chunk
		Distance float64 `gorm:"column:distance"`
	}

	q := s.db.WithContext(ctx).
		Table("chunks").
		Select("*, embedding <=> ? AS distance", queryVec).
		Where("embedding IS NOT NULL").
		Order("distance ASC").
		Limit(k)
	q = applyFilter(q, filter)

	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, len(rows))
	for i, row := range rows {
		results[i] = Result{Chunk: row.Chunk, Score: row.Distance}
	}
	return results, nil
}

// Delete removes every chunk matching the filter. DeleteTx does the same
// inside an existing relational transaction, used by cascading document
// and project deletes.
func (s *Store) Delete(ctx context.Context, filter Filter) error {
	return s.DeleteTx(s.db.WithContext(ctx), filter)
}

func (s *Store) DeleteTx(tx *gorm.DB, filter Filter) error {
	if filter == (Filter{}) {
		return fmt.Errorf("refusing to delete chunks without a filter")
	}
	return applyFilter(tx, filter).Delete(&model.Chunk{}).Error
}

func applyFilter(q *gorm.DB, filter Filter) *gorm.DB {
	if filter.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.DocumentID != uuid.Nil {
		q = q.Where("document_id = ?", filter.DocumentID)
	}
	return q
}
