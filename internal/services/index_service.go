package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/remoteradar/remote-radar/internal/models"
)

// IndexService is the embedding-backed document store behind semantic
// retrieval. Documents are keyed by job URL; membership is a derived
// projection of the jobs table and may lag it by at most one ingestion run.
type IndexService struct {
	db       *gorm.DB
	embedder embeddings.Embedder
}

func NewIndexService(db *gorm.DB, embedder embeddings.Embedder) *IndexService {
	return &IndexService{db: db, embedder: embedder}
}

// Add embeds and upserts documents under their ids. docs and ids are
// parallel slices.
func (s *IndexService) Add(ctx context.Context, docs []string, ids []string) error {
	if len(docs) != len(ids) {
		return fmt.Errorf("index add: %d docs for %d ids", len(docs), len(ids))
	}
	if len(docs) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("embed %d documents: %w", len(docs), err)
	}

	rows := make([]models.JobDocument, len(docs))
	now := time.Now()
	for i := range docs {
		rows[i] = models.JobDocument{
			URL:       ids[i],
			Content:   docs[i],
			Embedding: pgvector.NewVector(vectors[i]),
			UpdatedAt: now,
		}
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "embedding", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("index upsert: %w", err)
	}
	return nil
}

// Query returns, for each query text, up to n document ids ordered by
// cosine distance to the query embedding.
func (s *IndexService) Query(ctx context.Context, queryTexts []string, n int) ([][]string, error) {
	out := make([][]string, 0, len(queryTexts))
	for _, text := range queryTexts {
		vec, err := s.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed query %q: %w", text, err)
		}

		var urls []string
		err = s.db.WithContext(ctx).
			Raw("SELECT url FROM job_documents ORDER BY embedding <=> ? LIMIT ?",
				pgvector.NewVector(vec), n).
			Scan(&urls).Error
		if err != nil {
			return nil, fmt.Errorf("index query: %w", err)
		}
		out = append(out, urls)
	}
	return out, nil
}

// Delete removes the documents stored under the given ids.
func (s *IndexService) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("url IN ?", ids).Delete(&models.JobDocument{}).Error
	if err != nil {
		return fmt.Errorf("index delete %d ids: %w", len(ids), err)
	}
	return nil
}
