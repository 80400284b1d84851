package repository

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cmp-dialogue/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateBatch inserts documents, ignoring ids that already exist so a retried
// batch does not fail on rows written by an earlier attempt.
func (r *DocumentRepository) CreateBatch(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&docs).Error; err != nil {
		return fmt.Errorf("create documents batch failed: %w", err)
	}
	return nil
}

// Nearest returns up to k documents of the collection whose location is in
// locations, closest first by cosine distance.
func (r *DocumentRepository) Nearest(ctx context.Context, collection string, embedding []float32, locations []string, k int) ([]model.Document, error) {
	if len(locations) == 0 || len(embedding) == 0 {
		return nil, nil
	}
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("collection = ? AND location IN ?", collection, locations).
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(embedding))).
		Limit(k).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("search documents failed: %w", err)
	}
	return docs, nil
}
