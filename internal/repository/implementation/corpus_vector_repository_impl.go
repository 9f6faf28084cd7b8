package implementation

import (
	"context"
	"errors"
	"fmt"

	"faq-chatbot-be/internal/model"
	"faq-chatbot-be/internal/repository/contract"
	"faq-chatbot-be/pkg/vectorindex"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

type CorpusVectorRepositoryImpl struct {
	db *gorm.DB
}

func NewCorpusVectorRepository(db *gorm.DB) contract.CorpusVectorRepository {
	return &CorpusVectorRepositoryImpl{db: db}
}

func toModels(domain string, start int, vectors [][]float32) []*model.CorpusVector {
	rows := make([]*model.CorpusVector, len(vectors))
	for i, v := range vectors {
		rows[i] = &model.CorpusVector{
			Domain:    domain,
			Position:  start + i,
			Embedding: pgvector.NewVector(v),
		}
	}
	return rows
}

func (r *CorpusVectorRepositoryImpl) ReplaceDomain(ctx context.Context, domain, fingerprint string, vectors [][]float32) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("domain = ?", domain).Delete(&model.CorpusVector{}).Error; err != nil {
			return err
		}
		if len(vectors) > 0 {
			if err := tx.CreateInBatches(toModels(domain, 0, vectors), insertBatchSize).Error; err != nil {
				return err
			}
		}
		set := &model.CorpusVectorSet{Domain: domain, Fingerprint: fingerprint, RowCount: len(vectors)}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "domain"}},
			DoUpdates: clause.AssignmentColumns([]string{"fingerprint", "row_count", "updated_at"}),
		}).Create(set).Error
	})
}

func (r *CorpusVectorRepositoryImpl) Fingerprint(ctx context.Context, domain string) (string, error) {
	var set model.CorpusVectorSet
	err := r.db.WithContext(ctx).Where("domain = ?", domain).Take(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return set.Fingerprint, nil
}

func (r *CorpusVectorRepositoryImpl) Append(ctx context.Context, domain string, start int, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(toModels(domain, start, vectors), insertBatchSize).Error; err != nil {
			return err
		}
		return tx.Where("domain = ?", domain).Delete(&model.CorpusVectorSet{}).Error
	})
}

func (r *CorpusVectorRepositoryImpl) Count(ctx context.Context, domain string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CorpusVector{}).Where("domain = ?", domain).Count(&count).Error
	return count, err
}

type scoredPosition struct {
	Position int
	Distance float64
}

// SearchL2 orders by pgvector's Euclidean operator. Distances are squared to
// match the in-memory flat index.
func (r *CorpusVectorRepositoryImpl) SearchL2(ctx context.Context, domain string, query []float32, limit int) ([]vectorindex.Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(query)

	var rows []scoredPosition
	err := r.db.WithContext(ctx).
		Model(&model.CorpusVector{}).
		Select("position, embedding <-> ? AS distance", vec).
		Where("domain = ?", domain).
		Order(gorm.Expr("embedding <-> ?", vec)).
		Order("position").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector search %s: %w", domain, err)
	}

	hits := make([]vectorindex.Hit, len(rows))
	for i, row := range rows {
		hits[i] = vectorindex.Hit{Position: row.Position, Distance: float32(row.Distance * row.Distance)}
	}
	return hits, nil
}
