package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// CorpusVector stores one row of a domain's embedding matrix. Position is the
// row number in the corpus the vectors were built from.
type CorpusVector struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Domain    string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_corpus_vectors_domain_position"`
	Position  int             `gorm:"not null;uniqueIndex:idx_corpus_vectors_domain_position"`
	Embedding pgvector.Vector `gorm:"type:vector;not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (CorpusVector) TableName() string {
	return "corpus_vectors"
}

// CorpusVectorSet records which vector matrix a domain's rows were copied from.
type CorpusVectorSet struct {
	Domain      string    `gorm:"type:varchar(32);primaryKey"`
	Fingerprint string    `gorm:"type:char(64);not null"`
	RowCount    int       `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (CorpusVectorSet) TableName() string {
	return "corpus_vector_sets"
}
