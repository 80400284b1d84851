package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Document is one remembered piece of dialogue or summary. Rows are never
// updated; every save inserts a new id.
type Document struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Collection string          `gorm:"type:varchar(64);not null;index:idx_documents_collection_location" json:"collection"`
	Location   string          `gorm:"type:varchar(64);not null;index:idx_documents_collection_location" json:"location"`
	Topic      string          `gorm:"type:varchar(64);not null" json:"topic"`
	Text       string          `gorm:"type:text;not null" json:"text"`
	Embedding  pgvector.Vector `gorm:"type:vector" json:"-"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Document) TableName() string {
	return "cmp_documents"
}
