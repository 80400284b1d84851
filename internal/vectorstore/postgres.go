package vectorstore

import (
	"context"

	"gorm.io/gorm"

	"cmp-dialogue/internal/platform/postgres"
	"cmp-dialogue/internal/repository"
)

type pgSession struct {
	*repository.DocumentRepository
	db *gorm.DB
}

func (s *pgSession) Close() error {
	return postgres.Close(s.db)
}

// PostgresConnector dials dsn with a single-connection pool on every call.
func PostgresConnector(dsn string) Connector {
	return func(ctx context.Context) (Session, error) {
		db, err := postgres.New(ctx, dsn, postgres.SingleUse)
		if err != nil {
			return nil, err
		}
		return &pgSession{DocumentRepository: repository.NewDocumentRepository(db), db: db}, nil
	}
}
