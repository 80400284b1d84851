package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/model"
	"cmp-dialogue/internal/retry"
)

var ErrEmptyDocument = errors.New("document text is empty")

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Session is one connection-scoped view of the document table.
type Session interface {
	CreateBatch(ctx context.Context, docs []model.Document) error
	Nearest(ctx context.Context, collection string, embedding []float32, locations []string, k int) ([]model.Document, error)
	Close() error
}

// Connector opens a fresh Session. It is called once per attempt so a broken
// connection is never reused by a retry.
type Connector func(ctx context.Context) (Session, error)

type Options struct {
	Collection string
	TopK       int
	// Dimensions, when set, is the vector length every embedding must have.
	Dimensions int
	Policy     retry.Policy
	Logger     logger.Logger
}

// Store is the similarity-searchable memory of past dialogue turns.
type Store struct {
	connect    Connector
	embedder   Embedder
	collection string
	topK       int
	dimensions int
	policy     retry.Policy
	log        logger.Logger
}

func New(connect Connector, embedder Embedder, opts Options) *Store {
	if opts.Collection == "" {
		opts.Collection = "my_docs"
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Store{
		connect:    connect,
		embedder:   embedder,
		collection: opts.Collection,
		topK:       opts.TopK,
		dimensions: opts.Dimensions,
		policy:     opts.Policy,
		log:        opts.Logger,
	}
}

// NewDocument builds an unsaved document with a fresh id.
func NewDocument(text, location, topic string) model.Document {
	return model.Document{
		ID:       uuid.New(),
		Text:     text,
		Location: location,
		Topic:    topic,
	}
}

// Save embeds and stores docs. Storage connection failures are retried with a
// new connection each time.
func (s *Store) Save(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		s.log.Warn("vectorstore", "no documents to save", nil)
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			return ErrEmptyDocument
		}
		texts[i] = d.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(docs) {
		return errors.New("embedding count mismatch")
	}
	for _, v := range vectors {
		if err := s.checkDimensions(v); err != nil {
			return err
		}
	}

	rows := make([]model.Document, len(docs))
	for i, d := range docs {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.Collection = s.collection
		d.Embedding = pgvector.NewVector(vectors[i])
		rows[i] = d
	}

	err = retry.Run(ctx, s.policy.Named("vectorstore.save"), func(ctx context.Context) error {
		session, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer session.Close()
		return session.CreateBatch(ctx, rows)
	}, retry.IsTransientStorage)
	if err != nil {
		s.log.Error("vectorstore", "save documents failed", map[string]interface{}{
			"count": len(rows),
			"error": err,
		})
		return err
	}

	s.log.Info("vectorstore", "saved documents", map[string]interface{}{"count": len(rows)})
	return nil
}

// Retrieve returns the text of the closest document whose location is in
// allowedLocations. Any failure is logged and reported as no match.
func (s *Store) Retrieve(ctx context.Context, query string, allowedLocations []string) (string, bool) {
	if strings.TrimSpace(query) == "" || len(allowedLocations) == 0 {
		s.log.Warn("vectorstore", "invalid query or location", nil)
		return "", false
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err == nil && len(vectors) == 0 {
		err = errors.New("empty embedding response")
	}
	if err == nil {
		err = s.checkDimensions(vectors[0])
	}
	if err != nil {
		s.log.Error("vectorstore", "embed query failed", map[string]interface{}{"error": err})
		return "", false
	}

	docs, err := retry.Do(ctx, s.policy.Named("vectorstore.retrieve"), func(ctx context.Context) ([]model.Document, error) {
		session, err := s.connect(ctx)
		if err != nil {
			return nil, err
		}
		defer session.Close()
		return session.Nearest(ctx, s.collection, vectors[0], allowedLocations, s.topK)
	}, retry.IsTransientStorage)
	if err != nil {
		s.log.Error("vectorstore", "query documents failed", map[string]interface{}{"error": err})
		return "", false
	}

	allowed := make(map[string]struct{}, len(allowedLocations))
	for _, loc := range allowedLocations {
		allowed[loc] = struct{}{}
	}
	for _, d := range docs {
		if _, ok := allowed[d.Location]; ok {
			return d.Text, true
		}
	}
	return "", false
}

func (s *Store) checkDimensions(v []float32) error {
	if s.dimensions > 0 && len(v) != s.dimensions {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(v), s.dimensions)
	}
	return nil
}
