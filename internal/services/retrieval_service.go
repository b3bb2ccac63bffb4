package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/vectorstore"
)

// DefaultSearchLimit is how many passages each collection contributes.
const DefaultSearchLimit = 4

// Payload keys used for chunks stored in the vector store.
const (
	payloadContent    = "content"
	payloadFilename   = "filename"
	payloadCourseCode = "course_code"
	payloadType       = "type"
	payloadTopic      = "topic"
	payloadUserEmail  = "user_email"
	payloadDateAdded  = "date_added"
)

// RetrievalService searches collections for passages relevant to a query.
type RetrievalService interface {
	ContextBuilder
	SearchPassages(ctx context.Context, query string, collections []string, filters models.MetadataFilters, limit int) ([]models.Passage, error)
}

type retrievalService struct {
	pool     *vectorstore.Pool
	embedder llm.Embedder
	logger   utils.Logger
}

func NewRetrievalService(pool *vectorstore.Pool, embedder llm.Embedder, logger utils.Logger) RetrievalService {
	return &retrievalService{
		pool:     pool,
		embedder: embedder,
		logger:   logger.With("component", "retrieval"),
	}
}

// SearchPassages embeds the query once and searches each collection in
// turn. A collection that fails is logged and skipped so one unhealthy
// collection does not sink the whole search.
func (s *retrievalService) SearchPassages(ctx context.Context, query string, collections []string, filters models.MetadataFilters, limit int) ([]models.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrValidationFailed)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector := vectors[0]

	filter := vectorstore.MetadataFilter(filters)

	var passages []models.Passage
	for _, name := range collections {
		matches, err := s.searchCollection(ctx, name, queryVector, limit, filter)
		if err != nil {
			s.logger.WarnContext(ctx, "Collection search failed, skipping",
				"collection", name,
				"error", err)
			continue
		}
		for _, m := range matches {
			passages = append(passages, matchToPassage(m, name))
		}
	}
	return passages, nil
}

func (s *retrievalService) searchCollection(ctx context.Context, name string, vector []float32, limit int, filter map[string]any) ([]vectorstore.Match, error) {
	coll, err := s.pool.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	defer s.pool.Release(name)

	return coll.Search(ctx, vector, limit, filter)
}

// BuildContext joins the retrieved passages into a single block of text
// for prompting.
func (s *retrievalService) BuildContext(ctx context.Context, query string, collections []string, filters models.MetadataFilters) (string, error) {
	passages, err := s.SearchPassages(ctx, query, collections, filters, DefaultSearchLimit)
	if err != nil {
		return "", err
	}

	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		contents = append(contents, p.Content)
	}
	return strings.Join(contents, "\n\n"), nil
}

func matchToPassage(m vectorstore.Match, collection string) models.Passage {
	content, _ := m.Payload[payloadContent].(string)
	return models.Passage{
		Content:    content,
		Metadata:   payloadToMetadata(m.Payload),
		Collection: collection,
		Score:      m.Score,
	}
}

func payloadToMetadata(payload map[string]any) models.DocumentMetadata {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}
	return models.DocumentMetadata{
		Filename:   str(payloadFilename),
		CourseCode: str(payloadCourseCode),
		Type:       str(payloadType),
		Topic:      str(payloadTopic),
		UserEmail:  str(payloadUserEmail),
		DateAdded:  str(payloadDateAdded),
	}
}
