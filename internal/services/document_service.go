package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studymate/study-service/internal/cache"
	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/vectorstore"
)

// DefaultCollection receives documents when no collection is named.
const DefaultCollection = "default"

const (
	metadataCacheKeyPrefix = "collection_metadata:"
	metadataCacheTTL       = 5 * time.Minute
	listScrollLimit        = 1000
)

// UserCollectionName derives a personal collection name from an email
// address.
func UserCollectionName(userEmail string) string {
	sanitized := strings.NewReplacer("@", "_", ".", "_").Replace(userEmail)
	return "user_" + sanitized
}

// UploadDocumentRequest carries one document to ingest.
type UploadDocumentRequest struct {
	Filename   string
	Data       []byte
	CourseCode string
	Topic      string
	UserEmail  string
	Collection string
}

type DocumentService interface {
	// ExtractText converts an uploaded file to plain text without storing it.
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)

	// Upload converts, chunks, embeds and stores one document.
	Upload(ctx context.Context, req UploadDocumentRequest) (*models.UploadResult, error)

	// UploadFromPaths ingests files and directories from the server
	// filesystem, accumulating per-file failures.
	UploadFromPaths(ctx context.Context, paths []string, courseCode, topic, collection string, recursive bool) (*models.PathUploadResult, error)

	// List describes the documents stored in a collection.
	List(ctx context.Context, collection string) (*models.CollectionInfo, error)

	// Metadata returns the distinct metadata values present in a collection.
	Metadata(ctx context.Context, collection string) (*models.CollectionMetadata, error)

	// Delete removes every chunk of the named document.
	Delete(ctx context.Context, collection, documentID string) error
}

type documentService struct {
	pool       *vectorstore.Pool
	embedder   llm.Embedder
	converters *ConverterRegistry
	cache      cache.CacheService
	publisher  events.EventPublisher
	logger     utils.Logger
}

func NewDocumentService(
	pool *vectorstore.Pool,
	embedder llm.Embedder,
	converters *ConverterRegistry,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
) DocumentService {
	if converters == nil {
		converters = DefaultConverterRegistry()
	}
	return &documentService{
		pool:       pool,
		embedder:   embedder,
		converters: converters,
		cache:      cacheService,
		publisher:  publisher,
		logger:     logger.With("component", "documents"),
	}
}

func (s *documentService) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	return s.converters.Convert(ctx, filename, data)
}

func (s *documentService) Upload(ctx context.Context, req UploadDocumentRequest) (*models.UploadResult, error) {
	collection := req.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	content, err := s.converters.Convert(ctx, req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrDocumentEmptyContent, req.Filename)
	}

	metadata := models.DocumentMetadata{
		Filename:   req.Filename,
		CourseCode: req.CourseCode,
		Type:       strings.ToLower(filepath.Ext(req.Filename)),
		Topic:      req.Topic,
		UserEmail:  req.UserEmail,
		DateAdded:  time.Now().Format(time.RFC3339),
	}

	chunks := chunkText(content, defaultChunkSize, defaultChunkOverlap)
	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed document %q: %w", req.Filename, err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				payloadContent:    chunk,
				payloadFilename:   metadata.Filename,
				payloadCourseCode: metadata.CourseCode,
				payloadType:       metadata.Type,
				payloadTopic:      metadata.Topic,
				payloadUserEmail:  metadata.UserEmail,
				payloadDateAdded:  metadata.DateAdded,
			},
		}
	}

	coll, err := s.pool.Acquire(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("acquire collection %q: %w", collection, err)
	}
	defer s.pool.Release(collection)

	if err := coll.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("store document %q: %w", req.Filename, err)
	}

	s.invalidateMetadataCache(ctx, collection)

	s.logger.InfoContext(ctx, "Document uploaded",
		"filename", req.Filename,
		"collection", collection,
		"chunks", len(chunks))

	if s.publisher != nil {
		event := events.NewDocumentUploadedEvent(req.Filename, collection, req.CourseCode, req.Topic, len(chunks))
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish document.uploaded event", "error", err)
		}
	}

	return &models.UploadResult{
		Message:    "Document uploaded successfully",
		Filename:   req.Filename,
		Metadata:   metadata,
		Collection: collection,
	}, nil
}

func (s *documentService) UploadFromPaths(ctx context.Context, paths []string, courseCode, topic, collection string, recursive bool) (*models.PathUploadResult, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	result := &models.PathUploadResult{
		SuccessfulUploads: []models.UploadResult{},
		Errors:            []models.PathUploadError{},
		Collection:        collection,
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			result.Errors = append(result.Errors, models.PathUploadError{File: path, Error: err.Error()})
			continue
		}
		if info.IsDir() {
			s.uploadDirectory(ctx, path, courseCode, topic, collection, recursive, result)
		} else {
			s.uploadPath(ctx, path, courseCode, topic, collection, result)
		}
	}

	result.Message = fmt.Sprintf("Upload complete. Processed %d files successfully, %d failures",
		len(result.SuccessfulUploads), len(result.Errors))
	return result, nil
}

// uploadDirectory ingests every supported file in a directory. Files with
// unsupported extensions are skipped silently; explicit paths are not.
func (s *documentService) uploadDirectory(ctx context.Context, dir, courseCode, topic, collection string, recursive bool, result *models.PathUploadResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Errors = append(result.Errors, models.PathUploadError{File: dir, Error: err.Error()})
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if recursive {
				s.uploadDirectory(ctx, path, courseCode, topic, collection, recursive, result)
			}
			continue
		}
		if !s.converters.Supports(filepath.Ext(entry.Name())) {
			continue
		}
		s.uploadPath(ctx, path, courseCode, topic, collection, result)
	}
}

func (s *documentService) uploadPath(ctx context.Context, path, courseCode, topic, collection string, result *models.PathUploadResult) {
	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, models.PathUploadError{File: path, Error: err.Error()})
		return
	}

	upload, err := s.Upload(ctx, UploadDocumentRequest{
		Filename:   filepath.Base(path),
		Data:       data,
		CourseCode: courseCode,
		Topic:      topic,
		Collection: collection,
	})
	if err != nil {
		result.Errors = append(result.Errors, models.PathUploadError{File: path, Error: err.Error()})
		return
	}
	result.SuccessfulUploads = append(result.SuccessfulUploads, *upload)
}

func (s *documentService) List(ctx context.Context, collection string) (*models.CollectionInfo, error) {
	coll, err := s.pool.Acquire(ctx, collection)
	if err != nil {
		return nil, s.mapCollectionError(collection, err)
	}
	defer s.pool.Release(collection)

	count, err := coll.Count(ctx)
	if err != nil {
		return nil, s.mapCollectionError(collection, err)
	}

	matches, err := coll.Scroll(ctx, listScrollLimit)
	if err != nil {
		return nil, s.mapCollectionError(collection, err)
	}

	// One listing entry per document, not per chunk.
	documents := make([]models.DocumentInfo, 0)
	seen := make(map[string]bool)
	for _, m := range matches {
		metadata := payloadToMetadata(m.Payload)
		filename := orUnknown(metadata.Filename)
		if seen[filename] {
			continue
		}
		seen[filename] = true
		documents = append(documents, models.DocumentInfo{
			ID:        filename,
			Type:      orUnknown(metadata.Type),
			DateAdded: orUnknown(metadata.DateAdded),
		})
	}

	return &models.CollectionInfo{Count: count, Documents: documents}, nil
}

func (s *documentService) Metadata(ctx context.Context, collection string) (*models.CollectionMetadata, error) {
	cacheKey := metadataCacheKeyPrefix + collection
	var cached models.CollectionMetadata
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	coll, err := s.pool.Acquire(ctx, collection)
	if err != nil {
		return nil, s.mapCollectionError(collection, err)
	}
	defer s.pool.Release(collection)

	matches, err := coll.Scroll(ctx, listScrollLimit)
	if err != nil {
		return nil, s.mapCollectionError(collection, err)
	}

	courseCodes := make(map[string]bool)
	topics := make(map[string]bool)
	filenames := make(map[string]bool)
	for _, m := range matches {
		metadata := payloadToMetadata(m.Payload)
		if metadata.CourseCode != "" {
			courseCodes[metadata.CourseCode] = true
		}
		if metadata.Topic != "" {
			topics[metadata.Topic] = true
		}
		if metadata.Filename != "" {
			filenames[metadata.Filename] = true
		}
	}

	metadata := &models.CollectionMetadata{
		CourseCodes: sortedKeys(courseCodes),
		Topics:      sortedKeys(topics),
		Filenames:   sortedKeys(filenames),
	}

	if err := s.cache.Set(ctx, cacheKey, metadata, metadataCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache collection metadata", "collection", collection, "error", err)
	}
	return metadata, nil
}

func (s *documentService) Delete(ctx context.Context, collection, documentID string) error {
	coll, err := s.pool.Acquire(ctx, collection)
	if err != nil {
		return s.mapCollectionError(collection, err)
	}
	defer s.pool.Release(collection)

	if err := coll.DeleteByFilter(ctx, vectorstore.FilenameFilter(documentID)); err != nil {
		return fmt.Errorf("delete document %q: %w", documentID, err)
	}

	s.invalidateMetadataCache(ctx, collection)
	s.logger.InfoContext(ctx, "Document deleted", "document_id", documentID, "collection", collection)
	return nil
}

func (s *documentService) invalidateMetadataCache(ctx context.Context, collection string) {
	if err := s.cache.Delete(ctx, metadataCacheKeyPrefix+collection); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate metadata cache", "collection", collection, "error", err)
	}
}

func (s *documentService) mapCollectionError(collection string, err error) error {
	if errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	return err
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
