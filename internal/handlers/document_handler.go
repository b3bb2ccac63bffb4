package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/services"
	"github.com/studymate/study-service/internal/utils"
)

// previewLength is how many characters of a passage the metadata search
// endpoint returns.
const previewLength = 200

// DocumentHandler serves document ingestion, listing and retrieval
// diagnostics.
type DocumentHandler struct {
	BaseHandler
	documents services.DocumentService
	retriever services.RetrievalService
}

func NewDocumentHandler(documents services.DocumentService, retriever services.RetrievalService, logger utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: NewBaseHandler(logger),
		documents:   documents,
		retriever:   retriever,
	}
}

// Upload handles POST /documents/upload. Files land in the named
// collection, or in the uploader's personal collection when only an
// email is given.
func (h *DocumentHandler) Upload(c *gin.Context) {
	h.LogRequest(c, "Uploading documents")

	files := formFiles(c)
	if len(files) == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	userEmail := c.PostForm("user_email")
	collection := c.PostForm("collection_name")
	if collection == "" {
		if userEmail == "" {
			h.RespondWithError(c, http.StatusBadRequest, "Either collection_name or user_email must be provided", nil)
			return
		}
		collection = services.UserCollectionName(userEmail)
	}

	courseCode := c.PostForm("course_code")
	topic := c.PostForm("topic")

	results := make([]models.UploadResult, 0, len(files))
	for _, file := range files {
		data, err := readMultipartFile(file)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Failed to read uploaded file", err, file.Filename)
			return
		}

		result, err := h.documents.Upload(c.Request.Context(), services.UploadDocumentRequest{
			Filename:   file.Filename,
			Data:       data,
			CourseCode: courseCode,
			Topic:      topic,
			UserEmail:  userEmail,
			Collection: collection,
		})
		if err != nil {
			h.respondDocumentError(c, err, "Error uploading document")
			return
		}
		results = append(results, *result)
	}

	h.LogInfo(c, "Batch upload complete", "collection", collection, "files", len(results))
	c.JSON(http.StatusOK, models.BatchUploadResult{
		Message: "Batch upload complete",
		Details: results,
	})
}

// UploadFromPathsRequest ingests documents from server-side paths.
type UploadFromPathsRequest struct {
	Paths          []string `json:"paths" binding:"required"`
	CourseCode     string   `json:"course_code"`
	Topic          string   `json:"topic"`
	CollectionName string   `json:"collection_name"`
	Recursive      *bool    `json:"recursive"`
}

// UploadFromPaths handles POST /documents/upload-from-paths.
func (h *DocumentHandler) UploadFromPaths(c *gin.Context) {
	h.LogRequest(c, "Uploading documents from paths")

	var req UploadFromPathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid upload payload", err)
		return
	}

	collection := req.CollectionName
	if collection == "" {
		collection = services.DefaultCollection
	}
	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	result, err := h.documents.UploadFromPaths(c.Request.Context(), req.Paths, req.CourseCode, req.Topic, collection, recursive)
	if err != nil {
		h.respondDocumentError(c, err, "Error processing uploads")
		return
	}

	h.LogInfo(c, "Path upload complete",
		"collection", collection,
		"successful", len(result.SuccessfulUploads),
		"failed", len(result.Errors))
	c.JSON(http.StatusOK, result)
}

// List handles GET /documents/:collection.
func (h *DocumentHandler) List(c *gin.Context) {
	collection := ParseStringIDParam(c, "collection")
	if collection == "" {
		return
	}

	info, err := h.documents.List(c.Request.Context(), collection)
	if err != nil {
		h.respondDocumentError(c, err, "Error listing documents")
		return
	}

	c.JSON(http.StatusOK, info)
}

// Metadata handles GET /documents/:collection/metadata.
func (h *DocumentHandler) Metadata(c *gin.Context) {
	collection := ParseStringIDParam(c, "collection")
	if collection == "" {
		return
	}

	metadata, err := h.documents.Metadata(c.Request.Context(), collection)
	if err != nil {
		h.respondDocumentError(c, err, "Error fetching metadata")
		return
	}

	c.JSON(http.StatusOK, metadata)
}

// Delete handles DELETE /documents/:collection/:id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	collection := ParseStringIDParam(c, "collection")
	if collection == "" {
		return
	}
	documentID := ParseStringIDParam(c, "id")
	if documentID == "" {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), collection, documentID); err != nil {
		h.respondDocumentError(c, err, "Error deleting document")
		return
	}

	h.LogInfo(c, "Document deleted", "collection", collection, "document_id", documentID)
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// metadataSearchResult is one preview entry in the search response.
type metadataSearchResult struct {
	Content    string                  `json:"content"`
	Metadata   models.DocumentMetadata `json:"metadata"`
	Collection string                  `json:"collection"`
}

// MetadataSearch handles POST /test/metadata-search, a diagnostic
// endpoint for verifying retrieval filtering.
func (h *DocumentHandler) MetadataSearch(c *gin.Context) {
	h.LogRequest(c, "Metadata search")

	query := c.PostForm("query")
	if query == "" {
		h.RespondWithError(c, http.StatusBadRequest, "query is required", nil)
		return
	}

	collections := parseCollections(c)
	filters := parseMetadataFilters(c)

	passages, err := h.retriever.SearchPassages(c.Request.Context(), query, collections, filters, services.DefaultSearchLimit)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Error in metadata search", err)
		return
	}

	results := make([]metadataSearchResult, 0, len(passages))
	for _, passage := range passages {
		results = append(results, metadataSearchResult{
			Content:    previewContent(passage.Content),
			Metadata:   passage.Metadata,
			Collection: passage.Collection,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"query":                query,
		"filters_applied":      filters,
		"collections_searched": collections,
		"results":              results,
		"total_results":        len(results),
	})
}

func (h *DocumentHandler) respondDocumentError(c *gin.Context, err error, message string) {
	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, message, err)
	}
}

// previewContent truncates a passage for display.
func previewContent(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content + "..."
	}
	return string(runes[:previewLength]) + "..."
}
