package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/services"
	"github.com/studymate/study-service/internal/utils"
)

// SummaryHandler serves summary generation.
type SummaryHandler struct {
	BaseHandler
	summaries services.SummaryService
	documents services.DocumentService
}

func NewSummaryHandler(summaries services.SummaryService, documents services.DocumentService, logger utils.Logger) *SummaryHandler {
	return &SummaryHandler{
		BaseHandler: NewBaseHandler(logger),
		summaries:   summaries,
		documents:   documents,
	}
}

// SubmitSummary handles POST /summary/submit. Content comes from
// uploaded files and free text; when collections are given the summary
// is additionally grounded in retrieved reference material.
func (h *SummaryHandler) SubmitSummary(c *gin.Context) {
	h.LogRequest(c, "Generating summary")

	var parts []string
	for _, file := range formFiles(c) {
		data, err := readMultipartFile(file)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Failed to read uploaded files", fmt.Errorf("reading %s: %w", file.Filename, err))
			return
		}
		text, err := h.documents.ExtractText(c.Request.Context(), file.Filename, data)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Failed to read uploaded files", fmt.Errorf("extracting %s: %w", file.Filename, err))
			return
		}
		parts = append(parts, text)
	}

	if inputText := c.PostForm("inputtext"); strings.TrimSpace(inputText) != "" {
		parts = append(parts, inputText)
	}

	summary, err := h.summaries.Summarize(c.Request.Context(), services.SummarizeRequest{
		ContentParts: parts,
		Collections:  parseCollections(c),
		Filters:      parseMetadataFilters(c),
	})
	if err != nil {
		if errors.Is(err, services.ErrSummaryEmptyContent) {
			h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Error processing request", err)
		return
	}

	h.LogInfo(c, "Summary generated", "sources", len(summary.Sources))
	c.JSON(http.StatusOK, summary)
}
