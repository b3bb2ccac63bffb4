package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/validator"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// RespondWithValidationError maps struct validation failures to a 400
// with per-field details.
func (h *BaseHandler) RespondWithValidationError(c *gin.Context, err error) {
	fieldErrors := validator.ToValidationErrors(err)
	details := make([]ValidationErrorResponse, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, ValidationErrorResponse{
			Field:   fe.Field,
			Message: fe.Message,
		})
	}
	h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, details)
}

// splitListValues normalizes a repeated form field. Clients send either
// multiple values or a single comma-joined value; both come back as a
// flat list with blanks removed.
func splitListValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseMetadataFilters builds retrieval filters from the course_codes,
// topics and filenames form fields.
func parseMetadataFilters(c *gin.Context) models.MetadataFilters {
	return models.MetadataFilters{
		CourseCodes: splitListValues(c.PostFormArray("course_codes")),
		Topics:      splitListValues(c.PostFormArray("topics")),
		Filenames:   splitListValues(c.PostFormArray("filenames")),
	}
}

// parseCollections reads the collections form field.
func parseCollections(c *gin.Context) []string {
	return splitListValues(c.PostFormArray("collections"))
}
