package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/services"
	"github.com/studymate/study-service/internal/utils"
)

// QuizHandler serves quiz generation, grading and export.
type QuizHandler struct {
	BaseHandler
	generator services.QuizGenerationService
	grader    services.QuizGradingService
	exporter  services.ExportService
	documents services.DocumentService
}

func NewQuizHandler(
	generator services.QuizGenerationService,
	grader services.QuizGradingService,
	exporter services.ExportService,
	documents services.DocumentService,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		generator:   generator,
		grader:      grader,
		exporter:    exporter,
		documents:   documents,
	}
}

// SubmitQuiz handles POST /quiz/submit. Source material comes from
// uploaded files, free text, or stored collections; at least one of
// files and inputtext must be present.
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	h.LogRequest(c, "Generating quiz")

	inputText := c.PostForm("inputtext")
	files := formFiles(c)

	if len(files) == 0 && strings.TrimSpace(inputText) == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Either files or input text must be provided", nil)
		return
	}

	language := c.PostForm("language")
	if !services.IsSupportedLanguage(language) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Language must be either 'English' or 'Chinese'", nil)
		return
	}

	questionCount, err := strconv.Atoi(c.PostForm("noQuestion"))
	if err != nil {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "noQuestion must be an integer", err)
		return
	}

	content, err := h.collectContent(c, files, inputText)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to read uploaded files", err)
		return
	}

	quiz, err := h.generator.GenerateQuiz(c.Request.Context(), services.GenerateQuizRequest{
		Content:       content,
		Difficulty:    c.PostForm("difficulty"),
		Language:      language,
		QuestionCount: questionCount,
		Prompt:        c.PostForm("prompt"),
		Collections:   parseCollections(c),
		Filters:       parseMetadataFilters(c),
	})
	if err != nil {
		h.respondQuizError(c, err)
		return
	}

	h.LogInfo(c, "Quiz generated", "questions", len(quiz.Quiz))
	c.JSON(http.StatusOK, quiz)
}

// GradeQuiz handles POST /quiz/grade.
func (h *QuizHandler) GradeQuiz(c *gin.Context) {
	h.LogRequest(c, "Grading quiz")

	var quiz models.SubmittedQuiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid quiz payload", err)
		return
	}

	result, err := h.grader.GradeQuiz(c.Request.Context(), &quiz)
	if err != nil {
		if errors.Is(err, services.ErrQuizNoQuestions) {
			h.RespondWithError(c, http.StatusBadRequest, "Quiz contains no questions", err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Error grading quiz", err)
		return
	}

	h.LogInfo(c, "Quiz graded", "total_score", result.TotalScore)
	c.JSON(http.StatusOK, result)
}

// ExportQuiz handles POST /quiz/export and responds with an xlsx
// workbook attachment.
func (h *QuizHandler) ExportQuiz(c *gin.Context) {
	h.LogRequest(c, "Exporting quiz")

	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid quiz payload", err)
		return
	}

	data, err := h.exporter.ExportQuizToExcel(c.Request.Context(), &quiz)
	if err != nil {
		if errors.Is(err, services.ErrExportEmptyQuiz) {
			h.RespondWithError(c, http.StatusBadRequest, "Quiz contains no questions", err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Error exporting quiz", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="quiz.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// collectContent joins the text of every uploaded file with the free
// text input.
func (h *QuizHandler) collectContent(c *gin.Context, files []*multipart.FileHeader, inputText string) (string, error) {
	var parts []string
	for _, file := range files {
		data, err := readMultipartFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file.Filename, err)
		}
		text, err := h.documents.ExtractText(c.Request.Context(), file.Filename, data)
		if err != nil {
			return "", fmt.Errorf("extracting %s: %w", file.Filename, err)
		}
		parts = append(parts, text)
	}
	if strings.TrimSpace(inputText) != "" {
		parts = append(parts, inputText)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (h *QuizHandler) respondQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrQuizEmptyContent),
		errors.Is(err, services.ErrQuizNoQuestions):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, services.ErrQuizUnsupportedLang):
		h.RespondWithError(c, http.StatusUnprocessableEntity, err.Error(), err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case services.IsGeneration(err):
		h.RespondWithError(c, http.StatusBadGateway, "Quiz generation failed", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Error generating quiz", err)
	}
}

// formFiles returns the uploaded files of a multipart request, or nil
// when the request carries none.
func formFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["files"]
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
