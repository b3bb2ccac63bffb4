package services

import (
	"errors"
	"fmt"

	apperrors "github.com/studymate/study-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Quiz specific errors
	ErrQuizEmptyContent       = errors.New("no content provided for quiz generation")
	ErrQuizUnsupportedLang    = errors.New("unsupported quiz language")
	ErrQuizGenerationFailed   = errors.New("quiz generation failed")
	ErrQuizInvalidQuestion    = errors.New("generated question failed validation")
	ErrQuizNoQuestions        = errors.New("quiz contains no questions")
	ErrQuizUnknownQuestionTyp = errors.New("unknown question type")

	// Summary specific errors
	ErrSummaryEmptyContent = errors.New("no content provided for summary")
	ErrSummaryFailed       = errors.New("summary generation failed")

	// Chat specific errors
	ErrChatEmptyMessage   = errors.New("chat message is empty")
	ErrChatSessionMissing = errors.New("chat session not found")

	// Document specific errors
	ErrDocumentNotFound        = errors.New("document not found")
	ErrDocumentEmptyContent    = errors.New("document has no extractable text")
	ErrDocumentUnsupportedType = errors.New("unsupported document type")
	ErrCollectionNotFound      = errors.New("collection not found")

	// Export specific errors
	ErrExportEmptyQuiz = errors.New("cannot export an empty quiz")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// GenerationError reports which question of a quiz failed to generate.
type GenerationError struct {
	Index        int    `json:"index"`
	QuestionType string `json:"question_type"`
	Err          error  `json:"-"`
}

func (ge *GenerationError) Error() string {
	return fmt.Sprintf("question %d (%s): %v", ge.Index+1, ge.QuestionType, ge.Err)
}

func (ge *GenerationError) Unwrap() error {
	return ge.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewGenerationError(index int, questionType string, err error) *GenerationError {
	return &GenerationError{
		Index:        index,
		QuestionType: questionType,
		Err:          err,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrChatSessionMissing)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrQuizEmptyContent) ||
		errors.Is(err, ErrQuizUnsupportedLang) ||
		errors.Is(err, ErrSummaryEmptyContent) ||
		errors.Is(err, ErrChatEmptyMessage) ||
		errors.Is(err, ErrDocumentUnsupportedType) ||
		errors.Is(err, ErrDocumentEmptyContent) ||
		errors.Is(err, ErrExportEmptyQuiz) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsGeneration checks if error came from the question generation pipeline
func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge) || errors.Is(err, ErrQuizGenerationFailed)
}
