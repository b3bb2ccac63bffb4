package validator

import (
	"fmt"

	"github.com/studymate/study-service/internal/models"
)

// QuestionValidator checks generated questions before they are accepted
// into a quiz. Structural conformance is enforced upstream by the
// response schema; this layer covers semantics a schema cannot express.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Question == "" {
		return fmt.Errorf("question text is required")
	}

	if question.Point < 1 {
		return fmt.Errorf("question points must be positive")
	}

	switch question.Type {
	case models.MultipleChoice:
		return v.validateMultipleChoice(question)
	case models.TrueFalse:
		return v.validateTrueFalse(question)
	case models.Ordering:
		return v.validateOrdering(question)
	case models.FillBlank, models.ShortAnswer, models.LongAnswer:
		return v.validateFreeText(question)
	default:
		return fmt.Errorf("unsupported question type: %s", question.Type)
	}
}

// ValidateBatch validates multiple questions
func (v *QuestionValidator) ValidateBatch(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	for i := range questions {
		if err := v.ValidateQuestion(&questions[i]); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}

func (v *QuestionValidator) validateMultipleChoice(question *models.Question) error {
	if len(question.Choices) < 2 {
		return fmt.Errorf("must have at least 2 choices")
	}
	if question.Answer.IsList {
		return fmt.Errorf("multiple choice answer must be a single value")
	}
	if !containsChoice(question.Choices, question.Answer.Text) {
		return fmt.Errorf("answer %q does not match any choice", question.Answer.Text)
	}
	return nil
}

func (v *QuestionValidator) validateTrueFalse(question *models.Question) error {
	if len(question.Choices) != 2 || question.Choices[0] != "True" || question.Choices[1] != "False" {
		return fmt.Errorf("true/false choices must be exactly [True, False]")
	}
	if question.Answer.IsList {
		return fmt.Errorf("true/false answer must be a single value")
	}
	if question.Answer.Text != "True" && question.Answer.Text != "False" {
		return fmt.Errorf("true/false answer must be True or False")
	}
	return nil
}

func (v *QuestionValidator) validateOrdering(question *models.Question) error {
	if len(question.Choices) < 2 {
		return fmt.Errorf("must have at least 2 items to order")
	}
	if !question.Answer.IsList {
		return fmt.Errorf("ordering answer must be an array")
	}
	if len(question.Answer.List) != len(question.Choices) {
		return fmt.Errorf("ordering answer must include all items exactly once")
	}

	seen := make(map[string]bool, len(question.Answer.List))
	for _, item := range question.Answer.List {
		if seen[item] {
			return fmt.Errorf("ordering answer contains duplicate item: %s", item)
		}
		seen[item] = true
	}
	return nil
}

func (v *QuestionValidator) validateFreeText(question *models.Question) error {
	if question.Answer.IsList {
		return fmt.Errorf("%s answer must be a single value", question.Type)
	}
	if question.Answer.Text == "" {
		return fmt.Errorf("answer is required")
	}
	return nil
}

func containsChoice(choices []string, answer string) bool {
	for _, choice := range choices {
		if choice == answer {
			return true
		}
	}
	return false
}
