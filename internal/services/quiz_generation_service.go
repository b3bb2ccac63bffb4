package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/validator"
)

// SupportedLanguages lists the languages quizzes can be generated in.
var SupportedLanguages = []string{"English", "Chinese"}

// promptModifiers steer each question toward a different angle on the
// content so a quiz does not repeat itself.
var promptModifiers = []string{
	"Focus on practical applications of the content.",
	"Emphasize theoretical concepts.",
	"Highlight key definitions and terminology.",
	"Concentrate on examples and illustrations.",
	"Explore real-world scenarios related to the content.",
	"Identify and explain common misconceptions.",
	"Examine case studies related to the subject matter.",
	"Compare and contrast different viewpoints or theories.",
	"Discuss potential future developments in the field.",
	"Request definitions and explanations of key terms.",
	"Ask for the significance of the content in practical settings.",
	"Generate questions that require complex calculation.",
	"Debug and fix errors in the provided code.",
	"Calculate the result of a given mathematical expression.",
	"Solve the given mathematical equation.",
	"Calculate the impact of changing variables in a formula.",
}

// ContextBuilder supplies retrieved reference material for a query.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string, collections []string, filters models.MetadataFilters) (string, error)
}

// GenerateQuizRequest carries everything needed to generate one quiz.
type GenerateQuizRequest struct {
	Content       string
	Difficulty    string
	Language      string
	QuestionCount int
	Prompt        string
	Collections   []string
	Filters       models.MetadataFilters
}

type QuizGenerationService interface {
	GenerateQuiz(ctx context.Context, req GenerateQuizRequest) (*models.Quiz, error)
}

type quizGenerationService struct {
	provider  llm.Provider
	retriever ContextBuilder
	validator *validator.QuestionValidator
	publisher events.EventPublisher
	logger    utils.Logger
	rng       *rand.Rand
}

// NewQuizGenerationService creates the generation service. rng may be nil,
// in which case a time-seeded source is used.
func NewQuizGenerationService(
	provider llm.Provider,
	retriever ContextBuilder,
	publisher events.EventPublisher,
	logger utils.Logger,
	rng *rand.Rand,
) QuizGenerationService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &quizGenerationService{
		provider:  provider,
		retriever: retriever,
		validator: validator.NewQuestionValidator(),
		publisher: publisher,
		logger:    logger.With("component", "quiz_generation"),
		rng:       rng,
	}
}

func (s *quizGenerationService) GenerateQuiz(ctx context.Context, req GenerateQuizRequest) (*models.Quiz, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrQuizEmptyContent
	}
	if !IsSupportedLanguage(req.Language) {
		return nil, fmt.Errorf("%w: %q", ErrQuizUnsupportedLang, req.Language)
	}
	if req.QuestionCount < 1 {
		return nil, fmt.Errorf("%w: question count must be at least 1", ErrValidationFailed)
	}

	retrieved := ""
	if len(req.Collections) > 0 {
		var err error
		retrieved, err = s.retriever.BuildContext(ctx, req.Content, req.Collections, req.Filters)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
	}

	systemPrompt := buildQuizSystemPrompt(req.Content, req.Difficulty, req.Language, retrieved, req.Prompt)
	specs := GenerationSpecs()

	quiz := &models.Quiz{Quiz: make([]models.Question, 0, req.QuestionCount)}
	for i := 0; i < req.QuestionCount; i++ {
		spec := specs[s.rng.Intn(len(specs))]
		modifier := promptModifiers[s.rng.Intn(len(promptModifiers))]

		question, err := s.generateQuestion(ctx, systemPrompt, modifier, spec)
		if err != nil {
			s.logger.ErrorContext(ctx, "Question generation failed",
				"index", i,
				"question_type", string(spec.Type),
				"schema", spec.SchemaName,
				"error", err)
			return nil, fmt.Errorf("%w: %v", ErrQuizGenerationFailed, NewGenerationError(i, string(spec.Type), err))
		}
		quiz.Quiz = append(quiz.Quiz, *question)
	}

	s.logger.InfoContext(ctx, "Quiz generated",
		"question_count", len(quiz.Quiz),
		"difficulty", req.Difficulty,
		"language", req.Language)

	if s.publisher != nil {
		event := events.NewQuizGeneratedEvent(len(quiz.Quiz), req.Difficulty, req.Language, req.Collections, s.provider.ModelID())
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish quiz.generated event", "error", err)
		}
	}

	return quiz, nil
}

func (s *quizGenerationService) generateQuestion(ctx context.Context, systemPrompt, modifier string, spec GenerationSpec) (*models.Question, error) {
	system := systemPrompt + "\n" + modifier + spec.TypeReminder()

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: spec.Instruction}},
		Schema:   spec.LLMSchema(),
	})
	if err != nil {
		return nil, err
	}

	var question models.Question
	if err := json.Unmarshal(resp.Content, &question); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	if err := s.validator.ValidateQuestion(&question); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizInvalidQuestion, err)
	}
	return &question, nil
}

// buildQuizSystemPrompt assembles the professor prompt from the uploaded
// content, optional retrieved context, and the user's own prompt.
func buildQuizSystemPrompt(userContent, difficulty, language, retrieved, userPrompt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a professor tasked with creating questions in %s based on user-uploaded content and retrieved context.\n", language)
	fmt.Fprintf(&b, "Please generate all questions, answers, and explanations in %s.\n", language)
	fmt.Fprintf(&b, "Assign points to each question based on its difficulty equal to %s.\n", difficulty)
	b.WriteString("Provide answers for each question but do not include the contextual responses.\n")
	b.WriteString("\n")
	b.WriteString("Here is the user-uploaded content:\n")
	b.WriteString(userContent + "\n")

	if retrieved != "" {
		b.WriteString("\nHere is the retrieved context from reference materials:\n")
		b.WriteString(retrieved + "\n")
	}

	b.WriteString("\nHere is the user prompt:\n")
	b.WriteString(userPrompt)

	return b.String()
}

// IsSupportedLanguage reports whether quizzes can be generated in the
// given language.
func IsSupportedLanguage(language string) bool {
	for _, l := range SupportedLanguages {
		if l == language {
			return true
		}
	}
	return false
}
