package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubContextBuilder returns a fixed context for every query.
type stubContextBuilder struct {
	context string
	err     error
	calls   int
}

func (s *stubContextBuilder) BuildContext(_ context.Context, _ string, _ []string, _ models.MetadataFilters) (string, error) {
	s.calls++
	return s.context, s.err
}

// validQuestionJSON returns a response that satisfies the spec's schema and
// the question validator.
func validQuestionJSON(t *testing.T, spec GenerationSpec) []byte {
	t.Helper()

	var question models.Question
	switch spec.SchemaName {
	case "mc_question":
		question = models.Question{
			Type: models.MultipleChoice, Question: "Pick one.", Point: 1,
			Choices: []string{"a", "b", "c"}, Answer: models.TextAnswer("a"),
			Explanation: "a is right",
		}
	case "tf_question", "tf_question_with_coding":
		question = models.Question{
			Type: models.TrueFalse, Question: "True or false?", Point: 1,
			Choices: []string{"True", "False"}, Answer: models.TextAnswer("True"),
			Code: "print('hi')", Explanation: "it is true",
		}
	case "ordering_question":
		question = models.Question{
			Type: models.Ordering, Question: "Order these.", Point: 4,
			Choices: []string{"one", "two", "three"},
			Answer:  models.ListAnswer([]string{"one", "two", "three"}),
			Explanation: "ascending",
		}
	case "fill_blank_question":
		question = models.Question{
			Type: models.FillBlank, Question: "Fill ___.", Point: 2,
			Answer: models.TextAnswer("blank"), Explanation: "blank fits",
		}
	case "short_question":
		question = models.Question{
			Type: models.ShortAnswer, Question: "Explain briefly.", Point: 3,
			Answer: models.TextAnswer("short answer"), Code: "x = 1", Explanation: "brief",
		}
	case "long_question":
		question = models.Question{
			Type: models.LongAnswer, Question: "Explain at length.", Point: 6,
			Answer: models.TextAnswer("long answer"), Code: "y = 2", Explanation: "thorough",
		}
	default:
		t.Fatalf("unknown schema %q", spec.SchemaName)
	}

	data, err := json.Marshal(question)
	require.NoError(t, err)
	return data
}

// queueResponses replays the generation service's random draws so each
// canned response matches the spec the service will pick.
func queueResponses(t *testing.T, provider *llm.MockProvider, seed int64, count int) []GenerationSpec {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	specs := GenerationSpecs()
	picked := make([]GenerationSpec, 0, count)
	for i := 0; i < count; i++ {
		spec := specs[rng.Intn(len(specs))]
		_ = promptModifiers[rng.Intn(len(promptModifiers))]
		picked = append(picked, spec)
		provider.AddResponse(llm.MockResponse{Content: validQuestionJSON(t, spec)})
	}
	return picked
}

func newGenerationService(provider *llm.MockProvider, retriever ContextBuilder, publisher events.EventPublisher, seed int64) QuizGenerationService {
	return NewQuizGenerationService(provider, retriever, publisher, testLogger(), rand.New(rand.NewSource(seed)))
}

func TestGenerateQuiz_ProducesRequestedCount(t *testing.T) {
	const seed = 42
	provider := llm.NewMockProvider()
	picked := queueResponses(t, provider, seed, 5)
	svc := newGenerationService(provider, nil, nil, seed)

	quiz, err := svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content:       "Object-oriented programming notes.",
		Difficulty:    "Medium",
		Language:      "English",
		QuestionCount: 5,
		Prompt:        "focus on OOP",
	})
	require.NoError(t, err)
	require.Len(t, quiz.Quiz, 5)

	// Questions come back in generation order with the picked type tags.
	for i, q := range quiz.Quiz {
		assert.Equal(t, picked[i].Type, q.Type, "question %d", i)
	}
	assert.Equal(t, 5, provider.CallCount())
}

func TestGenerateQuiz_PromptComposition(t *testing.T) {
	const seed = 7
	provider := llm.NewMockProvider()
	picked := queueResponses(t, provider, seed, 1)
	svc := newGenerationService(provider, nil, nil, seed)

	_, err := svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content:       "Notes on recursion.",
		Difficulty:    "Hard",
		Language:      "Chinese",
		QuestionCount: 1,
		Prompt:        "emphasize base cases",
	})
	require.NoError(t, err)

	call := provider.Calls[0]
	assert.Contains(t, call.System, "creating questions in Chinese")
	assert.Contains(t, call.System, "generate all questions, answers, and explanations in Chinese")
	assert.Contains(t, call.System, "difficulty equal to Hard")
	assert.Contains(t, call.System, "Here is the user-uploaded content:\nNotes on recursion.")
	assert.Contains(t, call.System, "Here is the user prompt:\nemphasize base cases")
	assert.NotContains(t, call.System, "retrieved context from reference materials")
	assert.Contains(t, call.System, "Make sure to set the type field exactly as '"+string(picked[0].Type)+"'")

	require.NotNil(t, call.Schema)
	assert.Equal(t, picked[0].SchemaName, call.Schema.Name)
	assert.Equal(t, picked[0].Instruction, call.Messages[0].Content)
}

func TestGenerateQuiz_WithRetrievedContext(t *testing.T) {
	const seed = 3
	provider := llm.NewMockProvider()
	queueResponses(t, provider, seed, 1)
	retriever := &stubContextBuilder{context: "retrieved passage about stacks"}
	svc := newGenerationService(provider, retriever, nil, seed)

	_, err := svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content:       "Data structures.",
		Difficulty:    "Easy",
		Language:      "English",
		QuestionCount: 1,
		Collections:   []string{"cs101"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, retriever.calls)
	assert.Contains(t, provider.Calls[0].System,
		"Here is the retrieved context from reference materials:\nretrieved passage about stacks")
}

func TestGenerateQuiz_AbortsOnFailure(t *testing.T) {
	const seed = 11
	provider := llm.NewMockProvider()
	queueResponses(t, provider, seed, 1)
	provider.AddResponse(llm.MockResponse{Err: errors.New("model unavailable")})
	svc := newGenerationService(provider, nil, nil, seed)

	quiz, err := svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content:       "notes",
		Difficulty:    "Easy",
		Language:      "English",
		QuestionCount: 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuizGenerationFailed)
	assert.Nil(t, quiz)
	// No further calls after the failing question.
	assert.Equal(t, 2, provider.CallCount())
}

func TestGenerateQuiz_InputValidation(t *testing.T) {
	svc := newGenerationService(llm.NewMockProvider(), nil, nil, 1)

	_, err := svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content: "  ", Language: "English", QuestionCount: 1,
	})
	assert.ErrorIs(t, err, ErrQuizEmptyContent)

	_, err = svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content: "notes", Language: "French", QuestionCount: 1,
	})
	assert.ErrorIs(t, err, ErrQuizUnsupportedLang)

	_, err = svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content: "notes", Language: "English", QuestionCount: 0,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGenerateQuiz_PublishesEvent(t *testing.T) {
	const seed = 5
	provider := llm.NewMockProvider()
	queueResponses(t, provider, seed, 2)
	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newGenerationService(provider, nil, publisher, seed)

	_, err := svc.GenerateQuiz(context.Background(), GenerateQuizRequest{
		Content:       "notes",
		Difficulty:    "Medium",
		Language:      "English",
		QuestionCount: 2,
	})
	require.NoError(t, err)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventQuizGenerated, publisher.Events[0].Type)
	payload, ok := publisher.Events[0].Data.(events.QuizGeneratedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, payload.QuestionCount)
	assert.Equal(t, "Medium", payload.Difficulty)
	assert.Equal(t, "mock", payload.Model)
}
