package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func submittedMC(answer, userAnswer string) models.SubmittedQuestion {
	return models.SubmittedQuestion{
		Question: models.Question{
			Type:        models.MultipleChoice,
			Question:    "Which of the following is not a principle of OOP?",
			Point:       1,
			Choices:     []string{"Encapsulation", "Polymorphism", "Abstraction", "Compilation"},
			Answer:      models.TextAnswer(answer),
			Explanation: "Compilation is not an OOP principle.",
		},
		UserAnswer: []string{userAnswer},
	}
}

func TestGradeQuiz_AbsoluteMatching(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: []byte("Keep practicing!")}, // performance analysis
	)
	svc := NewQuizGradingService(provider, nil, testLogger())

	quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{
		submittedMC("Compilation", "Compilation"),
		{
			Question: models.Question{
				Type:        models.TrueFalse,
				Question:    "Is inheritance a feature of OOP?",
				Point:       1,
				Choices:     []string{"True", "False"},
				Answer:      models.TextAnswer("True"),
				Explanation: "Inheritance is a core OOP feature.",
			},
			UserAnswer: []string{"False"},
		},
	}}

	result, err := svc.GradeQuiz(context.Background(), quiz)
	require.NoError(t, err)

	assert.Equal(t, "1/2", result.TotalScore)
	require.Len(t, result.Result, 2)
	assert.Equal(t, "1/1", result.Result[0].Correct)
	assert.Equal(t, "Compilation is not an OOP principle.", result.Result[0].Explanation)
	assert.Equal(t, "0/1", result.Result[1].Correct)
	assert.Equal(t, "Keep practicing!", result.PerformanceComment)
}

func TestGradeQuiz_OrderingPartialCredit(t *testing.T) {
	steps := []string{"Define a class", "Define methods", "Create the object", "Use the object"}

	tests := []struct {
		name       string
		userAnswer []string
		want       string
	}{
		{"all positions match", steps, "4/4"},
		{"half match", []string{"Define a class", "Define methods", "Use the object", "Create the object"}, "2/4"},
		{"no match", []string{"Use the object", "Create the object", "Define methods", "Define a class"}, "0/4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("ok")})
			svc := NewQuizGradingService(provider, nil, testLogger())

			quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{{
				Question: models.Question{
					Type:        models.Ordering,
					Question:    "Order the steps.",
					Point:       4,
					Choices:     steps,
					Answer:      models.ListAnswer(steps),
					Explanation: "Class first, object last.",
				},
				UserAnswer: tt.userAnswer,
			}}}

			result, err := svc.GradeQuiz(context.Background(), quiz)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Result[0].Correct)
		})
	}
}

func TestGradeQuiz_OrderingFractionalScore(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("ok")})
	svc := NewQuizGradingService(provider, nil, testLogger())

	quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{{
		Question: models.Question{
			Type:     models.Ordering,
			Question: "Order two items.",
			Point:    1,
			Choices:  []string{"first", "second"},
			Answer:   models.ListAnswer([]string{"first", "second"}),
		},
		UserAnswer: []string{"first", "wrong"},
	}}}

	result, err := svc.GradeQuiz(context.Background(), quiz)
	require.NoError(t, err)
	assert.Equal(t, "0.5/1", result.Result[0].Correct)
	assert.Equal(t, "0.5/1", result.TotalScore)
}

func TestGradeQuiz_ModelGraded(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: []byte("Score: 2/3\nEvaluation: Good effort, but incomplete.")},
		llm.MockResponse{Content: []byte("Solid attempt overall.")},
	)
	svc := NewQuizGradingService(provider, nil, testLogger())

	quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{{
		Question: models.Question{
			Type:     models.ShortAnswer,
			Question: "What is a constructor?",
			Point:    3,
			Answer:   models.TextAnswer("A special method called on object creation."),
		},
		UserAnswer: []string{"A method that runs when you create an object"},
	}}}

	result, err := svc.GradeQuiz(context.Background(), quiz)
	require.NoError(t, err)

	assert.Equal(t, "2/3", result.Result[0].Correct)
	assert.Equal(t, "Correct Answer: A special method called on object creation.; Feedback: Good effort, but incomplete.", result.Result[0].Explanation)
	assert.Equal(t, "Solid attempt overall.", result.PerformanceComment)

	// The grading call carries the question text, answer and scale, not a
	// rendering of the question struct.
	require.GreaterOrEqual(t, provider.CallCount(), 1)
	wantPrompt := "Question: What is a constructor?\n" +
		"Correct Answer: A special method called on object creation.\n" +
		"User Answer: A method that runs when you create an object\n" +
		"Grade the user answer on a scale from 0 to 3 based on its correctness.\n" +
		"Provide feedback on the answer.\n" +
		"Ensure that you provide the score first and then give the evaluation."
	assert.Equal(t, wantPrompt, provider.Calls[0].Messages[0].Content)
}

func TestGradeQuiz_ModelScoreClamped(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantScore string
	}{
		{"above point", "Score: 10/3\nEvaluation: Over-generous.", "3/3"},
		{"below zero", "Score: -2/3\nEvaluation: Punitive.", "0/3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llm.NewMockProvider(
				llm.MockResponse{Content: []byte(tt.response)},
				llm.MockResponse{Content: []byte("ok")},
			)
			svc := NewQuizGradingService(provider, nil, testLogger())

			quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{{
				Question: models.Question{
					Type:     models.LongAnswer,
					Question: "Explain polymorphism.",
					Point:    3,
					Answer:   models.TextAnswer("Different objects respond to the same call differently."),
				},
				UserAnswer: []string{"Everything."},
			}}}

			result, err := svc.GradeQuiz(context.Background(), quiz)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, result.Result[0].Correct)
			assert.Equal(t, tt.wantScore, result.TotalScore)
		})
	}
}

func TestParseGradingResponse(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantScore    int
		wantFeedback string
	}{
		{
			name:         "score and evaluation",
			response:     "Score: 2/3\nEvaluation: Mostly right.",
			wantScore:    2,
			wantFeedback: "Mostly right.",
		},
		{
			name:         "no score",
			response:     "The answer looks fine.",
			wantScore:    0,
			wantFeedback: "No score provided.",
		},
		{
			name:         "score without evaluation",
			response:     "Score: 1/2",
			wantScore:    1,
			wantFeedback: "No evaluation provided.",
		},
		{
			name:      "malformed score",
			response:  "Score: two/3\nEvaluation: n/a",
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, feedback := parseGradingResponse(tt.response)
			assert.Equal(t, tt.wantScore, score)
			if tt.wantFeedback != "" {
				assert.Equal(t, tt.wantFeedback, feedback)
			} else {
				assert.Contains(t, feedback, "Error parsing response:")
			}
		})
	}
}

func TestGradeQuiz_UnknownTypeSkipped(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("ok")})
	svc := NewQuizGradingService(provider, nil, testLogger())

	quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{
		submittedMC("Compilation", "Compilation"),
		{
			Question: models.Question{
				Type:     "Essay",
				Question: "Write an essay.",
				Point:    10,
				Answer:   models.TextAnswer("n/a"),
			},
			UserAnswer: []string{"..."},
		},
	}}

	result, err := svc.GradeQuiz(context.Background(), quiz)
	require.NoError(t, err)

	// The unknown question contributes to neither the results nor the total.
	require.Len(t, result.Result, 1)
	assert.Equal(t, "1/1", result.TotalScore)
}

func TestGradeQuiz_EmptyQuiz(t *testing.T) {
	svc := NewQuizGradingService(llm.NewMockProvider(), nil, testLogger())

	_, err := svc.GradeQuiz(context.Background(), &models.SubmittedQuiz{})
	assert.ErrorIs(t, err, ErrQuizNoQuestions)

	_, err = svc.GradeQuiz(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQuizNoQuestions)
}

func TestGradeQuiz_PublishesEvent(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("ok")})
	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewQuizGradingService(provider, publisher, testLogger())

	quiz := &models.SubmittedQuiz{Quiz: []models.SubmittedQuestion{
		submittedMC("Compilation", "Compilation"),
	}}

	_, err := svc.GradeQuiz(context.Background(), quiz)
	require.NoError(t, err)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventQuizGraded, publisher.Events[0].Type)
	payload, ok := publisher.Events[0].Data.(events.QuizGradedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, payload.QuestionCount)
	assert.Equal(t, "1/1", payload.TotalScore)
}
