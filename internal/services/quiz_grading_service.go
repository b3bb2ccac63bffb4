package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
)

const gradingSystemPrompt = "You are an AI grading assistant. Your task is to evaluate student responses to quiz questions " +
	"based on the provided correct answers. You should assess the accuracy of the answers, provide a score that reflects " +
	"the correctness (from 0 to the total possible points for the question), and offer constructive feedback. " +
	"Make sure to be fair, objective, and clear in your evaluations. Consider the following when grading: " +
	"completeness, relevance, and correctness of the answer."

const performanceSystemPrompt = "You are an AI assistant that provides insights and suggestions for improvement based on quiz results."

type QuizGradingService interface {
	GradeQuiz(ctx context.Context, quiz *models.SubmittedQuiz) (*models.QuizResult, error)
}

type quizGradingService struct {
	provider  llm.Provider
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewQuizGradingService(provider llm.Provider, publisher events.EventPublisher, logger utils.Logger) QuizGradingService {
	return &quizGradingService{
		provider:  provider,
		publisher: publisher,
		logger:    logger.With("component", "quiz_grading"),
	}
}

// GradeQuiz grades every question in the submission. Choice questions are
// compared exactly, ordering questions earn positional partial credit, and
// free-text questions are graded by the model. Questions with an unknown
// type are skipped and excluded from both the results and the total.
func (s *quizGradingService) GradeQuiz(ctx context.Context, quiz *models.SubmittedQuiz) (*models.QuizResult, error) {
	if quiz == nil || len(quiz.Quiz) == 0 {
		return nil, ErrQuizNoQuestions
	}

	var userPoints, totalPoints float64
	results := make([]models.QuestionResult, 0, len(quiz.Quiz))

	for i := range quiz.Quiz {
		question := &quiz.Quiz[i]

		var (
			earned      float64
			explanation string
			err         error
		)
		switch question.Type {
		case models.MultipleChoice, models.TrueFalse:
			earned, explanation = gradeAbsolute(question)
		case models.Ordering:
			earned, explanation = gradeOrdering(question)
		case models.FillBlank, models.ShortAnswer, models.LongAnswer:
			earned, explanation, err = s.gradeWithModel(ctx, question)
			if err != nil {
				return nil, fmt.Errorf("grade question %d: %w", i+1, err)
			}
		default:
			s.logger.WarnContext(ctx, "Skipping question with unknown type",
				"index", i,
				"question_type", string(question.Type))
			continue
		}

		results = append(results, models.QuestionResult{
			Correct:     formatScore(earned) + "/" + strconv.Itoa(question.Point),
			Explanation: explanation,
		})
		userPoints += earned
		totalPoints += float64(question.Point)
	}

	result := &models.QuizResult{
		TotalScore: formatScore(userPoints) + "/" + formatScore(totalPoints),
		Result:     results,
	}

	comment, err := s.analyzePerformance(ctx, quiz)
	if err != nil {
		return nil, fmt.Errorf("analyze performance: %w", err)
	}
	result.PerformanceComment = comment

	if s.publisher != nil {
		event := events.NewQuizGradedEvent(len(results), result.TotalScore)
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish quiz.graded event", "error", err)
		}
	}

	return result, nil
}

// gradeAbsolute awards full points when the first submitted answer matches
// the correct answer exactly.
func gradeAbsolute(q *models.SubmittedQuestion) (float64, string) {
	if len(q.UserAnswer) > 0 && q.Answer.Text == q.UserAnswer[0] {
		return float64(q.Point), q.Explanation
	}
	return 0, q.Explanation
}

// gradeOrdering awards partial credit proportional to the number of
// positions where the submitted order matches the correct order.
func gradeOrdering(q *models.SubmittedQuestion) (float64, string) {
	correct := q.Answer.List
	if len(correct) == 0 {
		return 0, q.Explanation
	}

	matches := 0
	for i, want := range correct {
		if i < len(q.UserAnswer) && q.UserAnswer[i] == want {
			matches++
		}
	}
	earned := float64(q.Point) * float64(matches) / float64(len(correct))
	return earned, q.Explanation
}

// gradeWithModel asks the model to score a free-text answer and parses the
// score and evaluation out of its reply.
func (s *quizGradingService) gradeWithModel(ctx context.Context, q *models.SubmittedQuestion) (float64, string, error) {
	prompt := fmt.Sprintf(
		"Question: %s\n"+
			"Correct Answer: %s\n"+
			"User Answer: %s\n"+
			"Grade the user answer on a scale from 0 to %d based on its correctness.\n"+
			"Provide feedback on the answer.\n"+
			"Ensure that you provide the score first and then give the evaluation.",
		q.Question.Question, q.Answer.Text, strings.Join(q.UserAnswer, " "), q.Point)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:   gradingSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return 0, "", err
	}

	score, feedback := parseGradingResponse(string(resp.Content))
	if score > q.Point {
		score = q.Point
	}
	if score < 0 {
		score = 0
	}

	explanation := fmt.Sprintf("Correct Answer: %s; Feedback: %s", q.Answer.Text, feedback)
	return float64(score), explanation, nil
}

// parseGradingResponse extracts "Score: N/M" and the "Evaluation:" section
// from the model's grading reply. Missing sections get placeholder text and
// a malformed score line reports the parse error as feedback.
func parseGradingResponse(response string) (int, string) {
	if !strings.Contains(response, "Score:") {
		return 0, "No score provided."
	}

	scoreLine := strings.SplitN(response, "Score:", 2)[1]
	scoreLine = strings.TrimSpace(strings.SplitN(scoreLine, "\n", 2)[0])
	numerator := strings.SplitN(scoreLine, "/", 2)[0]

	score, err := strconv.Atoi(strings.TrimSpace(numerator))
	if err != nil {
		return 0, fmt.Sprintf("Error parsing response: %v", err)
	}

	feedback := "No evaluation provided."
	if strings.Contains(response, "Evaluation:") {
		feedback = strings.TrimSpace(strings.SplitN(response, "Evaluation:", 2)[1])
	}
	return score, feedback
}

// analyzePerformance asks the model for a short performance commentary over
// the full graded submission.
func (s *quizGradingService) analyzePerformance(ctx context.Context, quiz *models.SubmittedQuiz) (string, error) {
	quizJSON, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal quiz: %w", err)
	}

	prompt := fmt.Sprintf(
		"You are a professor with expertise in the subject matter. Analyze the following quiz results and provide concise insights on the user's performance. "+
			"Identify specific topics or areas where the user needs improvement and suggest study materials or resources to help them improve. "+
			"Additionally, provide motivational comments to encourage the user. "+
			"Remember to address the user directly using 'you' in your sentences.\n\n"+
			"Quiz JSON:\n%s\n\n"+
			"Based on the above results, please provide the following in 6 sentences:\n"+
			"1. Concise insights on the user's performance.\n"+
			"2. Specific topics or areas where the user needs improvement.\n"+
			"3. Motivational comments to encourage the user.\n",
		quizJSON)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:   performanceSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return string(resp.Content), nil
}

// formatScore renders a score without a trailing ".0" for whole values, so
// full credit reads "4/4" while partial credit keeps its fraction ("2.5/4").
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
