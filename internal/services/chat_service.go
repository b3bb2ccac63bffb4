package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/repositories"
	"github.com/studymate/study-service/internal/utils"
)

const followupSystemPrompt = "You are a helpful and friendly expert for Computer Science students.\n" +
	"Use the following pieces of retrieved context and quiz to answer students' questions.\n\n"

const advisingSystemPrompt = "You are a critical thinker career advisor.\n" +
	"Your purpose is to plan and write a realistic and structured detailed career plan for computer science students.\n" +
	"Please search for sources before continuing.\n" +
	"Please use the latest information.\n" +
	"If the response uses any sources, please respond with the following structure.\n\n" +
	"Content: [Your main response here]\n\n" +
	"Sources:\n" +
	"- (source name)[source url]"

const guidanceSystemPrompt = "You are a computer science university student.\n" +
	"Your task is to generate exactly 3 unique questions about achieving career goals, each in one sentence.\n" +
	"Generate only questions that do not repeat and have a similarity score of less than 0.2.\n" +
	"Exclude the numerical prefix."

// Chatbot names stored alongside each persisted exchange.
const (
	chatbotFollowup      = "followup"
	chatbotCareerAdvisor = "careerAdvisor"
)

// sessionListLimit caps how many sessions a user can list.
const sessionListLimit = 5

// CareerChatResponse is the advisor's reply bound to its session.
type CareerChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type ChatService interface {
	// FollowupChat answers a question about a finished quiz using the quiz
	// and its grading result as context.
	FollowupChat(ctx context.Context, req models.FollowupChatRequest) (string, error)

	// CareerAdvice runs one career-advising turn and persists the exchange.
	CareerAdvice(ctx context.Context, req models.CareerChatRequest) (*CareerChatResponse, error)

	// Guidance generates starter questions for a fresh advising session.
	Guidance(ctx context.Context) ([]string, error)

	// Sessions lists the user's most recent session ids.
	Sessions(ctx context.Context, userID string) ([]string, error)

	// HistoryBySession returns the stored history payloads of one session.
	HistoryBySession(ctx context.Context, sessionID string) ([]json.RawMessage, error)

	// HistoryByUser returns the history of the user's latest session.
	HistoryByUser(ctx context.Context, userID string) ([]json.RawMessage, error)
}

type chatService struct {
	provider llm.Provider
	history  repositories.ChatHistoryRepository
	logger   utils.Logger
}

func NewChatService(provider llm.Provider, history repositories.ChatHistoryRepository, logger utils.Logger) ChatService {
	return &chatService{
		provider: provider,
		history:  history,
		logger:   logger.With("component", "chat"),
	}
}

func (s *chatService) FollowupChat(ctx context.Context, req models.FollowupChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", ErrChatEmptyMessage
	}

	quizContext := req.Quiz
	if req.Result != "" {
		quizContext += "\n\n" + req.Result
	}

	messages := make([]llm.Message, 0, len(req.ChatHistory)+1)
	for _, m := range req.ChatHistory {
		role := llm.RoleUser
		if m.Type == "ai" {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:   followupSystemPrompt + quizContext,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("followup chat: %w", err)
	}
	return string(resp.Content), nil
}

func (s *chatService) CareerAdvice(ctx context.Context, req models.CareerChatRequest) (*CareerChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrChatEmptyMessage
	}

	sessionID, err := s.resolveSessionID(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:   advisingSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: req.Message}},
	})
	if err != nil {
		return nil, fmt.Errorf("career advice: %w", err)
	}
	answer := string(resp.Content)

	if err := s.saveExchange(ctx, req.UserID, sessionID, req.Message, answer, chatbotCareerAdvisor); err != nil {
		// The reply is still useful without the stored exchange.
		s.logger.ErrorContext(ctx, "Failed to persist chat exchange",
			"session_id", sessionID,
			"error", err)
	}

	return &CareerChatResponse{Message: answer, SessionID: sessionID}, nil
}

// resolveSessionID picks the session for this turn: a fresh one when the
// client asks for it, the provided one, or the user's latest.
func (s *chatService) resolveSessionID(ctx context.Context, req models.CareerChatRequest) (string, error) {
	if req.IsNewSession {
		return uuid.NewString(), nil
	}
	if req.SessionID != "" {
		return req.SessionID, nil
	}
	if req.UserID != "" {
		latest, err := s.history.LatestSessionID(ctx, req.UserID)
		if err != nil {
			return "", fmt.Errorf("resolve session: %w", err)
		}
		if latest != "" {
			return latest, nil
		}
	}
	return uuid.NewString(), nil
}

func (s *chatService) saveExchange(ctx context.Context, userID, sessionID, userMessage, aiMessage, chatbot string) error {
	record := models.HistoryRecord{
		Messages: []models.ChatMessage{
			{
				Type:      "human",
				Content:   userMessage,
				CreatedAt: time.Now().Format("2006-01-02, 15:04:05.000000"),
			},
			{
				Type:    "ai",
				Content: aiMessage,
			},
		},
		Chatbot: chatbot,
		Status:  nil,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	return s.history.Insert(ctx, &models.ChatHistory{
		UserID:    userID,
		SessionID: sessionID,
		History:   payload,
	})
}

func (s *chatService) Guidance(ctx context.Context) ([]string, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:   guidanceSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: ""}},
	})
	if err != nil {
		return nil, fmt.Errorf("generate guidance: %w", err)
	}

	var guidance []string
	for _, line := range strings.Split(string(resp.Content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		guidance = append(guidance, line)
	}
	return guidance, nil
}

func (s *chatService) Sessions(ctx context.Context, userID string) ([]string, error) {
	return s.history.SessionIDs(ctx, userID, sessionListLimit)
}

func (s *chatService) HistoryBySession(ctx context.Context, sessionID string) ([]json.RawMessage, error) {
	rows, err := s.history.HistoryBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		history = append(history, json.RawMessage(row.History))
	}
	return history, nil
}

func (s *chatService) HistoryByUser(ctx context.Context, userID string) ([]json.RawMessage, error) {
	sessionID, err := s.history.LatestSessionID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return []json.RawMessage{}, nil
	}
	return s.HistoryBySession(ctx, sessionID)
}
