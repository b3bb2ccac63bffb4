package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/studymate/study-service/internal/models"
	"gorm.io/gorm"
)

// ChatHistoryRepository persists and retrieves chatbot exchanges.
type ChatHistoryRepository interface {
	Insert(ctx context.Context, history *models.ChatHistory) error

	// LatestSessionID returns the most recently used session for a user,
	// or "" when the user has no history yet.
	LatestSessionID(ctx context.Context, userID string) (string, error)

	// SessionIDs returns up to limit distinct session ids for a user,
	// most recent first.
	SessionIDs(ctx context.Context, userID string, limit int) ([]string, error)

	// HistoryBySession returns a session's exchanges ordered by time.
	HistoryBySession(ctx context.Context, sessionID string) ([]models.ChatHistory, error)
}

type gormChatHistoryRepository struct {
	db *gorm.DB
}

// NewChatHistoryRepository creates a Postgres-backed repository.
func NewChatHistoryRepository(db *gorm.DB) ChatHistoryRepository {
	return &gormChatHistoryRepository{db: db}
}

func (r *gormChatHistoryRepository) Insert(ctx context.Context, history *models.ChatHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("insert chat history: %w", err)
	}
	return nil
}

func (r *gormChatHistoryRepository) LatestSessionID(ctx context.Context, userID string) (string, error) {
	var row models.ChatHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("chat_time DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("latest session for user %q: %w", userID, err)
	}
	return row.SessionID, nil
}

func (r *gormChatHistoryRepository) SessionIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	var rows []models.ChatHistory
	err := r.db.WithContext(ctx).
		Select("session_id", "chat_time").
		Where("user_id = ?", userID).
		Order("chat_time DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sessions for user %q: %w", userID, err)
	}

	// Deduplicate preserving recency order.
	sessionIDs := make([]string, 0, limit)
	seen := make(map[string]bool)
	for _, row := range rows {
		if len(sessionIDs) >= limit {
			break
		}
		if seen[row.SessionID] {
			continue
		}
		seen[row.SessionID] = true
		sessionIDs = append(sessionIDs, row.SessionID)
	}
	return sessionIDs, nil
}

func (r *gormChatHistoryRepository) HistoryBySession(ctx context.Context, sessionID string) ([]models.ChatHistory, error) {
	var rows []models.ChatHistory
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("chat_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history for session %q: %w", sessionID, err)
	}
	return rows, nil
}
