package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatHistory is one persisted exchange (user message + assistant reply)
// belonging to a chat session.
type ChatHistory struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"userId" gorm:"column:user_id;index;size:255"`
	SessionID string         `json:"sessionId" gorm:"column:session_id;index;size:36"`
	History   datatypes.JSON `json:"history" gorm:"type:jsonb"`
	ChatTime  time.Time      `json:"chatTime" gorm:"column:chat_time;autoCreateTime;index"`
}

func (ChatHistory) TableName() string {
	return "chat_histories"
}

// ChatMessage is a single turn inside a history record or an incoming
// chat request.
type ChatMessage struct {
	Type      string `json:"type"` // "human" or "ai"
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// HistoryRecord is the JSON payload stored in ChatHistory.History.
type HistoryRecord struct {
	Messages []ChatMessage `json:"messages"`
	Chatbot  string        `json:"chatbot"`
	Status   *string       `json:"status"`
}

// FollowupChatRequest answers questions about a finished quiz.
type FollowupChatRequest struct {
	Quiz        string        `json:"quiz"`
	Result      string        `json:"result"`
	Message     string        `json:"message" validate:"required"`
	ChatHistory []ChatMessage `json:"chatHistory"`
	UserID      string        `json:"userId"`
}

// CareerChatRequest drives the career advising chatbot. Session
// resolution: a new session when IsNewSession is set, the given
// SessionID otherwise, falling back to the user's latest session.
type CareerChatRequest struct {
	UserID       string `json:"userId"`
	SessionID    string `json:"sessionId"`
	IsNewSession bool   `json:"isNewSession"`
	Message      string `json:"message" validate:"required"`
}
