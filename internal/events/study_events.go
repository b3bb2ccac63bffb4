package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different kinds of lifecycle events
type EventType string

const (
	EventQuizGenerated    EventType = "quiz.generated"
	EventQuizGraded       EventType = "quiz.graded"
	EventSummaryGenerated EventType = "summary.generated"
	EventDocumentUploaded EventType = "document.uploaded"
)

const eventSource = "study-service"

// Event is the base structure for all published lifecycle events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type QuizGeneratedEvent struct {
	QuestionCount int      `json:"question_count"`
	Difficulty    string   `json:"difficulty"`
	Language      string   `json:"language"`
	Collections   []string `json:"collections,omitempty"`
	Model         string   `json:"model"`
}

type QuizGradedEvent struct {
	QuestionCount int    `json:"question_count"`
	TotalScore    string `json:"total_score"`
}

type SummaryGeneratedEvent struct {
	Collections []string `json:"collections,omitempty"`
	SourceCount int      `json:"source_count"`
}

type DocumentUploadedEvent struct {
	Filename   string `json:"filename"`
	Collection string `json:"collection"`
	CourseCode string `json:"course_code"`
	Topic      string `json:"topic"`
	ChunkCount int    `json:"chunk_count"`
}

// Event factory functions

func NewQuizGeneratedEvent(questionCount int, difficulty, language string, collections []string, model string) *Event {
	return newEvent(EventQuizGenerated, QuizGeneratedEvent{
		QuestionCount: questionCount,
		Difficulty:    difficulty,
		Language:      language,
		Collections:   collections,
		Model:         model,
	})
}

func NewQuizGradedEvent(questionCount int, totalScore string) *Event {
	return newEvent(EventQuizGraded, QuizGradedEvent{
		QuestionCount: questionCount,
		TotalScore:    totalScore,
	})
}

func NewSummaryGeneratedEvent(collections []string, sourceCount int) *Event {
	return newEvent(EventSummaryGenerated, SummaryGeneratedEvent{
		Collections: collections,
		SourceCount: sourceCount,
	})
}

func NewDocumentUploadedEvent(filename, collection, courseCode, topic string, chunkCount int) *Event {
	return newEvent(EventDocumentUploaded, DocumentUploadedEvent{
		Filename:   filename,
		Collection: collection,
		CourseCode: courseCode,
		Topic:      topic,
		ChunkCount: chunkCount,
	})
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}
