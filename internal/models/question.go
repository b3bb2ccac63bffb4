package models

import (
	"encoding/json"
	"fmt"
)

// QuestionType is the wire tag discriminating question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "MC"
	TrueFalse      QuestionType = "T/F"
	Ordering       QuestionType = "Ordering"
	FillBlank      QuestionType = "Fill_blank"
	ShortAnswer    QuestionType = "Short_qs"
	LongAnswer     QuestionType = "Long_qs"
)

// Answer holds a question's canonical answer. On the wire it is a plain
// string for every type except Ordering, where it is an array of strings
// in the correct order.
type Answer struct {
	Text   string
	List   []string
	IsList bool
}

// TextAnswer builds a single-string answer.
func TextAnswer(s string) Answer {
	return Answer{Text: s}
}

// ListAnswer builds an ordered answer.
func ListAnswer(items []string) Answer {
	return Answer{List: items, IsList: true}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList {
		return json.Marshal(a.List)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Text = s
		a.List = nil
		a.IsList = false
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		a.List = list
		a.Text = ""
		a.IsList = true
		return nil
	}

	return fmt.Errorf("answer must be a string or an array of strings")
}

// Question is a single generated quiz question.
type Question struct {
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Point       int          `json:"point"`
	Choices     []string     `json:"choices,omitempty"`
	Code        string       `json:"code,omitempty"`
	Answer      Answer       `json:"answer"`
	Explanation string       `json:"explanation"`
}

// Quiz is the generation response envelope.
type Quiz struct {
	Quiz []Question `json:"quiz"`
}

// SubmittedQuestion is a question plus the answer the user gave.
// Single-valued answers arrive as a one-element array.
type SubmittedQuestion struct {
	Question
	UserAnswer []string `json:"user_answer"`
}

// SubmittedQuiz is the grading request envelope.
type SubmittedQuiz struct {
	Quiz []SubmittedQuestion `json:"quiz"`
}
