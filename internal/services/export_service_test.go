package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/studymate/study-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportQuizToExcel(t *testing.T) {
	svc := NewExportService(testLogger())

	quiz := &models.Quiz{Quiz: []models.Question{
		{
			Type:        models.MultipleChoice,
			Question:    "Which is not an OOP principle?",
			Point:       1,
			Choices:     []string{"Encapsulation", "Compilation"},
			Answer:      models.TextAnswer("Compilation"),
			Explanation: "Compilation is not a principle.",
		},
		{
			Type:        models.Ordering,
			Question:    "Order the steps.",
			Point:       4,
			Choices:     []string{"Define a class", "Create the object"},
			Answer:      models.ListAnswer([]string{"Define a class", "Create the object"}),
			Explanation: "Class first.",
		},
		{
			Type:        models.ShortAnswer,
			Question:    "What is a constructor?",
			Point:       3,
			Code:        "class Person:\n    pass",
			Answer:      models.TextAnswer("A special method."),
			Explanation: "Runs on creation.",
		},
	}}

	data, err := svc.ExportQuizToExcel(context.Background(), quiz)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Quiz")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"Type", "Question", "Choices", "Answer", "Points", "Code", "Explanation"}, rows[0])

	assert.Equal(t, "MC", rows[1][0])
	assert.Equal(t, "Encapsulation; Compilation", rows[1][2])
	assert.Equal(t, "Compilation", rows[1][3])
	assert.Equal(t, "1", rows[1][4])

	// Ordered answers read as a sequence.
	assert.Equal(t, "Define a class -> Create the object", rows[2][3])

	assert.Equal(t, "Short_qs", rows[3][0])
	assert.Equal(t, "class Person:\n    pass", rows[3][5])
}

func TestExportQuizToExcel_EmptyQuiz(t *testing.T) {
	svc := NewExportService(testLogger())

	_, err := svc.ExportQuizToExcel(context.Background(), &models.Quiz{})
	assert.ErrorIs(t, err, ErrExportEmptyQuiz)

	_, err = svc.ExportQuizToExcel(context.Background(), nil)
	assert.ErrorIs(t, err, ErrExportEmptyQuiz)
}
