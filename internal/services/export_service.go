package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

type ExportService interface {
	// ExportQuizToExcel renders a quiz as an xlsx workbook.
	ExportQuizToExcel(ctx context.Context, quiz *models.Quiz) ([]byte, error)
}

type exportService struct {
	logger utils.Logger
}

func NewExportService(logger utils.Logger) ExportService {
	return &exportService{logger: logger.With("component", "export")}
}

func (s *exportService) ExportQuizToExcel(ctx context.Context, quiz *models.Quiz) ([]byte, error) {
	if quiz == nil || len(quiz.Quiz) == 0 {
		return nil, ErrExportEmptyQuiz
	}

	f := excelize.NewFile()
	sheetName := "Quiz"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Type", "Question", "Choices", "Answer", "Points", "Code", "Explanation"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, question := range quiz.Quiz {
		row := []interface{}{
			string(question.Type),
			question.Question,
			strings.Join(question.Choices, "; "),
			answerCell(question.Answer),
			question.Point,
			question.Code,
			question.Explanation,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "Quiz exported", "question_count", len(quiz.Quiz))
	return buf.Bytes(), nil
}

// answerCell renders an answer for a spreadsheet cell; ordered answers
// read as a sequence.
func answerCell(answer models.Answer) string {
	if answer.IsList {
		return strings.Join(answer.List, " -> ")
	}
	return answer.Text
}
