package services

import (
	"context"
	"testing"

	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRetrieval serves canned passages for summary tests.
type stubRetrieval struct {
	passages  []models.Passage
	err       error
	lastQuery string
}

func (s *stubRetrieval) SearchPassages(_ context.Context, query string, _ []string, _ models.MetadataFilters, _ int) ([]models.Passage, error) {
	s.lastQuery = query
	return s.passages, s.err
}

func (s *stubRetrieval) BuildContext(ctx context.Context, query string, collections []string, filters models.MetadataFilters) (string, error) {
	passages, err := s.SearchPassages(ctx, query, collections, filters, DefaultSearchLimit)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	out := ""
	for i, part := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += part
	}
	return out, nil
}

func TestSummarize_Direct(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("# Summary\ncontent")})
	svc := NewSummaryService(provider, &stubRetrieval{}, nil, testLogger())

	summary, err := svc.Summarize(context.Background(), SummarizeRequest{
		ContentParts: []string{"part one", "part two"},
	})
	require.NoError(t, err)

	assert.Equal(t, "# Summary\ncontent", summary.Content)
	assert.Empty(t, summary.Sources)
	assert.NotNil(t, summary.Sources)

	prompt := provider.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "part one\n\n---\n\npart two")
	assert.Contains(t, prompt, "Question: Please summarize the above content.")
	assert.NotContains(t, prompt, "{context}")
	assert.NotContains(t, prompt, "{question}")
}

func TestSummarize_Grounded(t *testing.T) {
	retriever := &stubRetrieval{passages: []models.Passage{
		{
			Content:    "passage one",
			Metadata:   models.DocumentMetadata{Filename: "lecture1.pdf", CourseCode: "CS101", Type: ".pdf", Topic: "Arrays"},
			Collection: "cs101",
		},
		{
			Content:    "passage two",
			Metadata:   models.DocumentMetadata{Filename: "lecture1.pdf", CourseCode: "CS101", Type: ".pdf", Topic: "Arrays"},
			Collection: "cs101",
		},
		{
			Content:    "passage three",
			Metadata:   models.DocumentMetadata{Filename: "notes.md"},
			Collection: "cs102",
		},
	}}
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("grounded summary")})
	svc := NewSummaryService(provider, retriever, nil, testLogger())

	summary, err := svc.Summarize(context.Background(), SummarizeRequest{
		ContentParts: []string{"uploaded notes"},
		Query:        "summarize arrays",
		Collections:  []string{"cs101", "cs102"},
	})
	require.NoError(t, err)

	assert.Equal(t, "grounded summary", summary.Content)
	assert.Equal(t, "summarize arrays", retriever.lastQuery)

	prompt := provider.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "uploaded notes\n\n---\n\nRelevant Reference Materials:\n\npassage one\n\npassage two\n\npassage three")
	assert.Contains(t, prompt, "Question: summarize arrays")

	// Sources deduplicate on (filename, course_code); blanks become Unknown.
	require.Len(t, summary.Sources, 2)
	assert.Equal(t, models.SummarySource{
		Filename: "lecture1.pdf", CourseCode: "CS101", Type: ".pdf", Topic: "Arrays", Collection: "cs101",
	}, summary.Sources[0])
	assert.Equal(t, models.SummarySource{
		Filename: "notes.md", CourseCode: "Unknown", Type: "Unknown", Topic: "Unknown", Collection: "cs102",
	}, summary.Sources[1])
}

func TestSummarize_GroundedDefaultQuestion(t *testing.T) {
	retriever := &stubRetrieval{}
	provider := llm.NewMockProvider(llm.MockResponse{Content: []byte("ok")})
	svc := NewSummaryService(provider, retriever, nil, testLogger())

	_, err := svc.Summarize(context.Background(), SummarizeRequest{
		ContentParts: []string{"uploaded notes"},
		Collections:  []string{"cs101"},
	})
	require.NoError(t, err)

	// Without a query the content itself is the search query and the
	// default question is asked.
	assert.Equal(t, "uploaded notes", retriever.lastQuery)
	assert.Contains(t, provider.Calls[0].Messages[0].Content, "Question: Please summarize the above content.")
}

func TestSummarize_EmptyInput(t *testing.T) {
	svc := NewSummaryService(llm.NewMockProvider(), &stubRetrieval{}, nil, testLogger())

	_, err := svc.Summarize(context.Background(), SummarizeRequest{})
	assert.ErrorIs(t, err, ErrSummaryEmptyContent)
}
