package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/utils"
)

// defaultSummaryQuestion is asked when the caller gives no query of
// their own.
const defaultSummaryQuestion = "Please summarize the above content."

// summaryPromptTemplate carries {context} and {question} slots filled in
// per request.
const summaryPromptTemplate = `
You are an AI language model tasked with processing documents and generating comprehensive summaries. Your response should follow these guidelines:

1. **Structure**: Organize the content in markdown format with clear section headings.

2. **Content**: Include:
   - Key concepts and definitions
   - Important examples and their explanations
   - Significant findings or conclusions
   - Practical applications or implications

3. **Format**: Use markdown features effectively:
   - Use headings (# ## ###) for organization
   - Use bullet points for lists
   - Use bold and italic for emphasis
   - Include code blocks where relevant
   - Create tables if needed
   - Always use '$' for inline equations and '$$' for block equations.
   - Avoid using '$' for dollar currency. Use "USD" instead.
   - **When appropriate, use Mermaid syntax to create diagrams and visualizations to aid understanding.  If the document describes processes, relationships, hierarchies, or workflows, consider using Mermaid to represent them visually.**  Enclose Mermaid code within a markdown code block with the language specified as ` + "`mermaid`" + `.

4. **Comprehensiveness**: Ensure the summary:
   - Covers all major points from the source material
   - Provides sufficient context for understanding
   - Maintains the original document's logical flow
   - Includes detailed explanations for complex concepts

Context from the documents: {context}

Based on the above context, generate a comprehensive markdown-formatted summary that captures all key information and maintains a clear, organized structure.  **Pay special attention to opportunities to visualize information using Mermaid diagrams.  Prioritize clarity and conciseness in both the textual and visual representations.**

Question: {question}
`

// SummarizeRequest carries the inputs for one summary.
type SummarizeRequest struct {
	ContentParts []string
	Query        string
	Collections  []string
	Filters      models.MetadataFilters
}

type SummaryService interface {
	Summarize(ctx context.Context, req SummarizeRequest) (*models.Summary, error)
}

type summaryService struct {
	provider  llm.Provider
	retriever RetrievalService
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewSummaryService(provider llm.Provider, retriever RetrievalService, publisher events.EventPublisher, logger utils.Logger) SummaryService {
	return &summaryService{
		provider:  provider,
		retriever: retriever,
		publisher: publisher,
		logger:    logger.With("component", "summary"),
	}
}

// Summarize produces a markdown summary. Without collections the content
// is summarized directly; with collections it is enriched with retrieved
// reference material and the response carries deduplicated sources.
func (s *summaryService) Summarize(ctx context.Context, req SummarizeRequest) (*models.Summary, error) {
	fullContext := strings.Join(req.ContentParts, "\n\n---\n\n")
	if strings.TrimSpace(fullContext) == "" && len(req.Collections) == 0 {
		return nil, ErrSummaryEmptyContent
	}

	var summary *models.Summary
	var err error
	if len(req.Collections) == 0 {
		summary, err = s.directSummary(ctx, fullContext)
	} else {
		summary, err = s.groundedSummary(ctx, fullContext, req)
	}
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := events.NewSummaryGeneratedEvent(req.Collections, len(summary.Sources))
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish summary.generated event", "error", err)
		}
	}
	return summary, nil
}

func (s *summaryService) directSummary(ctx context.Context, docContext string) (*models.Summary, error) {
	content, err := s.generateSummary(ctx, docContext, defaultSummaryQuestion)
	if err != nil {
		return nil, err
	}
	return &models.Summary{Content: content, Sources: []models.SummarySource{}}, nil
}

func (s *summaryService) groundedSummary(ctx context.Context, docContext string, req SummarizeRequest) (*models.Summary, error) {
	query := req.Query
	if query == "" {
		query = docContext
	}

	passages, err := s.retriever.SearchPassages(ctx, query, req.Collections, req.Filters, DefaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieve reference materials: %w", err)
	}

	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		contents = append(contents, p.Content)
	}
	dbContent := strings.Join(contents, "\n\n")
	completeContext := fmt.Sprintf("%s\n\n---\n\nRelevant Reference Materials:\n\n%s", docContext, dbContent)

	question := req.Query
	if question == "" {
		question = defaultSummaryQuestion
	}

	content, err := s.generateSummary(ctx, completeContext, question)
	if err != nil {
		return nil, err
	}

	return &models.Summary{
		Content: content,
		Sources: dedupSources(passages),
	}, nil
}

func (s *summaryService) generateSummary(ctx context.Context, docContext, question string) (string, error) {
	prompt := strings.NewReplacer(
		"{context}", docContext,
		"{question}", question,
	).Replace(summaryPromptTemplate)

	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummaryFailed, err)
	}
	return string(resp.Content), nil
}

// dedupSources keeps one source per (filename, course_code) pair,
// preserving first-seen order. Missing metadata values become "Unknown".
func dedupSources(passages []models.Passage) []models.SummarySource {
	sources := make([]models.SummarySource, 0, len(passages))
	seen := make(map[[2]string]bool)
	for _, p := range passages {
		source := models.SummarySource{
			Filename:   orUnknown(p.Metadata.Filename),
			CourseCode: orUnknown(p.Metadata.CourseCode),
			Type:       orUnknown(p.Metadata.Type),
			Topic:      orUnknown(p.Metadata.Topic),
			Collection: orUnknown(p.Collection),
		}
		key := [2]string{source.Filename, source.CourseCode}
		if seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, source)
	}
	return sources
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
