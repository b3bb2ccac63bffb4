package services

import (
	"github.com/studymate/study-service/internal/cache"
	"github.com/studymate/study-service/internal/events"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/repositories"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/vectorstore"
	"gorm.io/gorm"
)

// ServiceManager bundles every service the HTTP layer depends on.
type ServiceManager interface {
	QuizGeneration() QuizGenerationService
	QuizGrading() QuizGradingService
	Summary() SummaryService
	Chat() ChatService
	Documents() DocumentService
	Retrieval() RetrievalService
	Export() ExportService
}

type serviceManager struct {
	quizGeneration QuizGenerationService
	quizGrading    QuizGradingService
	summary        SummaryService
	chat           ChatService
	documents      DocumentService
	retrieval      RetrievalService
	export         ExportService
}

// NewServiceManager wires the full service graph from shared
// infrastructure.
func NewServiceManager(
	provider llm.Provider,
	embedder llm.Embedder,
	pool *vectorstore.Pool,
	db *gorm.DB,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
) ServiceManager {
	retrieval := NewRetrievalService(pool, embedder, logger)
	chatRepo := repositories.NewChatHistoryRepository(db)

	return &serviceManager{
		quizGeneration: NewQuizGenerationService(provider, retrieval, publisher, logger, nil),
		quizGrading:    NewQuizGradingService(provider, publisher, logger),
		summary:        NewSummaryService(provider, retrieval, publisher, logger),
		chat:           NewChatService(provider, chatRepo, logger),
		documents:      NewDocumentService(pool, embedder, nil, cacheService, publisher, logger),
		retrieval:      retrieval,
		export:         NewExportService(logger),
	}
}

func (m *serviceManager) QuizGeneration() QuizGenerationService { return m.quizGeneration }

func (m *serviceManager) QuizGrading() QuizGradingService { return m.quizGrading }

func (m *serviceManager) Summary() SummaryService { return m.summary }

func (m *serviceManager) Chat() ChatService { return m.chat }

func (m *serviceManager) Documents() DocumentService { return m.documents }

func (m *serviceManager) Retrieval() RetrievalService { return m.retrieval }

func (m *serviceManager) Export() ExportService { return m.export }
