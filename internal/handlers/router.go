package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/services"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/validator"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	summaryHandler  *SummaryHandler
	chatHandler     *ChatHandler
	documentHandler *DocumentHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	v *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler: NewQuizHandler(
			serviceManager.QuizGeneration(),
			serviceManager.QuizGrading(),
			serviceManager.Export(),
			serviceManager.Documents(),
			logger,
		),
		summaryHandler:  NewSummaryHandler(serviceManager.Summary(), serviceManager.Documents(), logger),
		chatHandler:     NewChatHandler(serviceManager.Chat(), v, logger),
		documentHandler: NewDocumentHandler(serviceManager.Documents(), serviceManager.Retrieval(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Hello World!!"})
	})

	// Summary routes
	summary := router.Group("/summary")
	{
		summary.POST("/submit", hm.summaryHandler.SubmitSummary)
	}

	// Quiz routes
	quiz := router.Group("/quiz")
	{
		quiz.POST("/submit", hm.quizHandler.SubmitQuiz)
		quiz.POST("/grade", hm.quizHandler.GradeQuiz)
		quiz.POST("/export", hm.quizHandler.ExportQuiz)
	}

	// Chatbot routes
	router.POST("/followup-chatbot", hm.chatHandler.FollowupChat)
	career := router.Group("/careeradvising-chatbot")
	{
		career.POST("", hm.chatHandler.CareerAdvice)
		career.GET("/guidance", hm.chatHandler.Guidance)
		career.GET("/history/:userId", hm.chatHandler.HistoryByUser)
		career.GET("/sessions/:userId", hm.chatHandler.Sessions)
		career.GET("/:sessionId", hm.chatHandler.HistoryBySession)
	}

	// Document management routes
	documents := router.Group("/documents")
	{
		documents.POST("/upload", hm.documentHandler.Upload)
		documents.POST("/upload-from-paths", hm.documentHandler.UploadFromPaths)
		documents.GET("/:collection", hm.documentHandler.List)
		documents.GET("/:collection/metadata", hm.documentHandler.Metadata)
		documents.DELETE("/:collection/:id", hm.documentHandler.Delete)
	}

	// Retrieval diagnostics
	router.POST("/test/metadata-search", hm.documentHandler.MetadataSearch)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "study-service",
		})
	})
}
