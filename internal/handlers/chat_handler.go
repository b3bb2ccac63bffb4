package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/services"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/validator"
)

// ChatHandler serves the follow-up and career advising chatbots.
type ChatHandler struct {
	BaseHandler
	chat      services.ChatService
	validator *validator.Validator
}

func NewChatHandler(chat services.ChatService, v *validator.Validator, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(logger),
		chat:        chat,
		validator:   v,
	}
}

// FollowupChat handles POST /followup-chatbot. The reply is the bare
// assistant message; nothing is persisted.
func (h *ChatHandler) FollowupChat(c *gin.Context) {
	h.LogRequest(c, "Follow-up chat message")

	var req models.FollowupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid chat payload", err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithValidationError(c, err)
		return
	}

	answer, err := h.chat.FollowupChat(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrChatEmptyMessage) {
			h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Error generating reply", err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// CareerAdvice handles POST /careeradvising-chatbot. The exchange is
// persisted under the resolved session.
func (h *ChatHandler) CareerAdvice(c *gin.Context) {
	h.LogRequest(c, "Career advising message")

	var req models.CareerChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid chat payload", err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithValidationError(c, err)
		return
	}

	resp, err := h.chat.CareerAdvice(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrChatEmptyMessage) {
			h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Error generating reply", err)
		return
	}

	h.LogInfo(c, "Career advice generated", "session_id", resp.SessionID)
	c.JSON(http.StatusOK, resp)
}

// Guidance handles GET /careeradvising-chatbot/guidance and returns
// starter questions for a fresh advising session.
func (h *ChatHandler) Guidance(c *gin.Context) {
	h.LogRequest(c, "Generating guidance")

	guidance, err := h.chat.Guidance(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Error generating guidance", err)
		return
	}

	c.JSON(http.StatusOK, guidance)
}

// HistoryByUser handles GET /careeradvising-chatbot/history/:userId and
// returns the history of the user's most recent session.
func (h *ChatHandler) HistoryByUser(c *gin.Context) {
	userID := ParseStringIDParam(c, "userId")
	if userID == "" {
		return
	}

	history, err := h.chat.HistoryByUser(c.Request.Context(), userID)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Error fetching chat history", err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// Sessions handles GET /careeradvising-chatbot/sessions/:userId.
func (h *ChatHandler) Sessions(c *gin.Context) {
	userID := ParseStringIDParam(c, "userId")
	if userID == "" {
		return
	}

	sessions, err := h.chat.Sessions(c.Request.Context(), userID)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Error fetching sessions", err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// HistoryBySession handles GET /careeradvising-chatbot/:sessionId.
func (h *ChatHandler) HistoryBySession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "sessionId")
	if sessionID == "" {
		return
	}

	history, err := h.chat.HistoryBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Error fetching chat history", err)
		return
	}

	c.JSON(http.StatusOK, history)
}
