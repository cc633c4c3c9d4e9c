package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botforge/internal/app"
	"botforge/internal/transport/http/response"
)

type ChatHandler struct {
	messageService      *app.MessageService
	conversationService *app.ConversationService
}

func NewChatHandler(messageService *app.MessageService, conversationService *app.ConversationService) *ChatHandler {
	return &ChatHandler{messageService: messageService, conversationService: conversationService}
}

type MessageRequest struct {
	SessionID string `json:"session_id" binding:"max=100"`
	Message   string `json:"message" binding:"required"`
}

// SendMessage runs the full pipeline for one inbound message. A rate
// limited request returns 429 with the window reason, not an error body.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.messageService.Process(c.Request.Context(), app.ProcessInput{
		BotID:     botID,
		SessionID: req.SessionID,
		Content:   req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrBotNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process message failed")
		}
		return
	}

	if result.RateLimited {
		response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, result.RateLimitReason)
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) History(c *gin.Context) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "session_id is required")
		return
	}

	history, err := h.conversationService.History(botID, sessionID, intQuery(c, "limit", 0))
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch history failed")
		return
	}
	response.OK(c, gin.H{"session_id": sessionID, "messages": history})
}

// ClearConversation resets the window and hands the caller a fresh
// session id to continue under.
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "session_id is required")
		return
	}

	cleared, newSessionID, err := h.messageService.Clear(botID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrBotNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear conversation failed")
		}
		return
	}
	response.OK(c, gin.H{"cleared": cleared, "new_session_id": newSessionID})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}

	sessions, err := h.conversationService.ListSessions(botID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		return
	}
	response.OK(c, sessions)
}

// RateStats exposes the bot's current sliding-window counters.
func (h *ChatHandler) RateStats(c *gin.Context) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}

	stats, err := h.messageService.RateStats(botID)
	if err != nil {
		if errors.Is(err, app.ErrBotNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch rate stats failed")
		return
	}
	response.OK(c, stats)
}
