package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botforge/internal/app"
	"botforge/internal/transport/http/response"
)

type BotHandler struct {
	botService *app.BotService
}

func NewBotHandler(botService *app.BotService) *BotHandler {
	return &BotHandler{botService: botService}
}

type BotRequest struct {
	ClientID               uint    `json:"client_id"`
	Name                   string  `json:"name" binding:"required,max=100"`
	Description            string  `json:"description"`
	Personality            string  `json:"personality"`
	PersonalityDescription string  `json:"personality_description"`
	Tone                   string  `json:"tone" binding:"max=50"`
	SystemPrompt           string  `json:"system_prompt"`
	Temperature            float64 `json:"temperature" binding:"gte=0,lte=2"`
}

func (h *BotHandler) Create(c *gin.Context) {
	var req BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	bot, err := h.botService.Create(app.BotInput{
		ClientID:               req.ClientID,
		Name:                   req.Name,
		Description:            req.Description,
		Personality:            req.Personality,
		PersonalityDescription: req.PersonalityDescription,
		Tone:                   req.Tone,
		SystemPrompt:           req.SystemPrompt,
		Temperature:            req.Temperature,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrClientNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create bot failed")
		}
		return
	}
	response.OK(c, bot)
}

func (h *BotHandler) List(c *gin.Context) {
	bots, err := h.botService.List(uintQuery(c, "client_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list bots failed")
		return
	}
	response.OK(c, bots)
}

func (h *BotHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}

	bot, err := h.botService.Get(id)
	if err != nil {
		if errors.Is(err, app.ErrBotNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch bot failed")
		return
	}
	response.OK(c, bot)
}

func (h *BotHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}

	var req BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	bot, err := h.botService.Update(id, app.BotInput{
		ClientID:               req.ClientID,
		Name:                   req.Name,
		Description:            req.Description,
		Personality:            req.Personality,
		PersonalityDescription: req.PersonalityDescription,
		Tone:                   req.Tone,
		SystemPrompt:           req.SystemPrompt,
		Temperature:            req.Temperature,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrBotNotFound), errors.Is(err, app.ErrClientNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update bot failed")
		}
		return
	}
	response.OK(c, bot)
}

func (h *BotHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}

	if err := h.botService.Delete(id); err != nil {
		if errors.Is(err, app.ErrBotNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete bot failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
