package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botforge/internal/app"
	"botforge/internal/transport/http/response"
)

type ClientHandler struct {
	clientService *app.ClientService
	usageService  *app.UsageService
}

func NewClientHandler(clientService *app.ClientService, usageService *app.UsageService) *ClientHandler {
	return &ClientHandler{clientService: clientService, usageService: usageService}
}

type ClientRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Notes      string `json:"notes"`
	TokenLimit *int64 `json:"token_limit"`
}

type TokenLimitRequest struct {
	TokenLimit *int64 `json:"token_limit"`
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	client, err := h.clientService.Create(app.ClientInput{
		Name:       req.Name,
		Notes:      req.Notes,
		TokenLimit: req.TokenLimit,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create client failed")
		return
	}
	response.OK(c, client)
}

func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clientService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list clients failed")
		return
	}
	response.OK(c, clients)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid client id")
		return
	}

	client, err := h.clientService.Get(id)
	if err != nil {
		if errors.Is(err, app.ErrClientNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch client failed")
		return
	}
	response.OK(c, client)
}

func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid client id")
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	client, err := h.clientService.Update(id, app.ClientInput{
		Name:       req.Name,
		Notes:      req.Notes,
		TokenLimit: req.TokenLimit,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrClientNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update client failed")
		}
		return
	}
	response.OK(c, client)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid client id")
		return
	}

	if err := h.clientService.Delete(id); err != nil {
		if errors.Is(err, app.ErrClientNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete client failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// SetTokenLimit replaces the advisory ceiling and echoes the resulting
// limit status so operators see the effect immediately.
func (h *ClientHandler) SetTokenLimit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid client id")
		return
	}

	var req TokenLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	client, err := h.clientService.SetTokenLimit(id, req.TokenLimit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrClientNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "set token limit failed")
		}
		return
	}

	status, err := h.usageService.CheckLimit(id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "check limit failed")
		return
	}
	response.OK(c, gin.H{"client": client, "limit_status": status})
}

func (h *ClientHandler) GetTokenLimit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid client id")
		return
	}

	status, err := h.usageService.CheckLimit(id)
	if err != nil {
		if errors.Is(err, app.ErrClientNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "check limit failed")
		return
	}
	response.OK(c, status)
}
