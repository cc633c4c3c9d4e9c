package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botforge/internal/app"
	"botforge/internal/transport/http/response"
)

type KnowledgeHandler struct {
	knowledgeService *app.KnowledgeService
	botService       *app.BotService
}

func NewKnowledgeHandler(knowledgeService *app.KnowledgeService, botService *app.BotService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService, botService: botService}
}

type UploadRequest struct {
	Filename   string   `json:"filename" binding:"required,max=255"`
	SourceType string   `json:"source_type" binding:"max=50"`
	Content    string   `json:"content" binding:"required"`
	Tags       []string `json:"tags"`
}

type ManualEntryRequest struct {
	Title   string   `json:"title" binding:"required,max=255"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
}

type TagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

func (h *KnowledgeHandler) botID(c *gin.Context) (uint, bool) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return 0, false
	}
	if _, err := h.botService.Get(botID); err != nil {
		if errors.Is(err, app.ErrBotNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return 0, false
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch bot failed")
		return 0, false
	}
	return botID, true
}

// Upload ingests already-extracted text. File parsing happens before the
// request reaches this service.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.knowledgeService.Ingest(app.IngestInput{
		BotID:      botID,
		Filename:   req.Filename,
		SourceType: req.SourceType,
		Content:    req.Content,
		Tags:       req.Tags,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest document failed")
		return
	}
	response.OK(c, result)
}

func (h *KnowledgeHandler) AddManual(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}

	var req ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.knowledgeService.AddManual(botID, req.Title, req.Content, req.Tags)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "add manual entry failed")
		return
	}
	response.OK(c, result)
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}

	infos, err := h.knowledgeService.ListDocuments(botID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, infos)
}

func (h *KnowledgeHandler) Summary(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}

	summary, err := h.knowledgeService.Summary(botID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "summarize knowledge failed")
		return
	}
	response.OK(c, summary)
}

func (h *KnowledgeHandler) UpdateTags(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}
	docID, ok := uintParam(c, "doc_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.knowledgeService.UpdateTags(botID, docID, req.Tags)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update tags failed")
		return
	}
	response.OK(c, gin.H{"id": doc.ID, "tags": doc.TagList()})
}

func (h *KnowledgeHandler) Reingest(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}
	docID, ok := uintParam(c, "doc_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	result, err := h.knowledgeService.Reingest(botID, docID)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "reingest document failed")
		return
	}
	response.OK(c, result)
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	botID, ok := h.botID(c)
	if !ok {
		return
	}
	docID, ok := uintParam(c, "doc_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.knowledgeService.DeleteDocument(botID, docID); err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
