package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"botforge/internal/app"
	"botforge/internal/transport/http/response"
)

type UsageHandler struct {
	usageService *app.UsageService
	botService   *app.BotService
}

func NewUsageHandler(usageService *app.UsageService, botService *app.BotService) *UsageHandler {
	return &UsageHandler{usageService: usageService, botService: botService}
}

func usageFilter(c *gin.Context) app.UsageFilter {
	filter := app.UsageFilter{
		ClientID: uintQuery(c, "client_id"),
		BotID:    uintQuery(c, "bot_id"),
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = t
		}
	}
	return filter
}

// Stats aggregates usage across optional client_id, bot_id, from and to
// filters, with a daily breakdown over the trailing window.
func (h *UsageHandler) Stats(c *gin.Context) {
	filter := usageFilter(c)

	totals, err := h.usageService.Aggregate(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "aggregate usage failed")
		return
	}
	daily, err := h.usageService.DailyBreakdown(filter, intQuery(c, "days", 30))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "usage breakdown failed")
		return
	}
	response.OK(c, gin.H{"totals": totals, "daily": daily})
}

type botUsage struct {
	BotID   uint            `json:"bot_id"`
	BotName string          `json:"bot_name"`
	Totals  app.UsageTotals `json:"totals"`
}

// ClientStats reports one client's totals, per-bot split, daily breakdown
// and standing against its monthly token ceiling.
func (h *UsageHandler) ClientStats(c *gin.Context) {
	clientID, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid client id")
		return
	}

	limitStatus, err := h.usageService.CheckLimit(clientID)
	if err != nil {
		if errors.Is(err, app.ErrClientNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "check limit failed")
		return
	}

	totals, err := h.usageService.Aggregate(app.UsageFilter{ClientID: clientID})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "aggregate usage failed")
		return
	}

	bots, err := h.botService.List(clientID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list bots failed")
		return
	}
	perBot := make([]botUsage, 0, len(bots))
	for i := range bots {
		botTotals, err := h.usageService.Aggregate(app.UsageFilter{ClientID: clientID, BotID: bots[i].ID})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "aggregate usage failed")
			return
		}
		perBot = append(perBot, botUsage{BotID: bots[i].ID, BotName: bots[i].Name, Totals: botTotals})
	}

	daily, err := h.usageService.DailyBreakdown(app.UsageFilter{ClientID: clientID}, intQuery(c, "days", 30))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "usage breakdown failed")
		return
	}

	response.OK(c, gin.H{
		"totals":       totals,
		"bots":         perBot,
		"daily":        daily,
		"limit_status": limitStatus,
	})
}

// BotStats reports one bot's totals and daily breakdown.
func (h *UsageHandler) BotStats(c *gin.Context) {
	botID, ok := uintParam(c, "bot_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid bot id")
		return
	}
	if _, err := h.botService.Get(botID); err != nil {
		if errors.Is(err, app.ErrBotNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch bot failed")
		return
	}

	totals, err := h.usageService.Aggregate(app.UsageFilter{BotID: botID})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "aggregate usage failed")
		return
	}
	daily, err := h.usageService.DailyBreakdown(app.UsageFilter{BotID: botID}, intQuery(c, "days", 30))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "usage breakdown failed")
		return
	}
	response.OK(c, gin.H{"totals": totals, "daily": daily})
}
