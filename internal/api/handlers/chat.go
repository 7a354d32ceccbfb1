package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type askRequest struct {
	Question string `json:"question"`
}

// AskQuestion 回答用电量问题
// POST /api/chat/query
func (h *Handler) AskQuestion(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID := currentUserID(c)
	result, err := h.chatService.Ask(c.Request.Context(), userID, req.Question)
	if err != nil {
		h.respondError(c, err, "Failed to process query")
		return
	}

	if result.IntentFallback {
		h.logger.Info("Answered with default intent", zap.Int64("user_id", userID))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Report,
		"meta": gin.H{
			"intent":          result.Intent,
			"interval":        result.Interval,
			"intent_fallback": result.IntentFallback,
		},
	})
}

// ListHistory 获取问答历史
// GET /api/chat/history?page=1&per_page=20
func (h *Handler) ListHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	records, total, err := h.chatService.History(c.Request.Context(), currentUserID(c), perPage, offset)
	if err != nil {
		h.respondError(c, err, "Failed to list history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}
