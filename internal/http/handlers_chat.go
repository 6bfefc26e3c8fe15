package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (h *Handler) ChatMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}

	reply, err := h.chat.Process(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) ChatHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	history, err := h.chat.History(c.Request.Context(), sessionID)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	msgs := make([]ChatMessageDTO, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, ChatMessageDTO{
			User:      m.UserMessage,
			Bot:       m.BotResponse,
			Intent:    m.Intent,
			Timestamp: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": msgs})
}
