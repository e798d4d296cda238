package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/providers/llm"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
	log *logrus.Logger
}

// NewChatHandler accepts a nil service when no completion provider is
// configured; requests then fail with a configuration error instead of
// a panic.
func NewChatHandler(svc services.ChatService, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

type chatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages" binding:"required,min=1"`
	SessionID string        `json:"sessionId"`
	Language  string        `json:"language"`
}

// PostMessage streams the assistant reply as chunked plain text. The
// session id is exposed in X-Session-Id so the client can continue a
// conversation it started without one.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	const op = "ChatHandler.PostMessage"

	if h.svc == nil {
		writeError(c, utils.E(utils.CodeInternal, op, "Missing AI Configuration", nil))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "messages are required", err))
		return
	}

	msgs := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	ex, err := h.svc.Exchange(c.Request.Context(), msgs, req.SessionID, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("X-Session-Id", ex.SessionID)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")

	flusher, _ := c.Writer.(http.Flusher)
	for chunk := range ex.Chunks {
		if _, err := c.Writer.WriteString(chunk); err != nil {
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	res := <-ex.Result
	if res.Err != nil {
		if !c.Writer.Written() {
			writeError(c, res.Err)
			return
		}
		// stream already underway, status is gone; log and close
		h.log.WithError(res.Err).WithField("session_id", ex.SessionID).Warn("chat stream ended with error")
	}
}

// Stats reports session and message volume plus a token/cost estimate
// for the requested period.
func (h *ChatHandler) Stats(c *gin.Context) {
	const op = "ChatHandler.Stats"

	if h.svc == nil {
		writeError(c, utils.E(utils.CodeInternal, op, "Missing AI Configuration", nil))
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), c.DefaultQuery("period", "7d"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, stats)
}
