package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type createSessionRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
}

type updateSessionRequest struct {
	Title  *string `json:"title"`
	Status *string `json:"status"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	const op = "SessionHandler.Create"

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	session, err := h.svc.Create(c.Request.Context(), req.Title, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, session)
}

func (h *SessionHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 20, 100)
	offset := queryInt(c, "offset", 0, 1<<30)

	sessions, total, err := h.svc.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, messages, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{
		"session":  session,
		"messages": messages,
	})
}

func (h *SessionHandler) Update(c *gin.Context) {
	const op = "SessionHandler.Update"

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	session, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.Title, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, session)
}

// Delete archives by default; ?hard=true removes the session and its
// messages permanently.
func (h *SessionHandler) Delete(c *gin.Context) {
	hard := c.Query("hard") == "true"

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), hard); err != nil {
		writeError(c, err)
		return
	}

	msg := "Session archived"
	if hard {
		msg = "Session deleted permanently"
	}
	writeData(c, http.StatusOK, gin.H{"message": msg})
}

func queryInt(c *gin.Context, key string, def, max int) int {
	s := c.Query(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
