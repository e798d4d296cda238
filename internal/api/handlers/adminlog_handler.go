package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/services"
)

type AdminLogHandler struct {
	svc services.AdminLogService
}

func NewAdminLogHandler(svc services.AdminLogService) *AdminLogHandler {
	return &AdminLogHandler{svc: svc}
}

func (h *AdminLogHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 100, 500)

	logs, err := h.svc.List(c.Request.Context(), c.Query("resourceType"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, logs)
}
