package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/utils"
)

type InquiryHandler struct {
	svc    services.InquiryService
	logSvc services.AdminLogService
}

func NewInquiryHandler(svc services.InquiryService, logSvc services.AdminLogService) *InquiryHandler {
	return &InquiryHandler{svc: svc, logSvc: logSvc}
}

// CreatePublic is the unauthenticated contact form endpoint.
func (h *InquiryHandler) CreatePublic(c *gin.Context) {
	const op = "InquiryHandler.CreatePublic"

	var in services.CreateInquiryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "email, name and message are required", err))
		return
	}

	inquiry, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, inquiry)
}

func (h *InquiryHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 200)
	offset := queryInt(c, "offset", 0, 1<<30)

	inquiries, total, err := h.svc.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{
		"inquiries": inquiries,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// Export downloads every inquiry as CSV or JSON. The CSV column set
// matches what the admin frontend expects to re-import into sheets.
func (h *InquiryHandler) Export(c *gin.Context) {
	const op = "InquiryHandler.Export"

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "不支持的导出格式", nil))
		return
	}

	inquiries, err := h.svc.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "export", "inquiries", "", map[string]any{
		"format": format,
		"count":  len(inquiries),
	}))

	stamp := time.Now().UTC().Format("2006-01-02")
	if format == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="inquiries_%s.csv"`, stamp))
		c.Status(http.StatusOK)
		writeInquiryCSV(c.Writer, inquiries)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="inquiries_%s.json"`, stamp))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       inquiries,
		"exportedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeInquiryCSV(w io.Writer, inquiries []models.Inquiry) {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "email", "company", "message", "status", "created_at"})
	for _, q := range inquiries {
		_ = cw.Write([]string{
			strconv.FormatInt(q.ID, 10),
			q.Email,
			q.Company,
			q.Message,
			q.Status,
			q.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

type updateInquiryRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	const op = "InquiryHandler.UpdateStatus"

	id, ok := paramID(c)
	if !ok {
		return
	}

	var req updateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "status is required", err))
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "update", "inquiries",
		strconv.FormatInt(id, 10), map[string]any{"status": req.Status}))

	writeData(c, http.StatusOK, gin.H{"message": "Inquiry updated"})
}

func (h *InquiryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "delete", "inquiries",
		strconv.FormatInt(id, 10), nil))

	writeData(c, http.StatusOK, gin.H{"message": "Inquiry deleted"})
}
