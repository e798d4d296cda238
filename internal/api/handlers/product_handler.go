package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/utils"
)

type ProductHandler struct {
	svc    services.ProductService
	logSvc services.AdminLogService
}

func NewProductHandler(svc services.ProductService, logSvc services.AdminLogService) *ProductHandler {
	return &ProductHandler{svc: svc, logSvc: logSvc}
}

// ListPublic serves published products only, newest first.
func (h *ProductHandler) ListPublic(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 100)

	products, err := h.svc.ListPublished(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, products)
}

func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.svc.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, product)
}

func (h *ProductHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 200)
	offset := queryInt(c, "offset", 0, 1<<30)

	products, total, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	product, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	const op = "ProductHandler.Create"

	var in services.CreateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	product, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "create", "products",
		strconv.FormatInt(product.ID, 10), map[string]any{"slug": product.Slug}))

	writeData(c, http.StatusOK, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	const op = "ProductHandler.Update"

	id, ok := paramID(c)
	if !ok {
		return
	}

	var in services.UpdateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	product, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "update", "products",
		strconv.FormatInt(id, 10), map[string]any{"slug": product.Slug}))

	writeData(c, http.StatusOK, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "delete", "products",
		strconv.FormatInt(id, 10), nil))

	writeData(c, http.StatusOK, gin.H{"message": "Product deleted"})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "parseID", "invalid id", err))
		return 0, false
	}
	return id, true
}
