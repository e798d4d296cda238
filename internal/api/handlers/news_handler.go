package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/utils"
)

type NewsHandler struct {
	svc    services.PostService
	logSvc services.AdminLogService
}

func NewNewsHandler(svc services.PostService, logSvc services.AdminLogService) *NewsHandler {
	return &NewsHandler{svc: svc, logSvc: logSvc}
}

// ListPublic serves posts whose publish time has passed.
func (h *NewsHandler) ListPublic(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 100)

	posts, err := h.svc.ListPublished(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, posts)
}

func (h *NewsHandler) GetBySlug(c *gin.Context) {
	post, err := h.svc.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, post)
}

func (h *NewsHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 200)
	offset := queryInt(c, "offset", 0, 1<<30)

	posts, total, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{
		"posts":  posts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *NewsHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	post, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, post)
}

func (h *NewsHandler) Create(c *gin.Context) {
	const op = "NewsHandler.Create"

	var in services.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	post, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "create", "posts",
		strconv.FormatInt(post.ID, 10), map[string]any{"slug": post.Slug}))

	writeData(c, http.StatusOK, post)
}

func (h *NewsHandler) Update(c *gin.Context) {
	const op = "NewsHandler.Update"

	id, ok := paramID(c)
	if !ok {
		return
	}

	var in services.UpdatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	post, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "update", "posts",
		strconv.FormatInt(id, 10), map[string]any{"slug": post.Slug}))

	writeData(c, http.StatusOK, post)
}

func (h *NewsHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "delete", "posts",
		strconv.FormatInt(id, 10), nil))

	writeData(c, http.StatusOK, gin.H{"message": "Post deleted"})
}
