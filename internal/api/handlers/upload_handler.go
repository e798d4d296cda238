package handlers

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/storage"
	"github.com/supercore/supercore-api/internal/utils"
)

var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type UploadHandler struct {
	uploader storage.Uploader
	logSvc   services.AdminLogService
}

func NewUploadHandler(uploader storage.Uploader, logSvc services.AdminLogService) *UploadHandler {
	return &UploadHandler{uploader: uploader, logSvc: logSvc}
}

// Image accepts one multipart image and stores it publicly, returning
// the permanent URL.
func (h *UploadHandler) Image(c *gin.Context) {
	const op = "UploadHandler.Image"

	if h.uploader == nil {
		writeError(c, utils.E(utils.CodeInternal, op, "object storage is not configured", nil))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}
	if fh.Size <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "empty file", nil))
		return
	}
	if fh.Size > 5<<20 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 5MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	// sniff content type (read 512 bytes)
	head := make([]byte, 512)
	n, _ := file.Read(head)
	head = head[:n]
	ct := http.DetectContentType(head)

	ext, ok := imageContentTypes[ct]
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "only jpeg, png, webp or gif images are allowed", nil))
		return
	}

	// re-compose stream: head + remaining file
	r := &readJoin{a: bytes.NewReader(head), b: file}

	objectName := "uploads/" + uuid.NewString() + ext
	url, err := h.uploader.Upload(c.Request.Context(), objectName, ct, r)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to store upload", err))
		return
	}

	h.logSvc.Record(c.Request.Context(), adminLogEntry(c, "create", "uploads", objectName, map[string]any{
		"filename":     filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/")),
		"content_type": ct,
		"size":         fh.Size,
	}))

	writeData(c, http.StatusOK, gin.H{"url": url})
}

type readJoin struct {
	a *bytes.Reader
	b io.Reader
}

func (r *readJoin) Read(p []byte) (int, error) {
	if r.a != nil && r.a.Len() > 0 {
		return r.a.Read(p)
	}
	return r.b.Read(p)
}
