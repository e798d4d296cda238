package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/api/middleware"
	"github.com/supercore/supercore-api/internal/auth"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/utils"
)

type APIError struct {
	Code          utils.Code `json:"code"`
	StatusMessage string     `json:"statusMessage"`
}

// envelope is the success shape for non-streaming JSON responses.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:          ae.Code,
			StatusMessage: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:          utils.CodeInternal,
		StatusMessage: http.StatusText(status),
	})
}

func currentIdentity(c *gin.Context) *auth.Identity {
	if v, ok := c.Get(middleware.CtxIdentity); ok {
		if id, ok := v.(*auth.Identity); ok {
			return id
		}
	}
	return nil
}

// adminLogEntry captures who did what from the authenticated request.
func adminLogEntry(c *gin.Context, action, resourceType, resourceID string, details map[string]any) *models.AdminLog {
	entry := &models.AdminLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		CreatedAt:    time.Now(),
	}
	if id := currentIdentity(c); id != nil {
		entry.UserID = id.ID
		entry.UserEmail = id.Email
	}
	return entry
}
