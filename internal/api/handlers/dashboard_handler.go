package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/services"
)

type DashboardHandler struct {
	svc services.DashboardService
}

func NewDashboardHandler(svc services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

type serverStatus struct {
	URL          string `json:"url"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime"`
}

// Overview returns the admin dashboard aggregate: content counts, the
// latest inquiries, and a coarse server status block.
func (h *DashboardHandler) Overview(c *gin.Context) {
	start := time.Now()

	ov, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	// Frontend URL reflects the request, not configuration, so it
	// survives proxies and port remaps.
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}
	host := c.Request.Host
	if host == "" {
		host = "localhost"
	}

	backendURL := "Unknown"
	if u, err := url.Parse(os.Getenv("DATABASE_URL")); err == nil && u.Host != "" {
		backendURL = u.Host
	}

	writeData(c, http.StatusOK, gin.H{
		"stats":           ov.Stats,
		"recentInquiries": ov.RecentInquiries,
		"serverStatus": gin.H{
			"frontend": serverStatus{
				URL:          fmt.Sprintf("%s://%s", proto, host),
				Status:       "online",
				ResponseTime: time.Since(start).Milliseconds(),
			},
			"backend": serverStatus{
				URL:          backendURL,
				Status:       "online",
				ResponseTime: ov.DBLatency.Milliseconds(),
			},
		},
	})
}
