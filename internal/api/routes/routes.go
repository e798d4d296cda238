package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/supercore/supercore-api/internal/api/handlers"
)

type Deps struct {
	Chat      *handlers.ChatHandler
	Session   *handlers.SessionHandler
	Product   *handlers.ProductHandler
	News      *handlers.NewsHandler
	Inquiry   *handlers.InquiryHandler
	Dashboard *handlers.DashboardHandler
	Upload    *handlers.UploadHandler
	AdminLog  *handlers.AdminLogHandler
	WS        *handlers.WSHandler

	// AdminAuth guards every admin-only route.
	AdminAuth gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	// Public chat
	api.POST("/chat/messages", d.Chat.PostMessage)
	api.GET("/chat/ws", d.WS.Chat)
	api.POST("/chat/sessions", d.Session.Create)
	api.GET("/chat/sessions", d.Session.List)
	api.GET("/chat/sessions/:id", d.Session.Get)
	api.PUT("/chat/sessions/:id", d.Session.Update)
	api.DELETE("/chat/sessions/:id", d.Session.Delete)

	// Public site content
	api.GET("/products/public", d.Product.ListPublic)
	api.GET("/products/:slug", d.Product.GetBySlug)
	api.GET("/news/public", d.News.ListPublic)
	api.GET("/news/:slug", d.News.GetBySlug)
	api.POST("/inquiries", d.Inquiry.CreatePublic)

	api.GET("/chat/admin/stats", d.AdminAuth, d.Chat.Stats)

	// Admin-only routes
	admin := api.Group("/admin")
	admin.Use(d.AdminAuth)

	admin.GET("/products", d.Product.List)
	admin.GET("/products/:id", d.Product.Get)
	admin.POST("/products", d.Product.Create)
	admin.PUT("/products/:id", d.Product.Update)
	admin.DELETE("/products/:id", d.Product.Delete)

	admin.GET("/news", d.News.List)
	admin.GET("/news/:id", d.News.Get)
	admin.POST("/news", d.News.Create)
	admin.PUT("/news/:id", d.News.Update)
	admin.DELETE("/news/:id", d.News.Delete)

	admin.GET("/inquiries", d.Inquiry.List)
	admin.GET("/inquiries/export", d.Inquiry.Export)
	admin.PUT("/inquiries/:id", d.Inquiry.UpdateStatus)
	admin.DELETE("/inquiries/:id", d.Inquiry.Delete)

	admin.GET("/dashboard", d.Dashboard.Overview)
	admin.POST("/upload/image", d.Upload.Image)
	admin.GET("/logs", d.AdminLog.List)
}
