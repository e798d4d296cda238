package main

import (
	"context"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/supercore/supercore-api/config"
	"github.com/supercore/supercore-api/internal/api/handlers"
	"github.com/supercore/supercore-api/internal/api/middleware"
	"github.com/supercore/supercore-api/internal/api/routes"
	"github.com/supercore/supercore-api/internal/auth"
	"github.com/supercore/supercore-api/internal/cache"
	"github.com/supercore/supercore-api/internal/logger"
	"github.com/supercore/supercore-api/internal/providers/llm"
	mongorepo "github.com/supercore/supercore-api/internal/repositories/mongo"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/storage"
)

const (
	defaultDashScopeURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultChatModel    = "qwen-plus"
	defaultEmbedModel   = "text-embedding-v3"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		l.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		l.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		l.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		l.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	db := config.PostgresDB
	rdb := config.RedisClient
	redisCache := cache.NewRedisCache(rdb)

	// Repositories
	sessionRepo := pgrepo.NewSessionRepo(db)
	messageRepo := pgrepo.NewMessageRepo(db)
	productRepo := pgrepo.NewProductRepo(db)
	postRepo := pgrepo.NewPostRepo(db)
	inquiryRepo := pgrepo.NewInquiryRepo(db)
	profileRepo := pgrepo.NewProfileRepo(db)
	embeddingRepo := pgrepo.NewProductEmbeddingRepo(db)
	adminLogRepo := mongorepo.NewAdminLogRepo(config.MongoDatabase())

	// AI providers
	ctx := context.Background()

	var embedder llm.Embedder
	var streamer llm.CompletionStreamer

	if key := os.Getenv("DASHSCOPE_API_KEY"); key != "" {
		ds := llm.NewDashScope(key,
			envOr("DASHSCOPE_BASE_URL", defaultDashScopeURL),
			envOr("DASHSCOPE_CHAT_MODEL", defaultChatModel),
			envOr("DASHSCOPE_EMBED_MODEL", defaultEmbedModel))
		embedder = ds
		streamer = ds
	} else {
		l.Warn("DASHSCOPE_API_KEY is not set, chat and retrieval are disabled")
	}

	if os.Getenv("LLM_PROVIDER") == "vertex" {
		vg, err := llm.NewVertexGemini(ctx,
			os.Getenv("GOOGLE_CLOUD_PROJECT"),
			envOr("GOOGLE_CLOUD_LOCATION", "us-central1"),
			envOr("VERTEX_MODEL", "gemini-1.5-flash"))
		if err != nil {
			l.Fatalf("Vertex init error: %v", err)
		}
		streamer = vg
	}

	// Services
	sessionSvc := services.NewSessionService(sessionRepo, messageRepo)
	adminLogSvc := services.NewAdminLogService(adminLogRepo, l)

	var indexer *services.ProductIndexer
	var chatSvc services.ChatService
	if embedder != nil {
		indexer = services.NewProductIndexer(embeddingRepo, embedder, l)
	}
	if embedder != nil && streamer != nil {
		quota := services.NewQuotaGuard(messageRepo, envInt("CHAT_DAILY_TOKEN_LIMIT", 0))
		chatSvc = services.NewChatService(sessionSvc, sessionRepo, messageRepo, embeddingRepo, embedder, streamer, quota, l)
	}

	productSvc := services.NewProductService(productRepo, indexer, redisCache, l)
	postSvc := services.NewPostService(postRepo, redisCache, l)
	inquirySvc := services.NewInquiryService(inquiryRepo)
	dashboardSvc := services.NewDashboardService(productRepo, postRepo, inquiryRepo)

	// Object storage (optional)
	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			l.Fatalf("GCS init error: %v", err)
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		l.Warn("GCS_BUCKET is not set, image upload is disabled")
	}

	// Auth
	resolver := auth.NewResolver(
		os.Getenv("SUPABASE_JWT_SECRET"),
		os.Getenv("SUPABASE_JWT_ISSUER"),
		envOr("SUPABASE_JWT_AUDIENCE", "authenticated"))

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Chat:      handlers.NewChatHandler(chatSvc, l),
		Session:   handlers.NewSessionHandler(sessionSvc),
		Product:   handlers.NewProductHandler(productSvc, adminLogSvc),
		News:      handlers.NewNewsHandler(postSvc, adminLogSvc),
		Inquiry:   handlers.NewInquiryHandler(inquirySvc, adminLogSvc),
		Dashboard: handlers.NewDashboardHandler(dashboardSvc),
		Upload:    handlers.NewUploadHandler(uploader, adminLogSvc),
		AdminLog:  handlers.NewAdminLogHandler(adminLogSvc),
		WS:        handlers.NewWSHandler(chatSvc, l),
		AdminAuth: middleware.AdminAuth(resolver, profileRepo, l),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		l.Fatalf("server error: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
