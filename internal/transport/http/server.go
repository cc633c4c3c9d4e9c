package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"botforge/internal/ai"
	appsvc "botforge/internal/app"
	"botforge/internal/bootstrap"
	"botforge/internal/cache"
	"botforge/internal/platform/rabbitmq"
	"botforge/internal/ratelimit"
	"botforge/internal/repository"
	"botforge/internal/transport/http/handler"
	"botforge/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	clientRepo := repository.NewClientRepository(app.MySQL)
	botRepo := repository.NewBotRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	conversationRepo := repository.NewConversationRepository(app.MySQL)
	usageRepo := repository.NewUsageRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	usagePublisher := rabbitmq.NewUsagePublisher(app.MQConn, cfg.RabbitMQ.UsagePersistQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		cfg.Auth.AdminEmail,
	)
	clientService := appsvc.NewClientService(clientRepo)
	botService := appsvc.NewBotService(botRepo, clientRepo, documentRepo, chunkRepo, conversationRepo)
	knowledgeService := appsvc.NewKnowledgeService(
		documentRepo,
		chunkRepo,
		cfg.Knowledge.ChunkSize,
		cfg.Knowledge.ChunkOverlap,
		cfg.Knowledge.MaxChunks,
		cfg.Knowledge.MaxContextChars,
	)
	conversationService := appsvc.NewConversationService(conversationRepo, historyCache, cfg.Conversation.MaxContextMessages)
	usageService := appsvc.NewUsageService(usageRepo, botRepo, clientRepo, cfg.Pricing.InputRate, cfg.Pricing.OutputRate)
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:   cfg.RateLimit.Enabled,
		PerSecond: cfg.RateLimit.PerSecond,
		PerMinute: cfg.RateLimit.PerMinute,
	})
	messageService := appsvc.NewMessageService(
		botService,
		knowledgeService,
		conversationService,
		usageService,
		limiter,
		ai.NewOpenAICompatibleClient(),
		usagePublisher,
		ai.ChatConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		},
	)

	authHandler := handler.NewAuthHandler(authService)
	clientHandler := handler.NewClientHandler(clientService, usageService)
	botHandler := handler.NewBotHandler(botService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService, botService)
	chatHandler := handler.NewChatHandler(messageService, conversationService)
	usageHandler := handler.NewUsageHandler(usageService, botService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(cfg.Auth.JWTSecret), authHandler.Me)

	api := v1.Group("")
	api.Use(middleware.AuthJWT(cfg.Auth.JWTSecret))

	clients := api.Group("/clients")
	clients.POST("", clientHandler.Create)
	clients.GET("", clientHandler.List)
	clients.GET("/:id", clientHandler.Get)
	clients.PUT("/:id", clientHandler.Update)
	clients.DELETE("/:id", clientHandler.Delete)
	clients.GET("/:id/token-limit", clientHandler.GetTokenLimit)
	clients.PUT("/:id/token-limit", clientHandler.SetTokenLimit)
	clients.GET("/:id/usage", usageHandler.ClientStats)

	bots := api.Group("/bots")
	bots.POST("", botHandler.Create)
	bots.GET("", botHandler.List)
	bots.GET("/:bot_id", botHandler.Get)
	bots.PUT("/:bot_id", botHandler.Update)
	bots.DELETE("/:bot_id", botHandler.Delete)

	knowledge := bots.Group("/:bot_id/knowledge")
	knowledge.POST("/documents", knowledgeHandler.Upload)
	knowledge.POST("/manual", knowledgeHandler.AddManual)
	knowledge.GET("/documents", knowledgeHandler.List)
	knowledge.GET("/summary", knowledgeHandler.Summary)
	knowledge.PUT("/documents/:doc_id/tags", knowledgeHandler.UpdateTags)
	knowledge.POST("/documents/:doc_id/reingest", knowledgeHandler.Reingest)
	knowledge.DELETE("/documents/:doc_id", knowledgeHandler.Delete)

	bots.POST("/:bot_id/messages", chatHandler.SendMessage)
	bots.GET("/:bot_id/history", chatHandler.History)
	bots.GET("/:bot_id/conversations", chatHandler.ListConversations)
	bots.POST("/:bot_id/conversations/clear", chatHandler.ClearConversation)
	bots.GET("/:bot_id/rate-limit", chatHandler.RateStats)
	bots.GET("/:bot_id/usage", usageHandler.BotStats)

	usage := api.Group("/usage")
	usage.GET("/stats", usageHandler.Stats)

	return router
}
