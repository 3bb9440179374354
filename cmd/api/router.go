package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"sofia/internal/app"
	_ "sofia/internal/docs" // Import swagger docs
	"sofia/internal/handlers"
	"sofia/internal/middleware"
)

func setupRouter(a *app.App) *gin.Engine {
	chatHandler := handlers.NewChatHandler(a.Assistant, a.Clock)
	conversationHandler := handlers.NewConversationHandler(a.Store, a.Assistant, a.Locks)
	ledgerHandler := handlers.NewLedgerHandler(a.Ledger, a.Store, a.Locks)
	healthHandler := handlers.NewHealthHandler(a.Assistant, a.Registry.Stats, a.Clock)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(a.Config.AllowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", healthHandler.Health)

	v1 := router.Group("/api/v1")

	// Web chat
	v1.POST("/chat", chatHandler.Chat)
	v1.POST("/chat/image", chatHandler.ChatImage)

	conversations := v1.Group("/conversations")
	conversations.GET("/:session_id", conversationHandler.GetConversation)
	conversations.DELETE("/:session_id", conversationHandler.ClearConversation)

	// Direct ledger access for trusted callers
	users := v1.Group("/users/:user_id")
	users.Use(middleware.InternalAuth(a.Config.InternalAPIKey))
	users.POST("/income", ledgerHandler.RegisterIncome)
	users.POST("/expenses", ledgerHandler.RegisterExpense)
	users.PATCH("/transactions/:type/:id", ledgerHandler.EditTransaction)
	users.GET("/transactions/recent", ledgerHandler.RecentTransactions)
	users.GET("/summary", ledgerHandler.Summary)
	users.POST("/analysis", ledgerHandler.Analysis)
	users.PATCH("/profile", ledgerHandler.UpdateProfile)
	users.POST("/training-examples", ledgerHandler.AddTrainingExample)

	return router
}
