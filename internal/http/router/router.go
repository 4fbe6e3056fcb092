package router

import (
	"github.com/gin-gonic/gin"

	"docent.chat/docent/internal/http/handler"
	"docent.chat/docent/internal/service"
)

type RouterConfig struct {
	UploadMaxBytes int64
}

func SetupRoutes(router *gin.Engine, chatService service.ChatService, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		sessionHandler := handler.NewSessionHandler(chatService)
		documentHandler := handler.NewDocumentHandler(chatService, cfg.UploadMaxBytes)
		SessionRouter(v1.Group("/sessions"), sessionHandler, documentHandler)
	}
}
