package router

import (
	"github.com/gin-gonic/gin"

	"docent.chat/docent/internal/http/handler"
)

func SessionRouter(router *gin.RouterGroup, sessions *handler.SessionHandler, documents *handler.DocumentHandler) {
	router.POST("", sessions.Create)
	router.GET("/:id", sessions.Get)
	router.DELETE("/:id", sessions.Delete)

	router.GET("/:id/messages", sessions.ListMessages)
	router.POST("/:id/messages", sessions.SendMessage)
	router.DELETE("/:id/messages", sessions.ClearMessages)
	router.GET("/:id/transcript", sessions.Transcript)

	router.PUT("/:id/document", documents.Upload)
	router.GET("/:id/document", documents.Get)
	router.DELETE("/:id/document", documents.Delete)
	router.POST("/:id/document/summary", documents.Summarize)
}
