package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prompt2app/internal/metrics"
)

// RegisterRoutes sets up the API endpoints and groups them logically.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {
	// Browser page
	router.GET("/", h.Index)

	// Stateless gateway
	router.POST("/api/generate", h.RateLimit(), h.GenerateApp)

	// Interactive shell sessions
	router.POST("/session", h.CreateSession)
	sessionGroup := router.Group("/session/:id")
	{
		sessionGroup.GET("", h.GetSession)
		sessionGroup.PUT("/prompt", h.SetPrompt)
		sessionGroup.POST("/generate", h.RateLimit(), h.Generate)
		sessionGroup.POST("/regenerate", h.RateLimit(), h.Regenerate)
		sessionGroup.POST("/clear", h.Clear)
		sessionGroup.GET("/download", h.Download)
		sessionGroup.GET("/preview", h.Preview)

		sessionGroup.POST("/dictation/toggle", h.ToggleDictation)
		sessionGroup.POST("/dictation/result", h.DictationResult)
		sessionGroup.POST("/dictation/error", h.DictationError)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
	})
}
