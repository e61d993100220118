package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.POST("/properties/store", handler.StoreProperties)
		api.POST("/properties/score", handler.ScoreProperties)
		api.GET("/properties", handler.GetProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.GET("/properties/:id/history", handler.GetPropertyHistory)

		api.GET("/watchlists", handler.ListWatchlists)
		api.POST("/watchlists", handler.CreateWatchlist)
		api.GET("/watchlists/:id/stats", handler.GetWatchlistStats)
		api.POST("/watchlists/:id/scan", handler.TriggerScan)
	}
}
