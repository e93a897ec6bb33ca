package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts h on a gin engine with CORS for origins. An empty or
// "*" origin list allows any origin.
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.GetHealth)
	r.GET("/status", h.GetStatus)
	r.GET("/market", h.GetMarket)
	r.POST("/live/toggle", h.PostToggleLive)
	r.PUT("/category/:category", h.PutCategory)
	r.GET("/locations/:category", h.GetLocations)

	feed := r.Group("/feed/:category")
	feed.GET("", h.GetFeed)
	feed.POST("/more", h.PostLoadMore)
	feed.POST("/refresh", h.PostRefresh)
	feed.GET("/items/:id/location", h.GetItemLocation)

	return r
}
