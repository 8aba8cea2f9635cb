package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(deps Deps, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(deps)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/schedule", handler.GetSchedule)
		api.POST("/schedule/prev", handler.NavigateSchedule(Navigator.Prev))
		api.POST("/schedule/today", handler.NavigateSchedule(Navigator.Today))
		api.POST("/schedule/next", handler.NavigateSchedule(Navigator.Next))

		api.GET("/status", handler.GetStatus)

		api.GET("/countdowns", handler.GetCountdowns)
		api.POST("/countdowns", handler.StartCountdown)

		api.POST("/action", handler.PostAction)

		// GET /api/stations
		api.GET("/stations", caching, handler.GetStations)

		// GET /api/stations/{id}/runs
		api.GET("/stations/:id/runs", caching, handler.GetStationRuns)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
