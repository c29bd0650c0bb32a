package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spirittosoul/server/api/sse"
	"github.com/spirittosoul/server/config"
	mw "github.com/spirittosoul/server/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Game *GameHandler
	Feed *FeedHandler
	SSE  *sse.Handler
}

// NewRouter builds the HTTP surface: health and metrics, the game API and
// the live feed stream. ctx bounds the rate limiter's background sweep.
func NewRouter(ctx context.Context, sec config.SecurityConfig, routes Routes, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/api/state", "/health", "/metrics"), mw.Recovery(logger))
	if sec.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(ctx, rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "state": routes.Game.game.State()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if routes.SSE != nil {
		r.GET("/sse", routes.SSE.ServeSSE)
	}

	api := r.Group("/api")
	{
		api.GET("/state", routes.Game.State)
		api.GET("/quests", routes.Game.Quests)
		api.POST("/quests/:id/start", routes.Game.StartQuest)
		api.GET("/callings", routes.Game.Callings)
		api.POST("/character", routes.Game.CreateCharacter)
		api.POST("/intents", routes.Game.Intent)
		api.POST("/pause", routes.Game.Pause)
		api.POST("/resume", routes.Game.Resume)
		api.POST("/save", routes.Game.Save)

		if routes.Feed != nil {
			api.GET("/feed", routes.Feed.History)
			api.GET("/journal", routes.Feed.Journal)
		}
	}
	return r
}
