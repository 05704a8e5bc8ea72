package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/adapters/signal"
	"github.com/ksuvorov/livewire/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(AuthMiddleware(cfg.JWTSecret))

	api.GET("/ws/signal", func(c *gin.Context) {
		userID := UserID(c)
		log.Info().Str("module", "adapters.http").Str("user", string(userID)).Msg("ws signal endpoint hit")
		ctl.HandleWS(ctx, c, userID)
	})

	return r
}
