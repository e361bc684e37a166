package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"musictogether/internal/handler"
	"musictogether/internal/hub"
	"musictogether/internal/metrics"
	"musictogether/internal/middleware"
)

type Deps struct {
	Hub     *hub.Hub
	Limiter *middleware.ConnectLimiter
	Log     *zap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	r.GET("/stats", func(c *gin.Context) {
		rooms, connections := deps.Hub.Stats()
		c.JSON(200, gin.H{"rooms": rooms, "connections": connections})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	wsHandler := &handler.WebSocketHandler{Hub: deps.Hub, Log: deps.Log}
	ws := r.Group("/ws")
	if deps.Limiter != nil {
		ws.Use(middleware.LimitConnects(deps.Limiter))
	}
	ws.GET("/:room_code/:user_id", wsHandler.Serve)

	return r
}
