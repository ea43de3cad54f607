package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/config"
	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/metrics"
	"github.com/vovakirdan/wirechat-admin/internal/store"
)

// Deps are the services the dashboard routes expose. Ledger and Metrics are optional.
type Deps struct {
	Session *core.Session
	Board   *core.Board
	Ledger  store.SendLog
	Metrics *metrics.Metrics
}

// NewServer builds the dashboard HTTP server. Shutting it down also closes
// open websocket connections.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	ws := NewWSHandler(deps.Session, cfg.WS, logger)
	srv := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, ws, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	srv.RegisterOnShutdown(ws.Shutdown)
	return srv
}

// NewRouter registers every dashboard route on a fresh gin engine.
func NewRouter(deps Deps, ws *WSHandler, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	r.GET("/ws", gin.WrapH(ws))

	chat := NewChatHandlers(deps.Session, logger)
	board := NewBoardHandlers(deps.Board, logger)
	sends := NewSendHandlers(deps.Ledger, logger)

	api := r.Group("/api")
	{
		api.GET("/view", chat.View)
		api.POST("/select", chat.Select)
		api.POST("/sync", chat.Sync)
		api.POST("/search", chat.Search)
		api.PUT("/draft", chat.Draft)
		api.POST("/send", chat.Send)
		api.POST("/status/dismiss", chat.DismissStatus)

		api.GET("/broadcasts", board.List)
		api.POST("/broadcasts", board.Publish)
		api.POST("/broadcasts/status/dismiss", board.DismissStatus)

		api.GET("/sends", sends.List)
	}

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
