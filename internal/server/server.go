// Package server exposes the admin/status HTTP surface for a running client:
// health, runtime context status, and prometheus metrics.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wirekit/wirectl/internal/observability"
	"github.com/wirekit/wirectl/internal/runtime"
)

// Config configures the admin listener.
type Config struct {
	Name        string
	Addr        string
	CORSOrigins []string
}

// Server wires the runtime context into an admin HTTP router.
type Server struct {
	cfg      Config
	ctx      *runtime.Context
	router   *gin.Engine
	appeared time.Time
}

func New(ctx *runtime.Context, cfg Config) *Server {
	if cfg.Name == "" {
		cfg.Name = "wirectl"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9200"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.RequestLogger(log.Logger))
	router.Use(observability.RequestMetricsMiddleware(cfg.Name))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	s := &Server{cfg: cfg, ctx: ctx, router: router, appeared: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.appeared).String(),
			"component": s.cfg.Name,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/status", func(c *gin.Context) {
		params := s.ctx.Parameters()
		assignment := s.ctx.Scheduler()
		c.JSON(http.StatusOK, gin.H{
			"uptime":          time.Since(s.appeared).String(),
			"owner":           s.ctx.Owner(),
			"time_difference": s.ctx.TimeDifference(),
			"time_sync":       s.ctx.TimeSyncState(),
			"scheduler": gin.H{
				"background":   assignment.Background,
				"slow_network": assignment.SlowNetwork,
			},
			"registry": gin.H{
				"connection_creator": s.ctx.ConnectionCreator() != nil,
				"temp_key_watchdog":  s.ctx.TempKeyWatchdog() != nil,
				"query_dispatcher":   s.ctx.QueryDispatcher() != nil,
				"header_builder":     s.ctx.HasHeaderBuilder(),
				"network_state":      s.ctx.NetworkState() != nil,
			},
			"flags": gin.H{
				"use_test_dc":      params.UseTestDC,
				"use_file_db":      params.UseFileDB,
				"use_secret_chats": params.UseSecretChats,
			},
		})
	})
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run blocks serving the admin surface.
func (s *Server) Run() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("admin_listening")
	return s.router.Run(s.cfg.Addr)
}
