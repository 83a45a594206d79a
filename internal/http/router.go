// Package http assembles the ops HTTP router: health, store stats, and
// Prometheus metrics, behind the shared middleware chain.
package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/config"
	"github.com/nrrp/referral-tracker/internal/http/handlers"
	"github.com/nrrp/referral-tracker/internal/http/middleware"
)

// NewRouter builds the ops router. Middleware order matters: the request ID
// must exist before logging, and recovery must wrap the handlers.
func NewRouter(cfg config.Config, db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if len(cfg.AllowedOrigins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = cfg.AllowedOrigins
		r.Use(cors.New(cc))
	}
	if cfg.OTEL.Enabled {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}

	r.GET("/healthz", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/stats", handlers.Stats(db))

	return r
}
