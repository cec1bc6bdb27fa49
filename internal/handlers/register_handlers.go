package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/middleware"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// NewOpsServer builds the gin engine serving the operational endpoints.
func NewOpsServer(cfg *config.Config, logger zerolog.Logger, health HealthCheck, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.StructuredLoggingMiddleware(logger))
	RegisterRoutes(r, health, gatherer)
	return r
}

// RegisterRoutes sets up the health and metrics routes.
func RegisterRoutes(r *gin.Engine, health HealthCheck, gatherer prometheus.Gatherer) {
	r.GET("/healthz", getHealth(health))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

func getHealth(health HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := health(ctx); err != nil {
				middleware.GetLoggerFromContext(c).Warn().Err(err).Msg("Health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
