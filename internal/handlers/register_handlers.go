package handlers

import (
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// rateLimiter may be nil to disable rate limiting of the exec endpoint.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	mergeService portssvc.MergeSvcFacade,
	rateLimiter *limiter.Limiter,
) {
	r.Use(cors.New(corsConfig(cfg)))

	// Add health check route
	r.GET("/health", getHealth)

	// Clients fetch this to discover the exec URL
	r.GET("/bootstrap", bootstrapDocument(cfg.ExecURL()))

	root := r.Group("")
	if rateLimiter != nil {
		root.Use(middleware.RateLimit(rateLimiter))
	}
	registerSyncRoutes(root, mergeService, cfg.DeploymentID)
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.ExposeHeaders = []string{"X-Request-ID"}
	return corsCfg
}
