// Package apiv1 is the /api/1.0 blueprint: the API index, log endpoints,
// and the generic record CRUD routes.
package apiv1

import (
	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/handlers"
	"github.com/jmbarbier/blueprint/internal/middleware"
)

type Blueprint struct {
	health      *handlers.HealthHandler
	meta        *handlers.MetaHandler
	records     *handlers.RecordHandler
	auth        *handlers.AuthHandler
	requireAuth gin.HandlerFunc
	limiter     *middleware.RateLimiter
}

// New assembles the blueprint. auth and requireAuth are nil when auth is
// disabled, limiter is nil when rate limiting is unavailable.
func New(
	health *handlers.HealthHandler,
	meta *handlers.MetaHandler,
	records *handlers.RecordHandler,
	auth *handlers.AuthHandler,
	requireAuth gin.HandlerFunc,
	limiter *middleware.RateLimiter,
) *Blueprint {
	return &Blueprint{
		health:      health,
		meta:        meta,
		records:     records,
		auth:        auth,
		requireAuth: requireAuth,
		limiter:     limiter,
	}
}

func (b *Blueprint) Name() string {
	return "api_1_0"
}

func (b *Blueprint) Register(rg *gin.RouterGroup) {
	rg.GET("/", b.meta.Routes)
	rg.GET("/ping", b.health.Ping)
	rg.GET("/logs", b.meta.Logs)
	rg.POST("/logs/clear", b.meta.ClearLogs)

	if b.auth != nil {
		auth := rg.Group("/auth")
		if b.limiter != nil {
			auth.Use(b.limiter.AuthLimit())
		}
		auth.POST("/token", b.auth.Token)
	}

	api := rg.Group("")
	if b.limiter != nil {
		api.Use(b.limiter.APILimit())
	}

	// Read routes
	api.GET("/get_record/:model", b.records.GetRecord)
	api.GET("/get_records/:model", b.records.GetRecords)
	api.GET("/schema/:model", b.records.Schema)

	// Mutating routes are audited and require a token when auth is enabled
	mutating := api.Group("")
	mutating.Use(middleware.Audit())
	if b.requireAuth != nil {
		mutating.Use(b.requireAuth)
	}
	mutating.POST("/create/:model", b.records.Create)
	mutating.PUT("/update/:model", b.records.Update)
	mutating.DELETE("/delete/:model", b.records.Delete)
}
