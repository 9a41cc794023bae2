package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiendreiliass0x/school-management-system/internal/config"
	"github.com/tiendreiliass0x/school-management-system/internal/middleware"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/audit"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/auth"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/ratelimit"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "school-management-system",
		"version": "1.0.0",
	}

	api := r.Group("/api/v1")
	api.Use(a.rateLimitMW("general", a.cfg.RateLimit.General))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})
	api.GET("/health", a.health)

	// Auth
	authSvc := auth.NewService(auth.NewGormUserStore(a.db), a.signer, a.sessions, a.auditSvc, a.logger)
	auth.NewHandler(authSvc).RegisterRoutes(api, a.guard,
		a.rateLimitMW("login", a.cfg.RateLimit.Login),
		a.rateLimitMW("refresh", a.cfg.RateLimit.Refresh),
	)

	// Audit trail, platform administrators only
	audit.NewHandler(a.db).RegisterRoutes(api,
		a.guard.Auth(),
		a.guard.RequireRoles(models.RolePlatformAdmin),
	)

	// Maintenance jobs, platform administrators only
	jobs := api.Group("/jobs",
		a.guard.Auth(),
		a.guard.RequireRoles(models.RolePlatformAdmin),
	)
	jobs.GET("", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	jobs.GET("/:name", func(c *gin.Context) {
		state, err := a.sched.State(c.Param("name"))
		if err != nil {
			response.NotFound(c)
			return
		}
		response.OK(c, state)
	})
	jobs.POST("/:name/run", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFound(c)
			return
		}
		response.NoContent(c)
	})
}

func (a *App) rateLimitMW(group string, rule config.RateLimitRule) gin.HandlerFunc {
	return middleware.RateLimit(a.limiter, a.auditSvc, a.logger, group, ratelimit.Rule{
		Max:    rule.Max,
		Window: rule.Window,
	})
}

// health reports liveness of the two backing stores.
func (a *App) health(c *gin.Context) {
	status := http.StatusOK
	dbState := "up"
	redisState := "up"

	sqlDB, err := a.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbState = "down"
		status = http.StatusServiceUnavailable
	}
	if err := a.rc.Raw().Ping(c.Request.Context()).Err(); err != nil {
		redisState = "down"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"database": dbState,
		"redis":    redisState,
	})
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}
