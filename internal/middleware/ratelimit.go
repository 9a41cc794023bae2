package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/audit"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/ratelimit"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
	"go.uber.org/zap"
)

// RateLimit enforces the sliding-window limit for one route group, keyed by
// client IP. The limiter is advisory: a Redis failure lets the request
// through rather than turning the limiter into an outage.
func RateLimit(limiter *ratelimit.Limiter, auditSvc *audit.Service, logger *zap.Logger, group string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), group, ip, rule)
		if err != nil {
			logger.Warn("rate limiter unavailable, failing open",
				zap.String("group", group), zap.Error(err))
			c.Next()
			return
		}
		if res.Allowed {
			c.Next()
			return
		}

		auditSvc.Record(audit.Event{
			Kind:    models.AuditRateLimitExceeded,
			IP:      ip,
			UA:      c.Request.UserAgent(),
			Action:  c.Request.Method + " " + c.FullPath(),
			Detail:  map[string]any{"group": group, "max": rule.Max, "window": rule.Window.String()},
			Success: false,
		})

		retryAfter := int(res.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		response.TooManyRequests(c, strconv.Itoa(retryAfter))
	}
}
