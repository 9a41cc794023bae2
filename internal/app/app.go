package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiendreiliass0x/school-management-system/internal/config"
	"github.com/tiendreiliass0x/school-management-system/internal/database"
	"github.com/tiendreiliass0x/school-management-system/internal/middleware"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/audit"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session"
	pkgcron "github.com/tiendreiliass0x/school-management-system/internal/pkg/cron"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/jwt"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/ratelimit"
	pkgredis "github.com/tiendreiliass0x/school-management-system/internal/pkg/redis"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rc       *pkgredis.Client
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
	auditSvc *audit.Service
	sessions *session.Store
	limiter  *ratelimit.Limiter
	signer   *jwt.Signer
	guard    *middleware.Guard
}

// New initializes the application: config → DB → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	response.Verbose = cfg.IsDev()

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	auditSvc := audit.NewService(audit.NewGormWriter(db), logger, cfg.Audit.BufferSize)
	signer := jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	users := session.NewGormUserLoader(db)
	sessions := session.NewStore(
		session.NewGormRepo(db),
		users,
		session.WithTTL(cfg.Auth.RefreshTokenTTL),
		session.WithMaxSessions(cfg.Auth.MaxSessionsPerUser),
	)

	limiter := ratelimit.New(rc.Raw())
	guard := middleware.NewGuard(users, signer, auditSvc)

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New()

	app := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		rc:       rc,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
		auditSvc: auditSvc,
		sessions: sessions,
		limiter:  limiter,
		signer:   signer,
		guard:    guard,
	}
	app.registerCronJobs()
	go sched.Start(ctx)
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and drains the audit queue.
func (a *App) Shutdown() {
	a.cancel()
	a.auditSvc.Close()
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := originHost(origin)
			for _, pattern := range patterns {
				if matchOrigin(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(string) bool { return true }
	}
	return c
}

// originHost returns the "host[:port]" portion of an origin URL.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOrigin reports whether host matches a configured origin pattern.
// "*.example.org" matches any subdomain, "localhost:*" matches any port.
func matchOrigin(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}

var processStart = time.Now()
