package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/authn"
	"resume-reviewer/internal/reviews"
	"resume-reviewer/internal/services/health"
	"resume-reviewer/internal/shared/config"
	"resume-reviewer/internal/shared/metrics"
	"resume-reviewer/internal/shared/server/middleware"
	"resume-reviewer/internal/shared/server/respond"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	AuthHandler    *authn.Handler
	ReviewsHandler *reviews.Handler
	Health         *health.Service
	// Sessions gates the review routes on a live session; nil skips the check.
	Sessions middleware.SessionLookup
	// Limiter backs the submit rate limit; nil uses the wall clock.
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	public := append([]string{healthPath, metricsPath}, authn.PublicPaths...)
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(public...),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	registerMeRoutes(api)

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(api)
	}
	if deps.ReviewsHandler != nil {
		limit := middleware.RateLimit(
			"reviews.submit",
			middleware.PerMinute(deps.Config.ReviewRateLimitPerMin),
			deps.Limiter,
		)
		reviewsGroup := api.Group("", middleware.RequireSession(deps.Sessions))
		deps.ReviewsHandler.RegisterRoutes(reviewsGroup, limit)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
