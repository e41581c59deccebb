// Package devapi is an in-memory implementation of the campus-events REST
// API for local development and end-to-end tests of the client.
package devapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusevents/internal/httpmiddleware"
)

// Options tunes the router.
type Options struct {
	// RateLimitPerMin is per client; zero disables limiting.
	RateLimitPerMin int
	AllowOrigins    []string
	AccessLog       bool
	// Registry receives request metrics and is served on /metrics. Nil
	// disables both.
	Registry *prometheus.Registry
}

// NewRouter builds the gin engine serving every API route.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.AccessLog {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(securityHeaders())

	if opts.Registry != nil {
		r.Use(requestMetrics(opts.Registry))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	r.GET("/healthz", h.Healthz)

	limited := r.Group("/", httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())

	limited.POST("/auth/register", h.Register)
	limited.POST("/auth/login", h.Login)
	limited.GET("/colleges", h.Colleges)
	limited.GET("/events", h.Events)
	limited.GET("/events/:id", h.Event)

	user := limited.Group("/", RequireUser(h.tokens, h.store))
	user.GET("/auth/me", h.Me)
	user.GET("/registrations/my", h.MyRegistrations)
	user.POST("/registrations", h.CreateRegistration)
	user.GET("/attendance/my", h.MyAttendance)
	user.GET("/feedback/my", h.MyFeedback)
	user.POST("/feedback", h.CreateFeedback)

	admin := user.Group("/", RequireAdmin())
	admin.GET("/registrations", h.AllRegistrations)
	admin.GET("/attendance", h.AllAttendance)
	admin.POST("/attendance", h.CreateAttendance)

	r.NoRoute(func(c *gin.Context) {
		detail(c, http.StatusNotFound, "Not Found")
	})
	return r
}
