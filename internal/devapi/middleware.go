package devapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"campusevents/internal/httpmiddleware"
	"campusevents/internal/model"
)

const userKey = "user"

// RequireUser enforces a valid bearer token for an active account.
func RequireUser(tokens *Tokens, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := httpmiddleware.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}
		u, ok := store.User(model.ID(claims.Subject))
		if !ok || !u.IsActive {
			unauthorized(c, "Could not validate credentials")
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	detail(c, http.StatusUnauthorized, msg)
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			detail(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) model.User {
	v, _ := c.Get(userKey)
	u, _ := v.(model.User)
	return u
}

// requestMetrics counts requests per route template.
func requestMetrics(reg prometheus.Registerer) gin.HandlerFunc {
	factory := promauto.With(reg)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "campusevents_devapi_requests_total",
		Help: "Requests served by the development API.",
	}, []string{"method", "route", "code"})
	latency := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusevents_devapi_request_duration_seconds",
		Help:    "Request latency of the development API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
