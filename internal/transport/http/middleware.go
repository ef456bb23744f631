package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/domain"
	"quiz-hosting-service/internal/metrics"
)

const identityKey = "identity"

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(token string) (domain.Identity, error)
}

// Limiter decides whether key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// bearerToken reads "Authorization: Bearer <token>" or, for websocket
// clients, a token query parameter.
func bearerToken(c *gin.Context) string {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}
	return token
}

func authenticate(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Verify(bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// rateLimit keys on the caller's user id when the request carries a valid
// token, else on the client IP.
func rateLimit(limiter Limiter, verifier Verifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if identity, ok := identityFrom(c); ok {
			key = identity.UserID
		} else if token := bearerToken(c); token != "" {
			if identity, err := verifier.Verify(token); err == nil {
				key = identity.UserID
			}
		}
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
		}
		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
