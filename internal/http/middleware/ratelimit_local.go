package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// In-process token-bucket limiter, the fallback when Redis is not
// configured. Per-IP limiters are pruned when idle so the map does not grow
// without bound.

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	localMu       sync.Mutex
	localLimiters = make(map[string]*localLimiter)
	pruneOnce     sync.Once
)

// LocalRateLimit allows maxRequests per window per client IP using a token
// bucket with a burst of maxRequests.
func LocalRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	pruneOnce.Do(func() { go pruneLocalLimiters() })

	perSecond := rate.Limit(float64(maxRequests) / window.Seconds())

	return func(c *gin.Context) {
		ip := c.ClientIP()

		localMu.Lock()
		ll, ok := localLimiters[ip]
		if !ok {
			ll = &localLimiter{limiter: rate.NewLimiter(perSecond, maxRequests)}
			localLimiters[ip] = ll
		}
		ll.lastSeen = time.Now()
		allowed := ll.limiter.Allow()
		localMu.Unlock()

		if !allowed {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func pruneLocalLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)
		localMu.Lock()
		for ip, ll := range localLimiters {
			if ll.lastSeen.Before(cutoff) {
				delete(localLimiters, ip)
			}
		}
		localMu.Unlock()
	}
}
