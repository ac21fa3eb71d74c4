package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/cache"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// ExecuteRateLimiter throttles the execute endpoint per user; it is the
// one route that causes network egress. With Redis available the limit
// is enforced across instances via redis_rate; otherwise each process
// keeps its own per-user token buckets. Limits are read from the config
// store on every call so hot reloads take effect.
func ExecuteRateLimiter(rdb *cache.Client, cfgStore *config.Store) gin.HandlerFunc {
	var distributed *redis_rate.Limiter
	if rdb != nil {
		distributed = redis_rate.NewLimiter(rdb.Redis())
	}

	var (
		mu    sync.Mutex
		local = make(map[int64]*rate.Limiter)
	)

	return func(c *gin.Context) {
		cfg := cfgStore.Get()
		if cfg == nil || !cfg.RateLimit.Enabled {
			c.Next()
			return
		}

		user := CurrentUser(c)
		if user == nil {
			c.Next()
			return
		}

		rps := cfg.RateLimit.RPS
		if rps <= 0 {
			rps = 1
		}
		burst := cfg.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}

		allowed := true
		if distributed != nil {
			res, err := distributed.Allow(c.Request.Context(),
				fmt.Sprintf("execute:%d", user.ID),
				redis_rate.Limit{Rate: int(rps), Burst: burst, Period: time.Second})
			// fail open on Redis trouble; throttling is protective, not
			// correctness-critical
			if err == nil {
				allowed = res.Allowed > 0
			}
		} else {
			mu.Lock()
			lim, ok := local[user.ID]
			if !ok {
				lim = rate.NewLimiter(rate.Limit(rps), burst)
				local[user.ID] = lim
			}
			mu.Unlock()
			allowed = lim.Allow()
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Execution rate limit exceeded, slow down",
			})
			return
		}
		c.Next()
	}
}
