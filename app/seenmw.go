// app/seenmw.go
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type SeenToucher interface {
	TouchOperatorSeen(ctx context.Context, operatorID string) error
}

// TouchLastSeen updates last_seen_at at most once per throttle window per operator.
func TouchLastSeen(repo SeenToucher, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid := c.GetString(CtxOperatorID)
		if oid == "" {
			c.Next()
			return
		}

		key := "lend:operator:lastseen:" + oid
		if ok, _ := rdb.SetNX(c.Request.Context(), key, "1", throttle).Result(); ok {
			_ = repo.TouchOperatorSeen(c.Request.Context(), oid) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
