package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/kimsangheu/stdpay-gateway/internal/handlers"
	"github.com/kimsangheu/stdpay-gateway/internal/models"
	"github.com/kimsangheu/stdpay-gateway/internal/sign"
)

const cacheTTL = 24 * time.Hour

// CallbackIdempotency replays the first recorded outcome when the same
// callback is delivered again, keyed on the (orderNumber, authToken) pair.
// A replayed callback must not trigger a second approval call. Without redis
// the guard is a no-op.
func CallbackIdempotency(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		oid := c.PostForm("orderNumber")
		token := c.PostForm("authToken")
		if oid == "" || token == "" {
			c.Next()
			return
		}

		key := "callback:" + sign.Digest(
			sign.Field{Name: "oid", Value: oid},
			sign.Field{Name: "authToken", Value: token},
		)
		ctx := c.Request.Context()

		cached, err := redisClient.Get(ctx, key).Result()
		if err == nil {
			var result models.ApprovalResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				handlers.RenderResult(c, &result)
				c.Abort()
				return
			}
		}

		c.Next()

		if v, ok := c.Get("approval_result"); ok {
			if result, ok := v.(*models.ApprovalResult); ok {
				resultJSON, _ := json.Marshal(result)
				redisClient.Set(ctx, key, resultJSON, cacheTTL)
			}
		}
	}
}
