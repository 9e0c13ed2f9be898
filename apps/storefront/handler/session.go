package handler

import (
	"net/http"

	"go-storefront/internal/cart"
	"go-storefront/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keySessionID = "sessionId"

// Session 会话 Cookie 与购物车加载
// 没有或无效的 Cookie 会分配新的会话 ID; 每次请求都续期
func Session(store cart.Store, cfg config.SessionConfig, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, sid, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)

		st, err := store.Load(c.Request.Context(), sid)
		if err != nil {
			log.Warn("discard unreadable cart", zap.String("session", sid), zap.Error(err))
			st = cart.NewState()
		}

		c.Set(keySessionID, sid)
		c.Request = c.Request.WithContext(cart.NewContext(c.Request.Context(), st))
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(keySessionID)
}
