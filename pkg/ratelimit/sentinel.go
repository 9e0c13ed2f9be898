package ratelimit

import (
	"fmt"
	"net/http"

	"go-storefront/pkg/response"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
)

// 资源名称
const (
	ResCheckout = "checkout_api"
	ResLogin    = "login_api"
)

// Init 初始化 Sentinel 并加载 QPS 限流规则, 资源名 -> QPS
func Init(limits map[string]float64) error {
	if err := sentinel.InitDefault(); err != nil {
		return fmt.Errorf("init sentinel: %w", err)
	}
	return LoadRules(limits)
}

// LoadRules 直接计数 + 直接拒绝, 统计周期 1 秒
func LoadRules(limits map[string]float64) error {
	rules := make([]*flow.Rule, 0, len(limits))
	for res, qps := range limits {
		rules = append(rules, &flow.Rule{
			Resource:               res,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              qps,
			StatIntervalInMs:       1000,
		})
	}
	if _, err := flow.LoadRules(rules); err != nil {
		return fmt.Errorf("load sentinel rules: %w", err)
	}
	return nil
}

// Guard gin 中间件: 被限流时返回 429
func Guard(resource string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		e, b := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
		if b != nil {
			response.Error(ctx, http.StatusTooManyRequests, "too many requests, please retry later")
			ctx.Abort()
			return
		}
		defer e.Exit() // 务必退出

		ctx.Next()
	}
}
