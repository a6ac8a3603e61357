// Package middleware 提供 gin 中间件：依赖注入、跨域、请求日志、指标、追踪与限流.
package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/mediavault/pkg/context"
)

// DepsMiddleware 将启动时构建的依赖注入到请求 context 中.
func DepsMiddleware(deps ctxPkg.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxPkg.WithDeps(c.Request.Context(), deps)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
