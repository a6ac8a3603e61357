// Package handle 实现 HTTP 处理器：解析请求、调用 service、写回响应.
// 业务错误统一由 writeError 转换为 {"type": ...} 响应体.
package handle

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// writeError 按错误类型写回状态码与响应体；内部原因只写日志.
func writeError(c *gin.Context, err error) {
	e := types.AsError(err)
	status := e.Status()

	l := ctxPkg.WithTraceContext(c.Request.Context(), nlog.Component("handle"))
	ev := l.Debug()

	if status >= 500 {
		ev = l.Error()
	}

	ev.Err(err).
		Str("type", string(e.Kind)).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, e.Body())
}
