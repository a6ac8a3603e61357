// Package router 管理路由配置，把路径与处理器绑定到 gin 引擎.
//
// 路由：
//
//	GET  /                  版本与标签表（gzip）
//	GET  /health/{db,storage,mq}
//	POST /:tag              上传
//	GET  /:tag/*path        下发与下载
//
// 固定路径（/health、/metrics、/debug）优先于标签路由，因此这些名字不能用作标签.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/handle"
	"github.com/yeisme/mediavault/pkg/middleware"
)

// Register 在引擎上注册全部业务路由.
func Register(r *gin.Engine, cfg *configs.AppConfig) {
	r.GET("/", gzip.Gzip(gzip.DefaultCompression), handle.Index)

	RegisterHealthCheckRoute(&r.RouterGroup)
	RegisterMediaRoutes(&r.RouterGroup, cfg.RateLimit)
}

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/storage", handle.HealthStorage)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}

// RegisterMediaRoutes 注册上传与下发路由.
func RegisterMediaRoutes(g *gin.RouterGroup, rl configs.RateLimitConfig) {
	g.POST("/:tag", middleware.UploadRateLimitMiddleware(rl), handle.Upload)
	g.GET("/:tag/*path", handle.Serve)
}
