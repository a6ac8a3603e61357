package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/configs"
)

// CORSMiddleware CORS中间件，来源为 "*" 时允许任意来源并回显请求来源以支持携带凭证.
func CORSMiddleware(cfg configs.CORSConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = cfg.AllowMethods
	config.AllowHeaders = append(config.AllowHeaders, cfg.AllowHeaders...)
	config.AllowCredentials = cfg.AllowCredentials
	config.MaxAge = time.Duration(cfg.MaxAgeSeconds) * time.Second

	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		config.AllowOriginFunc = func(string) bool { return true }
	} else {
		config.AllowOrigins = cfg.AllowOrigins
	}

	return cors.New(config)
}
