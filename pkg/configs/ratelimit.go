package configs

import "github.com/spf13/viper"

const (
	DefaultRateLimitEnabled   = false
	DefaultRateLimitRPS       = 50.0
	DefaultRateLimitBurst     = 100
	DefaultRateLimitKey       = "ip"
	DefaultRateLimitUploadRPS = 5.0
)

// RateLimitConfig 令牌桶限流配置，全局限流作用于所有路由，上传限流只作用于 POST /:tag.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"min=0"`
	Burst   int     `mapstructure:"burst" rule:"min=0"`
	// Key 限流维度：global、ip 或 header:<Name>，请求头缺失时按客户端 IP
	Key string `mapstructure:"key" rule:"omitempty,ratelimit_key"`
	// UploadRPS 上传接口的附加速率，0 表示不单独限制
	UploadRPS float64 `mapstructure:"upload_rps" rule:"min=0"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.upload_rps", DefaultRateLimitUploadRPS)
}
