package configs

import "github.com/spf13/viper"

// ServeFormat 缩略图输出格式.
type ServeFormat string

const (
	ServePNG  ServeFormat = "png"
	ServeWEBP ServeFormat = "webp"
	ServeJPEG ServeFormat = "jpeg"

	// DefaultCacheControl 文件响应的 Cache-Control 头.
	DefaultCacheControl = "public, max-age=604800, must-revalidate"
)

// ServeConfig 文件下发与缩略图配置.
type ServeConfig struct {
	Format ServeFormat `mapstructure:"format" rule:"oneof=png webp jpeg"`
	// Quality 对 webp 与 jpeg 生效；webp 为 0 时使用无损编码.
	Quality      float32 `mapstructure:"quality"       rule:"min=0,max=100"`
	CacheControl string  `mapstructure:"cache_control"`
}

func (c *ServeConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("serve.format", ServePNG)
	v.SetDefault("serve.quality", 0)
	v.SetDefault("serve.cache_control", DefaultCacheControl)
}
