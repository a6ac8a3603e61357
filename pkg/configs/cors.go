package configs

import "github.com/spf13/viper"

// CORSConfig 跨域配置，默认允许任意来源.
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds" rule:"min=0"`
}

func (c *CORSConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.allow_methods", []string{"GET", "POST"})
	v.SetDefault("cors.allow_headers", []string{"X-Session-Token", "X-Bot-Token"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age_seconds", 3600)
}
