package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ClamdConfig 病毒扫描守护进程就绪检查.
type ClamdConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	// RetryInterval 守护进程未就绪时的重试间隔.
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func (c *ClamdConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("clamd.enabled", false)
	v.SetDefault("clamd.host", "127.0.0.1:3310")
	v.SetDefault("clamd.retry_interval", 10*time.Second)
	v.SetDefault("clamd.timeout", 5*time.Second)
}
