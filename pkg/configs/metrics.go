// Package configs 管理应用程序配置，包括Metrics的配置信息.
//
// Example:
//
//	config := configs.GetConfig()
//	if config.Metrics.Enabled {
//		// 挂载 /metrics
//	}
package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`         // 是否启用Metrics
	Namespace      string            `mapstructure:"namespace"`       // 指标命名空间前缀
	Path           string            `mapstructure:"path"`            // 暴露路径
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"` // 是否收集运行时指标
	DBMetrics      bool              `mapstructure:"db_metrics"`      // 是否启用 gorm 连接池指标
	Labels         map[string]string `mapstructure:"labels"`          // 默认标签
	Pprof          bool              `mapstructure:"pprof"`           // 是否挂载 /debug/pprof
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "mediavault")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.db_metrics", true)
	v.SetDefault("metrics.labels", map[string]string{})
	v.SetDefault("metrics.pprof", false)
}
