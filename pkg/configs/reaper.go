package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultReaperInterval  = 10 * time.Minute      // 回收周期
	DefaultReaperDelay     = 50 * time.Millisecond // 每条记录之间的间隔
	DefaultReaperBatchSize = 100                   // 每批查询的记录数
)

// ReaperConfig 软删除记录回收任务配置.
type ReaperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	// Cron 非空时优先于 Interval，使用 crontab 表达式调度.
	Cron      string        `mapstructure:"cron"`
	Delay     time.Duration `mapstructure:"delay"`
	BatchSize int           `mapstructure:"batch_size" rule:"min=1,max=10000"`
}

func (c *ReaperConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("reaper.enabled", true)
	v.SetDefault("reaper.interval", DefaultReaperInterval)
	v.SetDefault("reaper.cron", "")
	v.SetDefault("reaper.delay", DefaultReaperDelay)
	v.SetDefault("reaper.batch_size", DefaultReaperBatchSize)
}
