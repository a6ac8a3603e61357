package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled    bool                   `mapstructure:"enabled"` // 总开关
	Attachment AttachmentEventsConfig `mapstructure:"attachment"`
}

// AttachmentEventsConfig 附件生命周期事件开关.
type AttachmentEventsConfig struct {
	Stored bool `mapstructure:"stored"`
	Reaped bool `mapstructure:"reaped"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 默认关闭，由聊天后端按需订阅后开启
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.attachment.stored", true)
	v.SetDefault("events.attachment.reaped", true)
}
