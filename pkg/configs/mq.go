package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS MQType = "nats"
	// MQTypeRedis Redis PUBLISH/SUBSCRIBE，不持久化.
	MQTypeRedis MQType = "redis"
	// MQTypeChannel 进程内 Go channel，适合单实例与测试.
	MQTypeChannel MQType = "gochannel"

	DefaultMQURL         = "nats://localhost:4222"
	DefaultMaxReconnects = 5  // 默认最大重连次数.
	DefaultReconnectWait = 5  // 默认重连等待时间（秒）.
	DefaultChannelBuffer = 64 // gochannel 输出缓冲
)

// MQConfig 消息队列配置.
type MQConfig struct {
	Type   MQType          `mapstructure:"type"   rule:"oneof=nats gochannel redis"`
	Common MQCommonConfig  `mapstructure:"common"`
	NATS   MQNATSConfig    `mapstructure:"nats"`
	Redis  MQRedisConfig   `mapstructure:"redis"`
	Chan   MQChannelConfig `mapstructure:"gochannel"`
}

// MQRedisConfig Redis 频道配置.
type MQRedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"             rule:"min=0"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// MQCommonConfig 通用MQ配置.
type MQCommonConfig struct {
	URL           string `mapstructure:"url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	SubjectPrefix          string `mapstructure:"subject_prefix"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	QueueGroupPrefix       string `mapstructure:"queue_group_prefix"`
}

// MQChannelConfig 进程内队列配置.
type MQChannelConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	Persistent   bool  `mapstructure:"persistent"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeChannel)

	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.user", "")
	v.SetDefault("mq.common.password", "")
	v.SetDefault("mq.common.client_id", "mediavault")
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)

	v.SetDefault("mq.nats.jetstream_enabled", false)
	v.SetDefault("mq.nats.subject_prefix", "mediavault.")
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "mediavault-durable")
	v.SetDefault("mq.nats.queue_group_prefix", "mediavault")

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.password", "")
	v.SetDefault("mq.redis.db", 0)
	v.SetDefault("mq.redis.channel_prefix", "mediavault.")

	v.SetDefault("mq.gochannel.output_buffer", DefaultChannelBuffer)
	v.SetDefault("mq.gochannel.persistent", false)
}
