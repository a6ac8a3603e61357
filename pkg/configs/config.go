// Package configs 管理应用程序配置，包括标签策略、存储后端、媒体处理、数据库与队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），并在加载时完成校验.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing tag config:
//
//	tag, ok := configs.GetConfig().Tags["attachments"]
//	if ok {
//		fmt.Println("max size:", tag.MaxSize)
//	}
//
// 标签表在启动后不可变，因此不启用配置热重载.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yeisme/mediavault/pkg/rule"
)

// AppVersion 服务版本号，出现在索引接口与 S3 客户端标识中.
const AppVersion = "1.0.0"

// EnvPrefix 环境变量前缀，例如 MEDIAVAULT_SERVER_PORT.
const EnvPrefix = "MEDIAVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 监听地址、端口等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 元数据库配置
		Storage        StorageConfig        `mapstructure:"storage"`         // StorageConfig 存储后端选择
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		Media          MediaConfig          `mapstructure:"media"`           // MediaConfig 上传归一化配置
		Serve          ServeConfig          `mapstructure:"serve"`           // ServeConfig 缩略图输出配置
		Tags           map[string]TagConfig `mapstructure:"tags"            rule:"dive"`
		Reaper         ReaperConfig         `mapstructure:"reaper"`          // ReaperConfig 回收任务配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 缩略图缓存
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件开关
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 指标配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig S3 熔断配置
		CORS           CORSConfig           `mapstructure:"cors"`            // CORSConfig 跨域配置
		Clamd          ClamdConfig          `mapstructure:"clamd"`           // ClamdConfig 病毒扫描守护进程
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv).
// path 可以是配置文件，也可以是包含 config.* 的目录.
func InitConfig(path string) error {
	v := NewViper()

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	// 没有配置文件时只使用默认值与环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := Load(v)
	if err != nil {
		return err
	}

	appViper = v
	globalConfig = *cfg

	return nil
}

// NewViper 返回已设置默认值与环境变量映射的 Viper 实例.
func NewViper() *viper.Viper {
	v := viper.New()
	setAllDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	return v
}

// Load 把 Viper 中的配置解析为 AppConfig 并执行校验.
func Load(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 标签表整体替换，不与默认表合并
	if !v.IsSet("tags") {
		cfg.Tags = DefaultTags()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验结构体规则以及跨字段约束.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for name, tag := range c.Tags {
		if err := rule.ValidateVar(name, "tag_name"); err != nil {
			return fmt.Errorf("invalid config: tag %q: name must match %s", name, tagNamePattern)
		}

		if ReservedTagName(name) {
			return fmt.Errorf("invalid config: tag %q collides with a fixed route", name)
		}

		if err := tag.validate(); err != nil {
			return fmt.Errorf("invalid config: tag %q: %w", name, err)
		}
	}

	if c.Storage.ResolveBackend(&c.S3) == BackendS3 && c.S3.Endpoint == "" {
		return fmt.Errorf("invalid config: s3 backend selected but s3.endpoint is empty")
	}

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig   ServerConfig
		logConfig      LogConfig
		dbConfig       DBConfig
		storageConfig  StorageConfig
		s3Config       S3Config
		mediaConfig    MediaConfig
		serveConfig    ServeConfig
		reaperConfig   ReaperConfig
		kvConfig       KVConfig
		mqConfig       MQConfig
		eventsConfig   EventsConfig
		metricsConfig  MetricsConfig
		tracingConfig  TracingConfig
		rateLimit      RateLimitConfig
		circuitBreaker CircuitBreakerConfig
		corsConfig     CORSConfig
		clamdConfig    ClamdConfig
	)

	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	storageConfig.setDefaults(v)
	s3Config.setDefaults(v)
	mediaConfig.setDefaults(v)
	serveConfig.setDefaults(v)
	reaperConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimit.setDefaults(v)
	circuitBreaker.setDefaults(v)
	corsConfig.setDefaults(v)
	clamdConfig.setDefaults(v)
}

// bindLegacyEnv 兼容部署环境中常见的无前缀变量.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("storage.local_path", EnvPrefix+"_STORAGE_LOCAL_PATH", "LOCAL_STORAGE_PATH")
	_ = v.BindEnv("s3.region", EnvPrefix+"_S3_REGION", "S3_REGION")
	_ = v.BindEnv("s3.endpoint", EnvPrefix+"_S3_ENDPOINT", "S3_ENDPOINT")
	_ = v.BindEnv("s3.access_key_id", EnvPrefix+"_S3_ACCESS_KEY_ID", "MINIO_ROOT_USER")
	_ = v.BindEnv("s3.secret_access_key", EnvPrefix+"_S3_SECRET_ACCESS_KEY", "MINIO_ROOT_PASSWORD")
	_ = v.BindEnv("clamd.host", EnvPrefix+"_CLAMD_HOST", "CLAMD_HOST")
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// SetConfig 替换全局配置，主要用于测试与命令行覆盖.
func SetConfig(cfg *AppConfig) {
	globalConfig = *cfg
}

// GetViper 返回加载配置所用的 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
