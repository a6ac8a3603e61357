package configs

import "github.com/spf13/viper"

// BackendType 字节存储后端类型.
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendS3    BackendType = "s3"

	// DefaultLocalPath 本地存储目录.
	DefaultLocalPath = "./files"
	// DefaultWorkers 阻塞任务池的并发上限.
	DefaultWorkers = 16
)

// StorageConfig 存储后端与阻塞任务池配置.
type StorageConfig struct {
	// Backend 为空时，若 S3 同时配置了 region 与 endpoint 则选择 s3，否则 local.
	Backend   BackendType `mapstructure:"backend"    rule:"omitempty,oneof=local s3"`
	LocalPath string      `mapstructure:"local_path" rule:"required"`
	Workers   int         `mapstructure:"workers"    rule:"min=1,max=1024"`
}

// ResolveBackend 返回实际使用的后端.
func (c *StorageConfig) ResolveBackend(s3 *S3Config) BackendType {
	if c.Backend != "" {
		return c.Backend
	}

	if s3.Configured() {
		return BackendS3
	}

	return BackendLocal
}

func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "")
	v.SetDefault("storage.local_path", DefaultLocalPath)
	v.SetDefault("storage.workers", DefaultWorkers)
}
