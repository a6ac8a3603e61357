package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// S3Config MinIO S3存储配置，每个标签对应一个存储桶.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	// BucketPrefix 桶名前缀，桶名为 BucketPrefix + 标签名.
	BucketPrefix string `mapstructure:"bucket_prefix"`
	// Buckets 为个别标签显式指定桶名.
	Buckets map[string]string `mapstructure:"buckets"`
	// AutoCreateBuckets 启动时为每个标签创建缺失的桶.
	AutoCreateBuckets bool `mapstructure:"auto_create_buckets"`
}

const (
	DefaultS3AccessKeyID     = "minioadmin" // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin" // 默认秘密访问密钥
	DefaultS3UseSSL          = false        // 默认是否使用SSL
	DefaultS3Region          = ""           // 默认区域，为空表示未配置 S3
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// Configured 是否同时配置了区域与端点.
func (c *S3Config) Configured() bool {
	return c.Region != "" && c.Endpoint != ""
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.bucket_prefix", "")
	v.SetDefault("s3.buckets", map[string]string{})
	v.SetDefault("s3.auto_create_buckets", false)
}
