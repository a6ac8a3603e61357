// Package s3 处理S3存储连接与存储桶管理.
package s3

import (
	"context"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/mediavault/pkg/configs"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
	cfg configs.S3Config
}

// New 初始化 MinIO 客户端.
func New(cfg configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("mediavault", configs.AppVersion)

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("region", cfg.Region).Msg("s3 client created")

	return &Client{Client: cli, cfg: cfg}, nil
}

// Bucket 返回标签对应的存储桶名.
func (c *Client) Bucket(tag string) string {
	if b, ok := c.cfg.Buckets[tag]; ok && b != "" {
		return b
	}

	return c.cfg.BucketPrefix + tag
}

// EnsureBuckets 为每个标签创建缺失的存储桶.
func (c *Client) EnsureBuckets(ctx context.Context, tags []string) error {
	for _, tag := range tags {
		bkt := c.Bucket(tag)

		exists, err := c.BucketExists(ctx, bkt)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bkt, err)
		}

		if exists {
			continue
		}

		if err := c.MakeBucket(ctx, bkt, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bkt, err)
		}

		nlog.Logger().Info().Str("bucket", bkt).Str("tag", tag).Msg("bucket created")
	}

	return nil
}

// HealthCheck 简单的健康检查，通过列出桶来验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListBuckets(ctx)

	return err
}
